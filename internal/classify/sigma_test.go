package classify

import (
	"os"
	"path/filepath"
	"testing"

	"delwatch/pkg/models"
)

const bulkPurgeRule = `title: Bulk purge of records
id: delwatch-bulk-purge
level: high
logsource:
  product: application
  service: record_store
detection:
  selection:
    OperationKind: delete_many
  condition: selection
`

const keywordRule = `title: Keyword sweep
level: low
detection:
  keywords:
    - drop
  condition: keywords
`

const sysmonRule = `title: Windows process creation
level: critical
logsource:
  product: windows
  service: sysmon
detection:
  selection:
    EventID: 1
  condition: selection
`

const hostScopedRule = `title: Host scoped purge
level: critical
detection:
  selection:
    Hostname: host-a
  condition: selection
`

func writeRuleFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write rule %s: %v", name, err)
	}
}

func TestSigmaEngineBucketsRulesByCompatibility(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "bulk_purge.yml", bulkPurgeRule)
	writeRuleFile(t, dir, "keyword.yml", keywordRule)
	writeRuleFile(t, dir, "sysmon.yml", sysmonRule)
	writeRuleFile(t, dir, "broken.yml", "title: [unclosed")
	writeRuleFile(t, dir, "notes.txt", "not a rule")

	engine, stats, err := NewSigmaEngine(dir, "host-a")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	if stats.TotalFiles != 4 {
		t.Fatalf("expected 4 yaml files, got %d", stats.TotalFiles)
	}
	if stats.Loaded != 1 {
		t.Fatalf("expected 1 loaded rule, got %d", stats.Loaded)
	}
	if stats.SkippedComplex != 1 {
		t.Fatalf("expected 1 complex skip, got %d", stats.SkippedComplex)
	}
	if stats.SkippedDatasource != 1 {
		t.Fatalf("expected 1 datasource skip, got %d", stats.SkippedDatasource)
	}
	if stats.SkippedInvalid != 1 {
		t.Fatalf("expected 1 invalid skip, got %d", stats.SkippedInvalid)
	}
	if engine == nil || len(engine.rules) != 1 {
		t.Fatalf("expected exactly the compatible rule to be compiled")
	}
}

func TestSigmaEngineMatchCarriesTitleAndParsedLevel(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "bulk_purge.yml", bulkPurgeRule)

	engine, _, err := NewSigmaEngine(dir, "host-a")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	matches := engine.Apply(event(20))
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Name != "Bulk purge of records" {
		t.Fatalf("expected rule title as match name, got %q", matches[0].Name)
	}
	if matches[0].Severity != models.SeverityHigh {
		t.Fatalf("expected high severity from rule level, got %s", matches[0].Severity)
	}
}

func TestSigmaEngineIgnoresNonMatchingOperations(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "bulk_purge.yml", bulkPurgeRule)

	engine, _, err := NewSigmaEngine(dir, "host-a")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	ev := event(1)
	ev.OperationKind = models.OpDeleteOne
	if matches := engine.Apply(ev); len(matches) != 0 {
		t.Fatalf("expected no matches for delete_one, got %v", matches)
	}
}

func TestSigmaEngineExposesSourceHostAsHostname(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "host_scoped.yml", hostScopedRule)

	onHost, _, err := NewSigmaEngine(dir, "host-a")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if matches := onHost.Apply(event(1)); len(matches) != 1 {
		t.Fatalf("expected host-scoped rule to match on host-a, got %v", matches)
	}

	offHost, _, err := NewSigmaEngine(dir, "host-b")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if matches := offHost.Apply(event(1)); len(matches) != 0 {
		t.Fatalf("expected no match on host-b, got %v", matches)
	}
}

func TestSigmaEngineRejectsNonYAMLRuleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.txt")
	if err := os.WriteFile(path, []byte(bulkPurgeRule), 0644); err != nil {
		t.Fatalf("write rule file: %v", err)
	}

	if _, _, err := NewSigmaEngine(path, "host-a"); err == nil {
		t.Fatalf("expected error for non-yaml rule file")
	}
}
