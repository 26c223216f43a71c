package classify

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sigma "github.com/bradleyjkemp/sigma-go"
	sigmaevaluator "github.com/bradleyjkemp/sigma-go/evaluator"

	"delwatch/pkg/models"
)

// SigmaLoadStats tracks the number of loaded and skipped rules.
type SigmaLoadStats struct {
	TotalFiles        int
	Loaded            int
	SkippedComplex    int
	SkippedDatasource int
	SkippedInvalid    int
}

type compiledSigmaRule struct {
	rule     sigma.Rule
	eval     *sigmaevaluator.RuleEvaluator
	name     string
	severity models.Severity
}

// SigmaEngine evaluates operator-supplied Sigma rules against individual
// deletion events. Only simple single-event rules are supported; the rest are
// skipped at load time and counted in stats.
type SigmaEngine struct {
	rules      []compiledSigmaRule
	sourceHost string
	ctx        context.Context
}

// NewSigmaEngine loads Sigma rules from a file or directory and compiles
// evaluators. sourceHost is exposed to rules as the Hostname field.
func NewSigmaEngine(path, sourceHost string) (*SigmaEngine, SigmaLoadStats, error) {
	var stats SigmaLoadStats

	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, stats, fmt.Errorf("resolve rule path: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, stats, fmt.Errorf("stat rule path: %w", err)
	}

	files := make([]string, 0, 64)
	if info.IsDir() {
		err = filepath.WalkDir(resolved, func(filePath string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			if isYAMLFile(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, stats, fmt.Errorf("walk rule directory: %w", err)
		}
	} else {
		if !isYAMLFile(resolved) {
			return nil, stats, fmt.Errorf("rule file must end with .yml or .yaml: %s", resolved)
		}
		files = append(files, resolved)
	}

	stats.TotalFiles = len(files)
	compiled := make([]compiledSigmaRule, 0, len(files))
	for _, ruleFile := range files {
		rule, err := parseSigmaRuleFile(ruleFile)
		if err != nil {
			stats.SkippedInvalid++
			continue
		}

		if !isDeletionCompatible(rule) {
			stats.SkippedDatasource++
			continue
		}

		if ok := isSimpleSingleEventRule(rule); !ok {
			stats.SkippedComplex++
			continue
		}

		name := strings.TrimSpace(rule.Title)
		if name == "" {
			name = strings.TrimSpace(rule.ID)
		}

		compiled = append(compiled, compiledSigmaRule{
			rule:     rule,
			eval:     sigmaevaluator.ForRule(rule),
			name:     name,
			severity: models.ParseSeverity(rule.Level),
		})
		stats.Loaded++
	}

	return &SigmaEngine{rules: compiled, sourceHost: sourceHost, ctx: context.Background()}, stats, nil
}

// Apply evaluates all loaded rules and returns a match per triggered rule.
func (e *SigmaEngine) Apply(event *models.DeletionEvent) []Match {
	if e == nil || event == nil || len(e.rules) == 0 {
		return nil
	}

	eventMap := sigmaEventFrom(event, e.sourceHost)
	out := make([]Match, 0, 2)
	for _, rule := range e.rules {
		res, err := rule.eval.Matches(e.ctx, eventMap)
		if err != nil {
			continue
		}
		if res.Match {
			out = append(out, Match{Name: rule.name, Severity: rule.severity})
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func parseSigmaRuleFile(path string) (sigma.Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sigma.Rule{}, fmt.Errorf("read sigma rule %s: %w", path, err)
	}
	rule, err := sigma.ParseRule(raw)
	if err != nil {
		return sigma.Rule{}, fmt.Errorf("parse sigma rule %s: %w", path, err)
	}
	return rule, nil
}

func isYAMLFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

// isDeletionCompatible filters out rules written for other log sources.
func isDeletionCompatible(rule sigma.Rule) bool {
	product := strings.ToLower(strings.TrimSpace(rule.Logsource.Product))
	service := strings.ToLower(strings.TrimSpace(rule.Logsource.Service))

	if product != "" && product != "application" {
		return false
	}
	if service != "" && service != "record_store" {
		return false
	}
	return true
}

func isSimpleSingleEventRule(rule sigma.Rule) bool {
	if rule.Detection.Timeframe > 0 {
		return false
	}

	for _, cond := range rule.Detection.Conditions {
		if cond.Aggregation != nil {
			return false
		}
		if !isSimpleSearchExpression(cond.Search) {
			return false
		}
	}

	for _, search := range rule.Detection.Searches {
		if len(search.Keywords) > 0 {
			return false
		}
		if len(search.EventMatchers) == 0 {
			return false
		}
	}

	return true
}

func isSimpleSearchExpression(expr sigma.SearchExpr) bool {
	switch e := expr.(type) {
	case sigma.SearchIdentifier:
		return true
	case sigma.And:
		for _, child := range e {
			if !isSimpleSearchExpression(child) {
				return false
			}
		}
		return true
	case sigma.Or:
		for _, child := range e {
			if !isSimpleSearchExpression(child) {
				return false
			}
		}
		return true
	case sigma.Not:
		return isSimpleSearchExpression(e.Expr)
	default:
		return false
	}
}

func sigmaEventFrom(event *models.DeletionEvent, sourceHost string) map[string]interface{} {
	buf := make(map[string]interface{}, 6)
	buf["OperationKind"] = string(event.OperationKind)
	buf["DeletedCount"] = event.DeletedCount
	if event.FilterDescriptor != "" {
		buf["FilterDescriptor"] = event.FilterDescriptor
	}
	if len(event.SubjectSample) > 0 {
		buf["SubjectSample"] = strings.Join(event.SubjectSample, " ")
	}
	if sourceHost != "" {
		buf["Hostname"] = sourceHost
	}
	return buf
}
