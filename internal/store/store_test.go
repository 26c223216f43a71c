package store

import "testing"

func TestRecordIdentityPrefersEmail(t *testing.T) {
	rec := Record{"id": "u-1", "email": "user@example.test", "name": "User"}
	if got := rec.Identity(); got != "user@example.test" {
		t.Fatalf("expected email identity, got %q", got)
	}

	rec = Record{"id": "u-2", "name": "Other"}
	if got := rec.Identity(); got != "Other" {
		t.Fatalf("expected name identity, got %q", got)
	}

	if got := (Record{"role": "admin"}).Identity(); got != "" {
		t.Fatalf("expected empty identity, got %q", got)
	}
}

func TestRecordMatchesFilterFields(t *testing.T) {
	rec := Record{"status": "inactive", "age": float64(30)}

	if !rec.Matches(Filter{"status": "inactive"}) {
		t.Fatalf("expected match on status")
	}
	// Filters typed as int must match JSON-decoded float64 values.
	if !rec.Matches(Filter{"age": 30}) {
		t.Fatalf("expected numeric match across types")
	}
	if rec.Matches(Filter{"status": "active"}) {
		t.Fatalf("did not expect match on different value")
	}
	if rec.Matches(Filter{"missing": "x"}) {
		t.Fatalf("did not expect match on missing field")
	}
	if !rec.Matches(Filter{}) {
		t.Fatalf("empty filter must match everything")
	}
}

func TestFilterDescribeIsStable(t *testing.T) {
	f := Filter{"b": 2, "a": "x"}
	if got := f.Describe(); got != "{a=x, b=2}" {
		t.Fatalf("unexpected descriptor %q", got)
	}
	if got := (Filter{}).Describe(); got != "{}" {
		t.Fatalf("unexpected empty descriptor %q", got)
	}
}
