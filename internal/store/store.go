package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Record is one stored document.
type Record map[string]interface{}

// Filter selects records by field equality.
type Filter map[string]interface{}

// DeleteResult reports how many records an operation removed.
type DeleteResult struct {
	DeletedCount int64
}

// Deleter is the delete-operation surface the monitor instruments. The full
// CRUD surface of a record store is out of scope here.
type Deleter interface {
	DeleteOne(ctx context.Context, filter Filter) (DeleteResult, error)
	DeleteMany(ctx context.Context, filter Filter) (DeleteResult, error)
	FindByIDAndDelete(ctx context.Context, id string) (Record, error)
}

// Sampler is implemented by stores that can preview which records a filter
// would remove. The monitor uses it best-effort for audit context.
type Sampler interface {
	FindSample(ctx context.Context, filter Filter, limit int) ([]Record, error)
}

// identityFields is the preference order for a record's display identifier.
var identityFields = []string{"email", "username", "name", "id", "_id"}

// Identity returns the most identifying field value of the record, for audit
// display only.
func (r Record) Identity() string {
	for _, field := range identityFields {
		if v, ok := r[field]; ok {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// Matches reports whether every filter field equals the record's value.
// An empty filter matches everything.
func (r Record) Matches(filter Filter) bool {
	for k, want := range filter {
		got, ok := r[k]
		if !ok {
			return false
		}
		// JSON round-trips turn numbers into float64; compare printed forms.
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Describe renders a filter as a stable, human-readable descriptor for audit
// payloads. Never used for matching or authorization.
func (f Filter) Describe() string {
	if len(f) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
