package classify

import "delwatch/pkg/models"

// Match is one custom detection rule hit.
type Match struct {
	Name     string
	Severity models.Severity
}

// Engine applies custom detection rules to deletion events.
type Engine interface {
	Apply(event *models.DeletionEvent) []Match
}

// NoopEngine returns no matches.
type NoopEngine struct{}

// Apply returns an empty match list.
func (n *NoopEngine) Apply(event *models.DeletionEvent) []Match {
	return nil
}
