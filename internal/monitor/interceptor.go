package monitor

import (
	"context"

	"delwatch/internal/logger"
	"delwatch/internal/store"
	"delwatch/pkg/models"
)

// InstrumentedStore decorates a record store so that every delete-style
// operation is reported to the monitor. The wrapped operations keep their
// exact contract: results and errors pass through unchanged, and monitoring
// work can never fail the caller.
type InstrumentedStore struct {
	inner   store.Deleter
	sampler store.Sampler
	monitor *Monitor
}

// Instrument wraps a store with deletion monitoring. Stores that also
// implement store.Sampler get best-effort subject samples in their audit
// payloads.
func Instrument(inner store.Deleter, m *Monitor) *InstrumentedStore {
	sampler, _ := inner.(store.Sampler)
	return &InstrumentedStore{inner: inner, sampler: sampler, monitor: m}
}

// DeleteOne delegates to the wrapped store and reports the outcome. The
// sample is capped at one record since the operation removes at most one.
func (s *InstrumentedStore) DeleteOne(ctx context.Context, filter store.Filter) (store.DeleteResult, error) {
	sample := s.sampleFor(ctx, filter, 1)
	res, err := s.inner.DeleteOne(ctx, filter)
	s.report(models.OpDeleteOne, filter.Describe(), res.DeletedCount, sample)
	return res, err
}

// DeleteMany delegates to the wrapped store and reports the outcome.
func (s *InstrumentedStore) DeleteMany(ctx context.Context, filter store.Filter) (store.DeleteResult, error) {
	sample := s.sampleFor(ctx, filter, models.MaxSubjectSample)
	res, err := s.inner.DeleteMany(ctx, filter)
	s.report(models.OpDeleteMany, filter.Describe(), res.DeletedCount, sample)
	return res, err
}

// FindByIDAndDelete delegates to the wrapped store and reports the outcome.
func (s *InstrumentedStore) FindByIDAndDelete(ctx context.Context, id string) (store.Record, error) {
	rec, err := s.inner.FindByIDAndDelete(ctx, id)
	if rec != nil {
		var sample []string
		if identity := rec.Identity(); identity != "" {
			sample = []string{identity}
		}
		s.report(models.OpFindAndDelete, "{id="+id+"}", 1, sample)
	}
	return rec, err
}

// sampleFor fetches identifying fields of the records a filter is about to
// remove. Best-effort: records are unreadable after the delete, and a failed
// lookup only means an empty sample.
func (s *InstrumentedStore) sampleFor(ctx context.Context, filter store.Filter, limit int) []string {
	if s.sampler == nil {
		return nil
	}
	if limit <= 0 || limit > models.MaxSubjectSample {
		limit = models.MaxSubjectSample
	}

	records, err := s.sampler.FindSample(ctx, filter, limit)
	if err != nil {
		logger.Warnf("Subject sample lookup failed: %v", err)
		return nil
	}

	sample := make([]string, 0, len(records))
	for _, rec := range records {
		if identity := rec.Identity(); identity != "" {
			sample = append(sample, identity)
		}
		if len(sample) >= limit {
			break
		}
	}
	return sample
}

func (s *InstrumentedStore) report(kind models.OperationKind, descriptor string, deleted int64, sample []string) {
	if deleted <= 0 {
		return
	}
	s.monitor.Observe(&models.DeletionEvent{
		OperationKind:    kind,
		FilterDescriptor: descriptor,
		DeletedCount:     deleted,
		SubjectSample:    sample,
		OccurredAt:       s.monitor.now(),
	})
}
