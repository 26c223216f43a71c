package window

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRetention is how long expired buckets are kept before a sweep
// removes them.
const DefaultRetention = 24 * time.Hour

type bucket struct {
	count atomic.Int64
	end   time.Time
}

// Counter accumulates deletion counts into calendar hour and day buckets.
// Buckets are created lazily on first increment and evicted by Sweep once
// their range has been closed for longer than the retention window.
type Counter struct {
	buckets   sync.Map // bucket key -> *bucket
	total     atomic.Int64
	retention time.Duration
	now       func() time.Time
}

// NewCounter creates a counter with the given retention. A non-positive
// retention falls back to DefaultRetention.
func NewCounter(retention time.Duration) *Counter {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Counter{
		retention: retention,
		now:       time.Now,
	}
}

// HourKey returns the calendar-hour bucket key for t using the local clock.
func HourKey(t time.Time) string {
	return t.Format("2006-01-02-15")
}

// DayKey returns the calendar-day bucket key for t using the local clock.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func hourEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
}

func dayEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

// Increment adds amount to the hourly and daily buckets covering occurredAt
// and to the process-lifetime total. Safe for concurrent use.
func (c *Counter) Increment(occurredAt time.Time, amount int64) {
	if amount <= 0 {
		return
	}
	c.add(HourKey(occurredAt), hourEnd(occurredAt), amount)
	c.add(DayKey(occurredAt), dayEnd(occurredAt), amount)
	c.total.Add(amount)
}

func (c *Counter) add(key string, end time.Time, amount int64) {
	b, _ := c.buckets.LoadOrStore(key, &bucket{end: end})
	b.(*bucket).count.Add(amount)
}

// CurrentHourly returns the count for the hour bucket covering now.
func (c *Counter) CurrentHourly() int64 {
	return c.load(HourKey(c.now()))
}

// CurrentDaily returns the count for the day bucket covering now.
func (c *Counter) CurrentDaily() int64 {
	return c.load(DayKey(c.now()))
}

// Total returns the count accumulated since process start.
func (c *Counter) Total() int64 {
	return c.total.Load()
}

func (c *Counter) load(key string) int64 {
	if b, ok := c.buckets.Load(key); ok {
		return b.(*bucket).count.Load()
	}
	return 0
}

// Sweep removes buckets whose range ended more than the retention window
// before now, and returns how many were removed. Live buckets stay untouched,
// so concurrent increments on them are never lost. Idempotent.
func (c *Counter) Sweep(now time.Time) int {
	cutoff := now.Add(-c.retention)
	removed := 0
	c.buckets.Range(func(key, value any) bool {
		if value.(*bucket).end.Before(cutoff) {
			c.buckets.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// SetNow overrides the clock. Test hook.
func (c *Counter) SetNow(now func() time.Time) {
	c.now = now
}
