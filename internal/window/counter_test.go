package window

import (
	"sync"
	"testing"
	"time"
)

func TestIncrementAccumulatesIntoHourAndDayBuckets(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)
	c := NewCounter(0)
	c.SetNow(func() time.Time { return base.Add(30 * time.Minute) })

	c.Increment(base, 3)
	c.Increment(base.Add(10*time.Minute), 4)
	c.Increment(base.Add(20*time.Minute), 5)

	if got := c.CurrentHourly(); got != 12 {
		t.Fatalf("expected hourly 12, got %d", got)
	}
	if got := c.CurrentDaily(); got != 12 {
		t.Fatalf("expected daily 12, got %d", got)
	}
	if got := c.Total(); got != 12 {
		t.Fatalf("expected total 12, got %d", got)
	}
}

func TestCurrentReadsBucketCoveringNowNotEventTime(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 59, 0, 0, time.UTC)
	c := NewCounter(0)
	c.Increment(base, 7)

	c.SetNow(func() time.Time { return base.Add(2 * time.Minute) }) // 15:01
	if got := c.CurrentHourly(); got != 0 {
		t.Fatalf("expected empty 15h bucket, got %d", got)
	}
	if got := c.CurrentDaily(); got != 7 {
		t.Fatalf("expected daily 7, got %d", got)
	}
}

func TestSweepRemovesOnlyExpiredBuckets(t *testing.T) {
	old := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	c := NewCounter(0)
	c.SetNow(func() time.Time { return now })
	c.Increment(old, 5)
	c.Increment(fresh, 2)

	removed := c.Sweep(now)
	// The old hour and old day buckets both expired.
	if removed != 2 {
		t.Fatalf("expected 2 buckets removed, got %d", removed)
	}
	if got := c.CurrentHourly(); got != 0 {
		t.Fatalf("expected hourly 0 after sweep (fresh event was 9h), got %d", got)
	}
	c.SetNow(func() time.Time { return fresh })
	if got := c.CurrentHourly(); got != 2 {
		t.Fatalf("expected fresh bucket to survive sweep, got %d", got)
	}
	if got := c.Total(); got != 7 {
		t.Fatalf("total must not shrink on sweep, got %d", got)
	}

	if again := c.Sweep(now); again != 0 {
		t.Fatalf("sweep should be idempotent, removed %d more", again)
	}
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewCounter(0)
	c.SetNow(func() time.Time { return base })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Increment(base, 1)
			}
		}()
	}
	wg.Wait()

	if got := c.CurrentHourly(); got != 5000 {
		t.Fatalf("expected hourly 5000, got %d", got)
	}
	if got := c.Total(); got != 5000 {
		t.Fatalf("expected total 5000, got %d", got)
	}
}

func TestIncrementIgnoresNonPositiveAmounts(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewCounter(0)
	c.SetNow(func() time.Time { return base })

	c.Increment(base, 0)
	c.Increment(base, -3)

	if got := c.Total(); got != 0 {
		t.Fatalf("expected total 0, got %d", got)
	}
}
