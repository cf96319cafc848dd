package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// RetryBudget bounds automatic classification attempts per item.
type RetryBudget interface {
	// Allow reports whether an automatic attempt may start now.
	Allow(ctx context.Context, key domain.ItemKey) (bool, error)
	// RecordFailure counts a failed attempt. It returns how long to wait
	// before the next automatic attempt and whether the budget is spent.
	RecordFailure(ctx context.Context, key domain.ItemKey) (time.Duration, bool, error)
	// Reset clears the history of an item, on success or manual retry.
	Reset(ctx context.Context, key domain.ItemKey) error
}

// Backoff is an exponential backoff policy with an attempt cap.
type Backoff struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

// DefaultBackoff allows three attempts, 30s apart and doubling.
func DefaultBackoff() Backoff {
	return Backoff{MaxAttempts: 3, Base: 30 * time.Second, Max: 15 * time.Minute}
}

// Delay returns the wait after the given number of failures.
func (b Backoff) Delay(failures int) time.Duration {
	if failures < 1 {
		return 0
	}
	d := b.Base
	for i := 1; i < failures; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

type attemptRecord struct {
	failures  int
	notBefore time.Time
}

// MemoryBudget keeps retry history in process memory.
type MemoryBudget struct {
	policy Backoff
	now    func() time.Time

	mu      sync.Mutex
	records map[domain.ItemKey]attemptRecord
}

// NewMemoryBudget creates an in-memory budget.
func NewMemoryBudget(policy Backoff) *MemoryBudget {
	return &MemoryBudget{
		policy:  policy,
		now:     time.Now,
		records: make(map[domain.ItemKey]attemptRecord),
	}
}

func (b *MemoryBudget) Allow(_ context.Context, key domain.ItemKey) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[key]
	if !ok {
		return true, nil
	}
	if rec.failures >= b.policy.MaxAttempts {
		return false, nil
	}
	return !b.now().Before(rec.notBefore), nil
}

func (b *MemoryBudget) RecordFailure(_ context.Context, key domain.ItemKey) (time.Duration, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec := b.records[key]
	rec.failures++
	delay := b.policy.Delay(rec.failures)
	rec.notBefore = b.now().Add(delay)
	b.records[key] = rec
	return delay, rec.failures >= b.policy.MaxAttempts, nil
}

func (b *MemoryBudget) Reset(_ context.Context, key domain.ItemKey) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, key)
	return nil
}
