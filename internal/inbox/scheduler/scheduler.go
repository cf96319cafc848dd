// Package scheduler submits unclassified inbox items to classification,
// staggering submissions and bounding automatic retries.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/reconcile"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

// ErrInFlight is returned when a manual retry targets an item already being classified.
var ErrInFlight = errors.New("inbox item is already being processed")

// retrySlack is added to backoff delays so the automatic attempt lands after the cooldown expires.
const retrySlack = 50 * time.Millisecond

// Processor classifies one item and returns it as written back to the store.
// On failure it still returns the item carrying the failure record when one was written.
type Processor interface {
	Process(ctx context.Context, item domain.InboxItem) (domain.InboxItem, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, item domain.InboxItem) (domain.InboxItem, error)

func (f ProcessorFunc) Process(ctx context.Context, item domain.InboxItem) (domain.InboxItem, error) {
	return f(ctx, item)
}

// Config tunes the scheduler.
type Config struct {
	// Stagger is the delay between consecutive submissions of one batch.
	Stagger time.Duration
	// ItemTimeout bounds a single classification. Zero disables it.
	ItemTimeout time.Duration
}

// DefaultConfig staggers by one second and times items out after two minutes.
func DefaultConfig() Config {
	return Config{Stagger: time.Second, ItemTimeout: 2 * time.Minute}
}

// Scheduler feeds eligible items to the processor.
type Scheduler struct {
	state     *reconcile.State
	processor Processor
	budget    RetryBudget
	cfg       Config
	logger    *slog.Logger
	metrics   observability.Metrics

	wg sync.WaitGroup
}

// New creates a scheduler. A nil budget falls back to an in-memory budget
// with DefaultBackoff; nil logger and metrics fall back to defaults.
func New(state *reconcile.State, processor Processor, budget RetryBudget, cfg Config, logger *slog.Logger, metrics observability.Metrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if budget == nil {
		budget = NewMemoryBudget(DefaultBackoff())
	}
	return &Scheduler{
		state:     state,
		processor: processor,
		budget:    budget,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Enqueue submits keys in order: the first immediately, the i-th after
// i times the stagger delay. It does not block.
func (s *Scheduler) Enqueue(ctx context.Context, keys []domain.ItemKey) {
	for i, key := range keys {
		s.spawn(ctx, key, time.Duration(i)*s.cfg.Stagger)
	}
}

// Wait blocks until every submission started so far has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) spawn(ctx context.Context, key domain.ItemKey, delay time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if !sleep(ctx, delay) {
			return
		}
		s.runAutomatic(ctx, key)
	}()
}

func (s *Scheduler) runAutomatic(ctx context.Context, key domain.ItemKey) {
	logger := s.logger.With(observability.CollectionKey, string(key.Collection), observability.ItemIDKey, key.ID)

	allowed, err := s.budget.Allow(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "retry budget unavailable, allowing attempt", "error", err)
		allowed = true
	}
	if !allowed {
		s.metrics.Counter(observability.MetricClassifySkipped, 1, observability.T("reason", "budget"))
		logger.DebugContext(ctx, "skipping item, retry budget exhausted or cooling down")
		return
	}

	item, claimed := s.state.BeginProcessing(key)
	if !claimed {
		s.metrics.Counter(observability.MetricClassifySkipped, 1, observability.T("reason", "claimed"))
		return
	}

	if _, err := s.run(ctx, key, item); err == nil {
		if rerr := s.budget.Reset(ctx, key); rerr != nil {
			logger.WarnContext(ctx, "failed to reset retry budget", "error", rerr)
		}
		return
	}

	delay, exhausted, err := s.budget.RecordFailure(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "failed to record classification failure", "error", err)
		return
	}
	if exhausted {
		logger.WarnContext(ctx, "classification keeps failing, waiting for a manual retry")
		return
	}
	if ctx.Err() == nil {
		logger.InfoContext(ctx, "scheduling classification retry", "delay", delay.String())
		s.spawn(ctx, key, delay+retrySlack)
	}
}

// Retry classifies an item now on behalf of a user, whatever its current
// state, and resets its retry budget.
func (s *Scheduler) Retry(ctx context.Context, key domain.ItemKey) (domain.InboxItem, error) {
	if err := s.budget.Reset(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to reset retry budget", "item_id", key.ID, "error", err)
	}
	item, claimed := s.state.BeginRetry(key)
	if !claimed {
		if s.state.IsProcessing(key) {
			return domain.InboxItem{}, ErrInFlight
		}
		return domain.InboxItem{}, domain.ErrItemNotFound
	}
	return s.run(ctx, key, item)
}

// run classifies a claimed item. The claim is released however the call ends.
func (s *Scheduler) run(ctx context.Context, key domain.ItemKey, item domain.InboxItem) (domain.InboxItem, error) {
	defer func() {
		s.state.FinishProcessing(key)
		s.metrics.Gauge(observability.MetricInFlight, float64(s.state.InFlight()))
	}()
	s.metrics.Gauge(observability.MetricInFlight, float64(s.state.InFlight()))

	runCtx := ctx
	if s.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.ItemTimeout)
		defer cancel()
	}

	updated, err := s.processor.Process(runCtx, item)
	if updated.ID != "" {
		s.state.ApplyLocal(updated)
	} else {
		// Nothing was written; drop the local processing marker.
		s.state.ApplyLocal(item)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "classification failed",
			observability.CollectionKey, string(key.Collection),
			observability.ItemIDKey, key.ID,
			"error", err,
		)
	}
	return updated, err
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
