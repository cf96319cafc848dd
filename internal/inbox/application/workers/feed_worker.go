// Package workers runs the live inbox: store subscriptions feed the
// reconciled state, and newly eligible items go to the scheduler.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/reconcile"
	"github.com/felixgeelhaar/allie/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// Enqueuer accepts items for classification.
type Enqueuer interface {
	Enqueue(ctx context.Context, keys []domain.ItemKey)
}

// FeedWorker keeps the reconciled inbox in step with the store.
type FeedWorker struct {
	familyID  string
	store     domain.ItemStore
	state     *reconcile.State
	scheduler Enqueuer
	logger    *slog.Logger
	metrics   observability.Metrics

	running   atomic.Bool
	mu        sync.Mutex
	delivered map[domain.Collection]bool
}

// NewFeedWorker creates the worker. A nil scheduler disables automatic
// classification; the feed still keeps the state current.
func NewFeedWorker(familyID string, store domain.ItemStore, state *reconcile.State, scheduler Enqueuer, logger *slog.Logger, metrics observability.Metrics) *FeedWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &FeedWorker{
		familyID:  familyID,
		store:     store,
		state:     state,
		scheduler: scheduler,
		logger:    logger,
		metrics:   metrics,
		delivered: make(map[domain.Collection]bool),
	}
}

// Run subscribes to every source collection and blocks until ctx is done
// or a subscription fails.
func (w *FeedWorker) Run(ctx context.Context) error {
	w.running.Store(true)
	defer w.running.Store(false)
	w.logger.InfoContext(ctx, "inbox feed started", observability.FamilyIDKey, w.familyID, "auto_process", w.scheduler != nil)

	g, gctx := errgroup.WithContext(ctx)
	for _, collection := range domain.Collections {
		g.Go(func() error {
			err := w.store.Subscribe(gctx, w.familyID, collection, func(batch domain.Batch) {
				w.Apply(gctx, batch)
			})
			if err != nil {
				return fmt.Errorf("subscribe %s: %w", collection, err)
			}
			return nil
		})
	}
	err := g.Wait()
	w.logger.InfoContext(ctx, "inbox feed stopped")
	return err
}

// Load reads every collection once. Used when no live subscription runs.
func (w *FeedWorker) Load(ctx context.Context) error {
	for _, collection := range domain.Collections {
		items, err := w.store.List(ctx, w.familyID, collection)
		if err != nil {
			return fmt.Errorf("load %s: %w", collection, err)
		}
		w.Apply(ctx, domain.Batch{Collection: collection, Items: items})
	}
	return nil
}

// Apply merges one batch and hands newly eligible items to the scheduler.
func (w *FeedWorker) Apply(ctx context.Context, batch domain.Batch) reconcile.MergeResult {
	result := w.state.Merge(batch)

	w.mu.Lock()
	w.delivered[batch.Collection] = true
	w.mu.Unlock()

	tag := observability.T("collection", string(batch.Collection))
	w.metrics.Counter(observability.MetricMerges, 1, tag)
	w.metrics.Gauge(observability.MetricItemsVisible, float64(len(w.state.Active())))
	w.logger.DebugContext(ctx, "inbox batch merged",
		observability.CollectionKey, string(batch.Collection),
		"size", len(batch.Items),
		"eligible", len(result.Eligible),
	)

	if w.scheduler != nil && len(result.Eligible) > 0 {
		w.scheduler.Enqueue(ctx, result.Eligible)
	}
	return result
}

// Ready reports whether every collection has been delivered at least once.
func (w *FeedWorker) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range domain.Collections {
		if !w.delivered[c] {
			return false
		}
	}
	return true
}

// IsRunning reports whether Run is active.
func (w *FeedWorker) IsRunning() bool {
	return w.running.Load()
}
