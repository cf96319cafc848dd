package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/services"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

// Classifier analyzes one inbox item.
type Classifier interface {
	Classify(ctx context.Context, item domain.InboxItem) (*services.Result, error)
}

// ClassifyItemHandler classifies an item and writes the outcome back to
// the item's own record. It is the processor driven by the scheduler.
type ClassifyItemHandler struct {
	store      domain.ItemStore
	classifier Classifier
	publisher  eventbus.Publisher
	logger     *slog.Logger
	metrics    observability.Metrics
	now        func() time.Time
}

// NewClassifyItemHandler creates the handler. Publisher, logger and
// metrics may be nil.
func NewClassifyItemHandler(store domain.ItemStore, classifier Classifier, publisher eventbus.Publisher, logger *slog.Logger, metrics observability.Metrics) *ClassifyItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ClassifyItemHandler{
		store:      store,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Process classifies the item. A classification failure is recorded on the
// item, which is returned together with the error. When nothing could be
// written the returned item is empty.
func (h *ClassifyItemHandler) Process(ctx context.Context, item domain.InboxItem) (domain.InboxItem, error) {
	logger := h.logger.With(
		observability.CollectionKey, string(item.Key().Collection),
		observability.ItemIDKey, item.ID,
	)
	started := h.now()
	result, err := h.classifier.Classify(ctx, item)
	h.metrics.Timing(observability.MetricClassifyLatency, h.now().Sub(started))
	if err != nil {
		return h.recordFailure(ctx, item, err, logger)
	}

	var patch domain.Patch
	patch.Status(result.Status).
		Summary(result.Summary).
		Analysis(result.Analysis).
		SuggestedActions(result.Actions).
		ClearError().
		AttemptedAt(h.now().UTC())
	if err := h.store.Update(ctx, item.Key(), patch); err != nil {
		h.metrics.Counter(observability.MetricClassifyFailed, 1, observability.T("reason", "write"))
		return domain.InboxItem{}, fmt.Errorf("write classification of %s: %w", item.Key(), err)
	}

	updated := patch.ApplyToItem(item)
	h.metrics.Counter(observability.MetricClassifications, 1, observability.T("mode", string(result.Mode)))
	logger.InfoContext(ctx, "inbox item classified",
		"mode", string(result.Mode),
		"status", string(updated.Status),
		"actions", len(updated.SuggestedActions),
	)
	h.publish(ctx, domain.NewItemClassified(updated), logger)
	return updated, nil
}

// recordFailure writes the failure marker. The write uses a context that
// survives the per-item timeout so a hung completion still leaves a record.
func (h *ClassifyItemHandler) recordFailure(ctx context.Context, item domain.InboxItem, cause error, logger *slog.Logger) (domain.InboxItem, error) {
	h.metrics.Counter(observability.MetricClassifyFailed, 1, observability.T("reason", "classify"))

	var patch domain.Patch
	patch.Status(domain.StatusError).
		Summary(domain.AnalysisFailedSummary).
		Analysis(nil).
		SuggestedActions(nil).
		Error(cause.Error()).
		AttemptedAt(h.now().UTC())

	writeCtx := context.WithoutCancel(ctx)
	if err := h.store.Update(writeCtx, item.Key(), patch); err != nil {
		logger.ErrorContext(ctx, "failed to record classification failure", observability.ErrorKey, err)
		return domain.InboxItem{}, fmt.Errorf("classify %s: %w (failure not recorded: %v)", item.Key(), cause, err)
	}

	updated := patch.ApplyToItem(item)
	h.publish(writeCtx, domain.NewClassificationFailed(updated, cause.Error()), logger)
	return updated, fmt.Errorf("classify %s: %w", item.Key(), cause)
}

func (h *ClassifyItemHandler) publish(ctx context.Context, event shared.DomainEvent, logger *slog.Logger) {
	if h.publisher == nil {
		return
	}
	if err := eventbus.PublishEvent(ctx, h.publisher, event); err != nil {
		logger.WarnContext(ctx, "failed to publish inbox event", "routing_key", event.RoutingKey(), observability.ErrorKey, err)
		return
	}
	h.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey()))
}
