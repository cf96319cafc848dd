package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/application/commands"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/persistence"
	"github.com/felixgeelhaar/allie/internal/inbox/reconcile"
	"github.com/felixgeelhaar/allie/internal/inbox/scheduler"
	"github.com/felixgeelhaar/allie/internal/inbox/services"
	"github.com/felixgeelhaar/allie/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	mu   sync.Mutex
	keys []domain.ItemKey
}

func (e *recordingEnqueuer) Enqueue(ctx context.Context, keys []domain.ItemKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, keys...)
}

func (e *recordingEnqueuer) snapshot() []domain.ItemKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.ItemKey(nil), e.keys...)
}

func create(t *testing.T, store *persistence.MemoryItemStore, collection domain.Collection, id string, data map[string]any) {
	t.Helper()
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["familyId"]; !ok {
		data["familyId"] = "fam-1"
	}
	require.NoError(t, store.Create(context.Background(), collection, domain.RawRecord{ID: id, Data: data}))
}

func TestFeedWorker_LoadMergesEveryCollection(t *testing.T) {
	store := persistence.NewMemoryItemStore()
	create(t, store, domain.CollectionDocuments, "d1", map[string]any{"fileName": "menu.pdf", "status": "pending"})
	create(t, store, domain.CollectionEmails, "e1", map[string]any{"subject": "Hi", "status": "processed", "summary": "done"})
	create(t, store, domain.CollectionMessages, "s1", map[string]any{"body": "pick up at 3", "status": "pending"})
	create(t, store, domain.CollectionMessages, "s2", map[string]any{"body": "other family", "familyId": "fam-2"})

	state := reconcile.NewState()
	enq := &recordingEnqueuer{}
	metrics := observability.NewInMemoryMetrics()
	w := NewFeedWorker("fam-1", store, state, enq, nil, metrics)

	assert.False(t, w.Ready())
	require.NoError(t, w.Load(context.Background()))
	assert.True(t, w.Ready())

	assert.Len(t, state.Items(), 3)
	assert.ElementsMatch(t, []domain.ItemKey{
		{Collection: domain.CollectionDocuments, ID: "d1"},
		{Collection: domain.CollectionMessages, ID: "s1"},
	}, enq.snapshot())
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricMerges, observability.T("collection", string(domain.CollectionEmails))))
}

func TestFeedWorker_ApplyEnqueuesOnlyNewlyEligible(t *testing.T) {
	state := reconcile.NewState()
	enq := &recordingEnqueuer{}
	w := NewFeedWorker("fam-1", persistence.NewMemoryItemStore(), state, enq, nil, nil)
	ctx := context.Background()

	pending := domain.InboxItem{ID: "e1", Source: domain.SourceEmail, Status: domain.StatusPending}
	batch := domain.Batch{Collection: domain.CollectionEmails, Items: []domain.InboxItem{pending}}

	first := w.Apply(ctx, batch)
	assert.Len(t, first.Eligible, 1)
	second := w.Apply(ctx, batch)
	assert.Empty(t, second.Eligible)
	assert.Len(t, enq.snapshot(), 1)
}

func TestFeedWorker_WithoutSchedulerOnlyTracksState(t *testing.T) {
	state := reconcile.NewState()
	w := NewFeedWorker("fam-1", persistence.NewMemoryItemStore(), state, nil, nil, nil)

	res := w.Apply(context.Background(), domain.Batch{
		Collection: domain.CollectionEmails,
		Items:      []domain.InboxItem{{ID: "e1", Source: domain.SourceEmail, Status: domain.StatusPending}},
	})
	assert.Len(t, res.Eligible, 1)
	assert.Len(t, state.Items(), 1)
}

func TestFeedWorker_RunStopsOnCancel(t *testing.T) {
	store := persistence.NewMemoryItemStore()
	w := NewFeedWorker("fam-1", store, reconcile.NewState(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, w.Ready, time.Second, 5*time.Millisecond)
	assert.True(t, w.IsRunning())
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("feed did not stop")
	}
	assert.False(t, w.IsRunning())
}

type stubClassifier struct {
	mu    sync.Mutex
	calls int
}

func (c *stubClassifier) Classify(ctx context.Context, item domain.InboxItem) (*services.Result, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &services.Result{
		Mode:    services.ModeMessage,
		Status:  domain.StatusProcessed,
		Summary: "Pickup moved to 3pm",
		Actions: []domain.SuggestedAction{{Type: domain.ActionTask, Title: "Pick up Emma", Status: domain.ActionPending}},
	}, nil
}

func (c *stubClassifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// A new record flows through subscription, classification and write-back,
// and the written result does not trigger a second classification.
func TestFeedWorker_ClassifiesNewRecordsOnce(t *testing.T) {
	store := persistence.NewMemoryItemStore()
	state := reconcile.NewState()
	classifier := &stubClassifier{}
	processor := commands.NewClassifyItemHandler(store, classifier, nil, nil, nil)
	sched := scheduler.New(state, processor, nil, scheduler.Config{}, nil, nil)
	w := NewFeedWorker("fam-1", store, state, sched, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	require.Eventually(t, w.Ready, time.Second, 5*time.Millisecond)

	create(t, store, domain.CollectionMessages, "s1", map[string]any{
		"body":       "Pickup moved to 3pm for Emma",
		"from":       "+15551234567",
		"receivedAt": "2025-03-10T08:00:00Z",
		"status":     "pending",
	})
	key := domain.ItemKey{Collection: domain.CollectionMessages, ID: "s1"}

	require.Eventually(t, func() bool {
		item, ok := state.Get(key)
		return ok && item.Status == domain.StatusProcessed && !state.IsProcessing(key)
	}, 2*time.Second, 10*time.Millisecond)

	sched.Wait()
	stored, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "Pickup moved to 3pm", stored.Summary)
	require.Len(t, stored.SuggestedActions, 1)

	time.Sleep(50 * time.Millisecond)
	sched.Wait()
	assert.Equal(t, 1, classifier.count())
}
