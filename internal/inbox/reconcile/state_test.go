package reconcile

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func email(id string, status domain.Status, minutes int) domain.InboxItem {
	return domain.InboxItem{
		ID:         id,
		FamilyID:   "fam",
		Source:     domain.SourceEmail,
		Status:     status,
		ReceivedAt: base.Add(time.Duration(minutes) * time.Minute),
	}
}

func sms(id string, status domain.Status, minutes int) domain.InboxItem {
	item := email(id, status, minutes)
	item.Source = domain.SourceSMS
	return item
}

func doc(id string, status domain.Status, minutes int) domain.InboxItem {
	item := email(id, status, minutes)
	item.Source = domain.SourceDocument
	return item
}

func classified(item domain.InboxItem) domain.InboxItem {
	item.Status = domain.StatusProcessed
	item.Summary = "summary of " + item.ID
	item.AIAnalysis = &domain.AIAnalysis{Summary: item.Summary, Category: "general"}
	return item
}

func batch(c domain.Collection, items ...domain.InboxItem) domain.Batch {
	return domain.Batch{Collection: c, Items: items}
}

func find(t *testing.T, items []domain.InboxItem, key domain.ItemKey) domain.InboxItem {
	t.Helper()
	for _, item := range items {
		if item.Key() == key {
			return item
		}
	}
	t.Fatalf("item %s not found", key)
	return domain.InboxItem{}
}

func TestMerge_OrdersNewestFirstAcrossSources(t *testing.T) {
	s := NewState()

	s.Merge(batch(domain.CollectionEmails, email("e1", domain.StatusPending, 1), email("e2", domain.StatusPending, 5)))
	s.Merge(batch(domain.CollectionMessages, sms("s1", domain.StatusPending, 3)))
	res := s.Merge(batch(domain.CollectionDocuments, doc("d1", domain.StatusPending, 4), doc("d0", domain.StatusPending, -100000000)))

	ids := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"e2", "d1", "s1", "e1", "d0"}, ids)
}

func TestMerge_InvalidDatesSortOldest(t *testing.T) {
	s := NewState()
	undated := email("undated", domain.StatusPending, 0)
	undated.ReceivedAt = domain.Epoch

	res := s.Merge(batch(domain.CollectionEmails, undated, email("dated", domain.StatusPending, 0)))

	require.Len(t, res.Items, 2)
	assert.Equal(t, "undated", res.Items[1].ID)
}

func TestMerge_ReplacesPartition(t *testing.T) {
	s := NewState()
	s.Merge(batch(domain.CollectionEmails, email("e1", domain.StatusPending, 1), email("e2", domain.StatusPending, 2)))

	res := s.Merge(batch(domain.CollectionEmails, email("e2", domain.StatusPending, 2)))

	require.Len(t, res.Items, 1)
	assert.Equal(t, "e2", res.Items[0].ID)
}

func TestMerge_DedupesWithinBatch(t *testing.T) {
	s := NewState()
	first := email("e1", domain.StatusPending, 1)
	second := classified(email("e1", domain.StatusPending, 1))

	res := s.Merge(batch(domain.CollectionEmails, first, second))

	require.Len(t, res.Items, 1)
	assert.Equal(t, domain.StatusProcessed, res.Items[0].Status)
}

func TestMerge_SameIDInDifferentCollectionsIsDistinct(t *testing.T) {
	s := NewState()
	s.Merge(batch(domain.CollectionEmails, email("x", domain.StatusPending, 1)))
	res := s.Merge(batch(domain.CollectionMessages, sms("x", domain.StatusPending, 2)))

	assert.Len(t, res.Items, 2)
}

func TestMerge_PendingWithActionsBecomesProcessed(t *testing.T) {
	// Scenario A
	s := NewState()
	e1 := email("E1", domain.StatusPending, 0)
	e1.SuggestedActions = []domain.SuggestedAction{{Type: domain.ActionTask, Title: "Reply to school", Status: domain.ActionPending}}

	res := s.Merge(batch(domain.CollectionEmails, e1))

	got := find(t, res.Items, e1.Key())
	assert.Equal(t, domain.StatusProcessed, got.Status)
	assert.Empty(t, res.Eligible)
}

func TestMerge_PendingWithAnalysisBecomesProcessed(t *testing.T) {
	s := NewState()
	e := email("e", domain.StatusPending, 0)
	e.AIAnalysis = &domain.AIAnalysis{Category: "medical"}

	res := s.Merge(batch(domain.CollectionEmails, e))

	assert.Equal(t, domain.StatusProcessed, find(t, res.Items, e.Key()).Status)
}

func TestMerge_ProcessingItemKeepsInMemoryCopy(t *testing.T) {
	// Scenario B
	s := NewState()
	s1 := sms("S1", domain.StatusPending, 0)
	s.Merge(batch(domain.CollectionMessages, s1))

	_, ok := s.BeginProcessing(s1.Key())
	require.True(t, ok)

	incoming := sms("S1", domain.StatusPending, 0)
	incoming.Content.Body = "changed on server"
	res := s.Merge(batch(domain.CollectionMessages, incoming))

	got := find(t, res.Items, s1.Key())
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Empty(t, got.Content.Body)
	assert.Empty(t, res.Eligible)
}

func TestMerge_ProcessingItemSurvivesPartitionReplace(t *testing.T) {
	s := NewState()
	s.Merge(batch(domain.CollectionMessages, sms("S1", domain.StatusPending, 0)))
	_, ok := s.BeginProcessing(domain.ItemKey{Collection: domain.CollectionMessages, ID: "S1"})
	require.True(t, ok)

	res := s.Merge(batch(domain.CollectionMessages))

	assert.Len(t, res.Items, 1)
}

func TestMerge_StalePendingDoesNotDowngradeProcessed(t *testing.T) {
	s := NewState()
	done := classified(email("e1", domain.StatusPending, 0))
	s.Merge(batch(domain.CollectionEmails, done))

	stale := email("e1", domain.StatusPending, 0)
	res := s.Merge(batch(domain.CollectionEmails, stale))

	got := find(t, res.Items, stale.Key())
	assert.Equal(t, domain.StatusProcessed, got.Status)
	require.NotNil(t, got.AIAnalysis)
	assert.Equal(t, done.Summary, got.Summary)
	assert.Empty(t, res.Eligible)
}

func TestMerge_LocallyProcessedSurvivesStaleRead(t *testing.T) {
	s := NewState()
	e := email("e1", domain.StatusPending, 0)
	s.Merge(batch(domain.CollectionEmails, e))

	_, ok := s.BeginProcessing(e.Key())
	require.True(t, ok)
	s.ApplyLocal(classified(e))
	s.FinishProcessing(e.Key())

	// Server still returns the pre-write copy, with a stale processing status.
	stale := email("e1", domain.StatusProcessing, 0)
	res := s.Merge(batch(domain.CollectionEmails, stale))
	assert.Equal(t, domain.StatusProcessed, find(t, res.Items, e.Key()).Status)
	assert.Empty(t, res.Eligible)

	// Server confirms; the local flag is released and server data wins.
	confirmed := classified(e)
	confirmed.Summary = "server summary"
	res = s.Merge(batch(domain.CollectionEmails, confirmed))
	assert.Equal(t, "server summary", find(t, res.Items, e.Key()).Summary)

	// Later pushes are no longer protected by the local flag.
	res = s.Merge(batch(domain.CollectionEmails))
	assert.Empty(t, res.Items)
}

func TestMerge_LocallyPartialSurvivesStaleRead(t *testing.T) {
	s := NewState()
	d := doc("D1", domain.StatusPending, 0)
	s.Merge(batch(domain.CollectionDocuments, d))

	_, ok := s.BeginProcessing(d.Key())
	require.True(t, ok)
	partial := classified(d)
	partial.Status = domain.StatusPartial
	s.ApplyLocal(partial)
	s.FinishProcessing(d.Key())

	res := s.Merge(batch(domain.CollectionDocuments, doc("D1", domain.StatusPending, 0)))

	got := find(t, res.Items, d.Key())
	assert.Equal(t, domain.StatusPartial, got.Status)
	assert.Equal(t, partial.Summary, got.Summary)
	assert.Empty(t, res.Eligible)
}

func TestMerge_StalePendingKeepsPartialStatus(t *testing.T) {
	s := NewState()
	done := classified(doc("D1", domain.StatusPending, 0))
	done.Status = domain.StatusPartial
	s.Merge(batch(domain.CollectionDocuments, done))

	res := s.Merge(batch(domain.CollectionDocuments, doc("D1", domain.StatusPending, 0)))

	got := find(t, res.Items, done.Key())
	assert.Equal(t, domain.StatusPartial, got.Status)
	require.NotNil(t, got.AIAnalysis)
	assert.Empty(t, res.Eligible)
}

func TestMerge_ReleasesLocallyProcessedItemDeletedOnServer(t *testing.T) {
	s := NewState()
	e := email("e1", domain.StatusPending, 0)
	s.Merge(batch(domain.CollectionEmails, e))

	_, ok := s.BeginProcessing(e.Key())
	require.True(t, ok)
	s.ApplyLocal(classified(e))
	s.FinishProcessing(e.Key())

	res := s.Merge(batch(domain.CollectionEmails))
	assert.Empty(t, res.Items)

	// A re-created record with the same id is classified again.
	res = s.Merge(batch(domain.CollectionEmails, email("e1", domain.StatusPending, 5)))
	assert.Equal(t, []domain.ItemKey{e.Key()}, res.Eligible)
}

func TestMerge_SelfHealsProcessedWithoutData(t *testing.T) {
	s := NewState()
	hollow := email("e1", domain.StatusProcessed, 0)

	res := s.Merge(batch(domain.CollectionEmails, hollow))

	got := find(t, res.Items, hollow.Key())
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, []domain.ItemKey{hollow.Key()}, res.Eligible)
}

func TestMerge_EligibleIsDiffBased(t *testing.T) {
	s := NewState()
	e1 := email("e1", domain.StatusPending, 1)
	e2 := classified(email("e2", domain.StatusPending, 2))
	archived := email("e3", domain.StatusPending, 3)
	archived.Archived = true

	res := s.Merge(batch(domain.CollectionEmails, e1, e2, archived))
	assert.Equal(t, []domain.ItemKey{e1.Key()}, res.Eligible)

	res = s.Merge(batch(domain.CollectionEmails, e1, e2, archived))
	assert.Empty(t, res.Eligible, "re-delivery does not re-enqueue")

	failed := e1
	failed.Status = domain.StatusError
	failed.Summary = domain.AnalysisFailedSummary
	res = s.Merge(batch(domain.CollectionEmails, failed, e2, archived))
	assert.Equal(t, []domain.ItemKey{e1.Key()}, res.Eligible, "status transition re-enters the queue")

	res = s.Merge(batch(domain.CollectionEmails, failed, e2, archived))
	assert.Empty(t, res.Eligible, "a failure repeated by the server is not a retry storm")
}

func TestMerge_EligibleFollowsListOrder(t *testing.T) {
	s := NewState()
	res := s.Merge(batch(domain.CollectionEmails,
		email("old", domain.StatusPending, 1),
		email("new", domain.StatusPending, 9),
		email("mid", domain.StatusPending, 5),
	))

	require.Len(t, res.Eligible, 3)
	assert.Equal(t, "new", res.Eligible[0].ID)
	assert.Equal(t, "mid", res.Eligible[1].ID)
	assert.Equal(t, "old", res.Eligible[2].ID)
}

func TestMerge_IdempotentUnderInterleaving(t *testing.T) {
	batches := []domain.Batch{
		batch(domain.CollectionEmails, email("e1", domain.StatusPending, 1), classified(email("e2", domain.StatusPending, 2))),
		batch(domain.CollectionMessages, sms("s1", domain.StatusPending, 3), sms("s1", domain.StatusPending, 3)),
		batch(domain.CollectionDocuments, doc("d1", domain.StatusProcessed, 4), classified(doc("d2", domain.StatusPending, 4))),
	}

	var reference []domain.InboxItem
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		s := NewState()
		order := rng.Perm(len(batches))
		var last MergeResult
		for _, i := range order {
			last = s.Merge(batches[i])
		}
		// Re-delivering any batch leaves the list unchanged.
		again := s.Merge(batches[order[0]])
		assert.Equal(t, last.Items, again.Items, fmt.Sprintf("round %d", round))
		assert.Empty(t, again.Eligible)

		seen := map[domain.ItemKey]bool{}
		for _, item := range again.Items {
			require.False(t, seen[item.Key()], "duplicate %s", item.Key())
			seen[item.Key()] = true
		}
		if reference == nil {
			reference = again.Items
			continue
		}
		assert.Equal(t, reference, again.Items)
	}
	assert.Len(t, reference, 5)
}

func TestBeginProcessing_AtMostOnce(t *testing.T) {
	s := NewState()
	e := email("e1", domain.StatusPending, 0)
	s.Merge(batch(domain.CollectionEmails, e))

	_, first := s.BeginProcessing(e.Key())
	_, second := s.BeginProcessing(e.Key())
	_, retry := s.BeginRetry(e.Key())

	assert.True(t, first)
	assert.False(t, second)
	assert.False(t, retry)
	assert.True(t, s.IsProcessing(e.Key()))
	assert.Equal(t, 1, s.InFlight())

	s.FinishProcessing(e.Key())
	assert.False(t, s.IsProcessing(e.Key()))
}

func TestBeginProcessing_Guards(t *testing.T) {
	s := NewState()
	done := classified(email("done", domain.StatusPending, 0))
	archived := email("arch", domain.StatusPending, 1)
	archived.Archived = true
	s.Merge(batch(domain.CollectionEmails, done, archived))

	_, ok := s.BeginProcessing(domain.ItemKey{Collection: domain.CollectionEmails, ID: "missing"})
	assert.False(t, ok)
	_, ok = s.BeginProcessing(done.Key())
	assert.False(t, ok, "already classified")
	_, ok = s.BeginProcessing(archived.Key())
	assert.False(t, ok, "archived")

	_, ok = s.BeginRetry(done.Key())
	assert.True(t, ok, "manual retry ignores classification")
}

func TestActive_HidesArchived(t *testing.T) {
	s := NewState()
	archived := email("a", domain.StatusPending, 0)
	archived.Archived = true
	s.Merge(batch(domain.CollectionEmails, archived, email("b", domain.StatusPending, 1)))

	assert.Len(t, s.Items(), 2)
	active := s.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)
}
