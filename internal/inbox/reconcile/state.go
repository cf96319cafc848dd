// Package reconcile owns the canonical in-memory inbox: the merged item list
// and the in-flight and locally-processed sets. Every mutation goes through
// State, so the merge rules are the only code that decides what is visible.
package reconcile

import (
	"sort"
	"sync"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// State is the canonical inbox for one family.
type State struct {
	mu             sync.Mutex
	items          map[domain.ItemKey]domain.InboxItem
	processing     map[domain.ItemKey]struct{}
	localProcessed map[domain.ItemKey]struct{}
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		items:          make(map[domain.ItemKey]domain.InboxItem),
		processing:     make(map[domain.ItemKey]struct{}),
		localProcessed: make(map[domain.ItemKey]struct{}),
	}
}

// MergeResult is the outcome of merging one batch.
type MergeResult struct {
	// Items is the full canonical list, newest first.
	Items []domain.InboxItem
	// Eligible lists items that became eligible for classification with this
	// batch, in list order. Items that were already eligible before the batch
	// are not repeated.
	Eligible []domain.ItemKey
}

// Merge reconciles a full-collection push against the in-memory state.
func (s *State) Merge(batch domain.Batch) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make(map[domain.ItemKey]domain.InboxItem)
	for key, item := range s.items {
		if key.Collection != batch.Collection {
			continue
		}
		previous[key] = item
		if !s.isPinned(key) {
			delete(s.items, key)
		}
	}

	incoming := dedupe(batch)
	seen := make(map[domain.ItemKey]struct{}, len(incoming))
	changed := make([]domain.ItemKey, 0, len(incoming))
	for _, next := range incoming {
		key := domain.ItemKey{Collection: batch.Collection, ID: next.ID}
		seen[key] = struct{}{}
		prev, hadPrev := previous[key]
		merged, keepPrev := s.reconcileOne(key, prev, hadPrev, next)
		if keepPrev {
			s.items[key] = prev
			continue
		}
		s.items[key] = merged
		if becameEligible(prev, hadPrev, merged) {
			changed = append(changed, key)
		}
	}

	s.releaseMissingLocked(previous, seen)

	items := s.sortedLocked()
	eligible := make([]domain.ItemKey, 0, len(changed))
	if len(changed) > 0 {
		want := make(map[domain.ItemKey]struct{}, len(changed))
		for _, k := range changed {
			want[k] = struct{}{}
		}
		for _, item := range items {
			k := item.Key()
			if _, ok := want[k]; ok {
				if _, busy := s.processing[k]; !busy {
					eligible = append(eligible, k)
				}
			}
		}
	}
	return MergeResult{Items: items, Eligible: eligible}
}

// reconcileOne applies the per-item merge rules. It returns keepPrev=true
// when the in-memory copy must win over the incoming one.
func (s *State) reconcileOne(key domain.ItemKey, prev domain.InboxItem, hadPrev bool, next domain.InboxItem) (domain.InboxItem, bool) {
	if _, ok := s.localProcessed[key]; ok {
		if next.Status.IsClassified() && next.HasAIData() {
			// The server caught up with our own write.
			delete(s.localProcessed, key)
			return next, false
		}
		if hadPrev && prev.Status.IsClassified() {
			return prev, true
		}
	}

	if _, ok := s.processing[key]; ok && hadPrev {
		return prev, true
	}

	if hadPrev && prev.Status.IsClassified() && next.Status == domain.StatusPending {
		merged := next.Clone()
		merged.Status = prev.Status
		if !merged.HasAIData() {
			merged.Summary = prev.Summary
			if prev.AIAnalysis != nil {
				a := *prev.AIAnalysis
				merged.AIAnalysis = &a
			}
			merged.SuggestedActions = prev.Clone().SuggestedActions
			merged.AllieActions = prev.Clone().AllieActions
		}
		return selfHeal(merged), false
	}

	if next.Status == domain.StatusPending && (!next.AIAnalysis.IsEmpty() || len(next.SuggestedActions) > 0) {
		merged := next.Clone()
		merged.Status = domain.StatusProcessed
		return merged, false
	}

	return selfHeal(next), false
}

// selfHeal sends a classified status with no classification output back to
// pending so the item is not hidden from processing.
func selfHeal(item domain.InboxItem) domain.InboxItem {
	if item.Status.IsClassified() && !item.HasAIData() {
		item.Status = domain.StatusPending
	}
	return item
}

func becameEligible(prev domain.InboxItem, hadPrev bool, next domain.InboxItem) bool {
	if !next.NeedsClassification() {
		return false
	}
	if !hadPrev {
		return true
	}
	return !prev.NeedsClassification() || prev.Status != next.Status
}

// dedupe keeps the last occurrence of each id within a batch, preserving the
// position of its first occurrence.
func dedupe(batch domain.Batch) []domain.InboxItem {
	index := make(map[string]int, len(batch.Items))
	out := make([]domain.InboxItem, 0, len(batch.Items))
	for _, item := range batch.Items {
		if item.ID == "" {
			continue
		}
		if i, ok := index[item.ID]; ok {
			out[i] = item
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

// releaseMissingLocked drops locally-processed items the server no longer
// returns. In-flight items stay until their classification finishes.
func (s *State) releaseMissingLocked(previous map[domain.ItemKey]domain.InboxItem, seen map[domain.ItemKey]struct{}) {
	for key := range previous {
		if _, ok := seen[key]; ok {
			continue
		}
		if _, busy := s.processing[key]; busy {
			continue
		}
		if _, ok := s.localProcessed[key]; ok {
			delete(s.localProcessed, key)
			delete(s.items, key)
		}
	}
}

func (s *State) isPinned(key domain.ItemKey) bool {
	if _, ok := s.processing[key]; ok {
		return true
	}
	_, ok := s.localProcessed[key]
	return ok
}

func (s *State) sortedLocked() []domain.InboxItem {
	items := make([]domain.InboxItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item.Clone())
	}
	SortItems(items)
	return items
}

// SortItems orders items newest first. Ties break on collection then id so
// the order is stable across merges.
func SortItems(items []domain.InboxItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.After(b.ReceivedAt)
		}
		ka, kb := a.Key(), b.Key()
		if ka.Collection != kb.Collection {
			return ka.Collection < kb.Collection
		}
		return ka.ID < kb.ID
	})
}

// BeginProcessing claims an item for automatic classification. It fails when
// the item is unknown, already in flight, or no longer needs classification.
func (s *State) BeginProcessing(key domain.ItemKey) (domain.InboxItem, bool) {
	return s.begin(key, true)
}

// BeginRetry claims an item for a user-requested retry regardless of its
// current classification.
func (s *State) BeginRetry(key domain.ItemKey) (domain.InboxItem, bool) {
	return s.begin(key, false)
}

func (s *State) begin(key domain.ItemKey, requireUnclassified bool) (domain.InboxItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok || item.Archived {
		return domain.InboxItem{}, false
	}
	if _, busy := s.processing[key]; busy {
		return domain.InboxItem{}, false
	}
	if requireUnclassified && !item.NeedsClassification() {
		return domain.InboxItem{}, false
	}
	s.processing[key] = struct{}{}
	delete(s.localProcessed, key)
	claimed := item.Clone()
	item.Status = domain.StatusProcessing
	s.items[key] = item
	return claimed, true
}

// FinishProcessing releases an in-flight claim.
func (s *State) FinishProcessing(key domain.ItemKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processing, key)
}

// ApplyLocal records an optimistic update for an item this process just wrote.
// A classified item with output is protected from stale reads until the
// server confirms it.
func (s *State) ApplyLocal(item domain.InboxItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.Key()
	s.items[key] = item.Clone()
	if item.Status.IsClassified() && item.HasAIData() {
		s.localProcessed[key] = struct{}{}
	} else {
		delete(s.localProcessed, key)
	}
}

// Get returns a copy of one item.
func (s *State) Get(key domain.ItemKey) (domain.InboxItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		return domain.InboxItem{}, false
	}
	return item.Clone(), true
}

// Items returns every item, archived included, newest first.
func (s *State) Items() []domain.InboxItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Active returns the non-archived items, newest first.
func (s *State) Active() []domain.InboxItem {
	all := s.Items()
	out := all[:0]
	for _, item := range all {
		if !item.Archived {
			out = append(out, item)
		}
	}
	return out
}

// IsProcessing reports whether an item is in flight.
func (s *State) IsProcessing(key domain.ItemKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processing[key]
	return ok
}

// InFlight returns the number of items currently being classified.
func (s *State) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processing)
}
