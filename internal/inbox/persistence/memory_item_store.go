package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// MemoryItemStore keeps raw records in memory. It backs local runs and tests.
type MemoryItemStore struct {
	mu      sync.RWMutex
	records map[domain.ItemKey]map[string]any
	feed    *changeFeed
}

// NewMemoryItemStore creates an empty store.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{
		records: make(map[domain.ItemKey]map[string]any),
		feed:    newChangeFeed(),
	}
}

func (s *MemoryItemStore) Subscribe(ctx context.Context, familyID string, collection domain.Collection, fn func(domain.Batch)) error {
	wake, stop := s.feed.watch(collection)
	defer stop()
	return deliverLoop(ctx, wake, func() error {
		items, err := s.List(ctx, familyID, collection)
		if err != nil {
			return err
		}
		fn(domain.Batch{Collection: collection, Items: items})
		return nil
	})
}

func (s *MemoryItemStore) List(_ context.Context, familyID string, collection domain.Collection) ([]domain.InboxItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]domain.InboxItem, 0)
	for key, data := range s.records {
		if key.Collection != collection {
			continue
		}
		item := domain.Normalize(key.ID, copyData(data), collection)
		if familyID != "" && item.FamilyID != familyID {
			continue
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ReceivedAt.After(items[j].ReceivedAt)
	})
	return items, nil
}

func (s *MemoryItemStore) Get(_ context.Context, key domain.ItemKey) (domain.InboxItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[key]
	if !ok {
		return domain.InboxItem{}, domain.ErrItemNotFound
	}
	return domain.Normalize(key.ID, copyData(data), key.Collection), nil
}

func (s *MemoryItemStore) Update(_ context.Context, key domain.ItemKey, patch domain.Patch) error {
	s.mu.Lock()
	data, ok := s.records[key]
	if !ok {
		s.mu.Unlock()
		return domain.ErrItemNotFound
	}
	patch.ApplyTo(data)
	s.mu.Unlock()
	s.feed.notify(key.Collection)
	return nil
}

func (s *MemoryItemStore) Create(_ context.Context, collection domain.Collection, record domain.RawRecord) error {
	key := domain.ItemKey{Collection: collection, ID: record.ID}
	s.mu.Lock()
	if _, exists := s.records[key]; exists {
		s.mu.Unlock()
		return domain.ErrItemExists
	}
	s.records[key] = copyData(record.Data)
	s.mu.Unlock()
	s.feed.notify(collection)
	return nil
}

// Raw returns a copy of the stored record, for inspecting exactly what was written.
func (s *MemoryItemStore) Raw(key domain.ItemKey) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[key]
	if !ok {
		return nil, false
	}
	return copyData(data), true
}

func copyData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
