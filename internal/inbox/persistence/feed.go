// Package persistence implements the inbox item store on Firestore, SQL
// databases and memory.
package persistence

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// changeFeed wakes subscribers of a collection after a local write.
type changeFeed struct {
	mu   sync.Mutex
	next int
	subs map[domain.Collection]map[int]chan struct{}
}

func newChangeFeed() *changeFeed {
	return &changeFeed{subs: make(map[domain.Collection]map[int]chan struct{})}
}

// watch registers a subscriber. The channel holds at most one pending
// wake-up, so bursts of writes coalesce into one delivery.
func (f *changeFeed) watch(collection domain.Collection) (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	ch := make(chan struct{}, 1)
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[int]chan struct{})
	}
	f.subs[collection][id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[collection], id)
	}
}

func (f *changeFeed) notify(collection domain.Collection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// deliverLoop calls deliver once, then again after every wake-up until
// ctx is done.
func deliverLoop(ctx context.Context, wake <-chan struct{}, deliver func() error) error {
	if err := deliver(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wake:
			if err := deliver(); err != nil {
				return err
			}
		}
	}
}
