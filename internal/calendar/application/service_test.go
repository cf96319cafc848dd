package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/allie/internal/calendar/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu     sync.Mutex
	events map[string]domain.Event
	err    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{events: map[string]domain.Event{}}
}

func (r *memoryRepo) Create(ctx context.Context, e domain.Event) (domain.Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.Event{}, false, r.err
	}
	if existing, ok := r.events[e.ID]; ok {
		return existing, false, nil
	}
	r.events[e.ID] = e
	return e, true, nil
}

func (r *memoryRepo) FindByID(ctx context.Context, id string) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.events[id]; ok {
		return e, nil
	}
	return domain.Event{}, domain.ErrEventNotFound
}

func (r *memoryRepo) ListByFamily(ctx context.Context, familyID string, from, to time.Time) ([]domain.Event, error) {
	return nil, nil
}

type capturePublisher struct {
	keys     []string
	payloads [][]byte
	err      error
}

func (p *capturePublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.keys = append(p.keys, routingKey)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func TestService_CreateEvent(t *testing.T) {
	repo := newMemoryRepo()
	pub := &capturePublisher{}
	svc := NewService(repo, pub, nil)
	event := domain.Event{ID: "ev1", FamilyID: "fam", Title: "Soccer", Start: time.Now().UTC()}

	stored, err := svc.CreateEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, stored.Start.Add(time.Hour), stored.End)

	again, err := svc.CreateEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, again.ID)

	require.Equal(t, []string{domain.RoutingKeyEventCreated}, pub.keys, "only the first create is announced")
	var envelope eventbus.ConsumedEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &envelope))
	var msg domain.EventCreated
	require.NoError(t, envelope.Decode(&msg))
	assert.Equal(t, "Soccer", msg.Title)
	assert.Equal(t, "fam", envelope.Metadata.FamilyID)
}

func TestService_CreateEvent_Errors(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateEvent(context.Background(), domain.Event{FamilyID: "fam", Title: "no start"})
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	repo.err = errors.New("disk full")
	_, err = svc.CreateEvent(context.Background(), domain.Event{ID: "x", FamilyID: "fam", Title: "t", Start: time.Now()})
	assert.ErrorContains(t, err, "disk full")
}

func TestService_PublishFailureIsNotFatal(t *testing.T) {
	svc := NewService(newMemoryRepo(), &capturePublisher{err: errors.New("broker down")}, nil)

	_, err := svc.CreateEvent(context.Background(), domain.Event{ID: "x", FamilyID: "fam", Title: "t", Start: time.Now()})

	assert.NoError(t, err)
}

type recordingUoW struct {
	begun, committed, rolledBack int
}

func (u *recordingUoW) Begin(ctx context.Context) (context.Context, error) {
	u.begun++
	return ctx, nil
}

func (u *recordingUoW) Commit(ctx context.Context) error {
	u.committed++
	return nil
}

func (u *recordingUoW) Rollback(ctx context.Context) error {
	u.rolledBack++
	return nil
}

func TestService_UnitOfWork(t *testing.T) {
	uow := &recordingUoW{}
	svc := NewService(newMemoryRepo(), &capturePublisher{}, nil).WithUnitOfWork(uow)

	_, err := svc.CreateEvent(context.Background(), domain.Event{ID: "x", FamilyID: "fam", Title: "t", Start: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 1, uow.committed)

	failing := &recordingUoW{}
	svc = NewService(newMemoryRepo(), &capturePublisher{err: errors.New("outbox full")}, nil).WithUnitOfWork(failing)
	_, err = svc.CreateEvent(context.Background(), domain.Event{ID: "y", FamilyID: "fam", Title: "t", Start: time.Now()})
	assert.ErrorContains(t, err, "outbox full")
	assert.Equal(t, 1, failing.rolledBack)
	assert.Zero(t, failing.committed)
}
