package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/felixgeelhaar/allie/internal/calendar/domain"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/firestoredb"
	"google.golang.org/api/iterator"
)

const eventsCollection = "calendarEvents"

type eventDoc struct {
	FamilyID    string           `firestore:"familyId"`
	Title       string           `firestore:"title"`
	Description string           `firestore:"description"`
	Start       time.Time        `firestore:"startDate"`
	End         time.Time        `firestore:"endDate"`
	AllDay      bool             `firestore:"allDay"`
	Location    string           `firestore:"location"`
	Category    string           `firestore:"category"`
	AttendeeIDs []string         `firestore:"attendees"`
	Source      shared.SourceRef `firestore:"source"`
	CreatedAt   time.Time        `firestore:"createdAt"`
}

func toEventDoc(e domain.Event) eventDoc {
	return eventDoc{
		FamilyID:    e.FamilyID,
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		AllDay:      e.AllDay,
		Location:    e.Location,
		Category:    e.Category,
		AttendeeIDs: e.AttendeeIDs,
		Source:      e.Source,
		CreatedAt:   e.CreatedAt,
	}
}

func (d eventDoc) toEvent(id string) domain.Event {
	return domain.Event{
		ID:          id,
		FamilyID:    d.FamilyID,
		Title:       d.Title,
		Description: d.Description,
		Start:       d.Start.UTC(),
		End:         d.End.UTC(),
		AllDay:      d.AllDay,
		Location:    d.Location,
		Category:    d.Category,
		AttendeeIDs: d.AttendeeIDs,
		Source:      d.Source,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// FirestoreEventRepository stores events in the calendarEvents collection.
type FirestoreEventRepository struct {
	client *firestore.Client
}

// NewFirestoreEventRepository creates a Firestore-backed repository.
func NewFirestoreEventRepository(client *firestore.Client) *FirestoreEventRepository {
	return &FirestoreEventRepository{client: client}
}

func (r *FirestoreEventRepository) Create(ctx context.Context, e domain.Event) (domain.Event, bool, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	snap, created, err := firestoredb.CreateOrGet(ctx, r.client.Collection(eventsCollection).Doc(e.ID), toEventDoc(e))
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("create calendar event: %w", err)
	}
	if created {
		return e, true, nil
	}
	var doc eventDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Event{}, false, err
	}
	return doc.toEvent(snap.Ref.ID), false, nil
}

func (r *FirestoreEventRepository) FindByID(ctx context.Context, id string) (domain.Event, error) {
	snap, err := r.client.Collection(eventsCollection).Doc(id).Get(ctx)
	if firestoredb.IsNotFound(err) {
		return domain.Event{}, domain.ErrEventNotFound
	}
	if err != nil {
		return domain.Event{}, err
	}
	var doc eventDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Event{}, err
	}
	return doc.toEvent(id), nil
}

func (r *FirestoreEventRepository) ListByFamily(ctx context.Context, familyID string, from, to time.Time) ([]domain.Event, error) {
	q := r.client.Collection(eventsCollection).
		Where("familyId", "==", familyID).
		Where("startDate", ">=", from)
	if !to.IsZero() {
		q = q.Where("startDate", "<", to)
	}
	it := q.OrderBy("startDate", firestore.Asc).Documents(ctx)
	defer it.Stop()

	var events []domain.Event
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list calendar events: %w", err)
		}
		var doc eventDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		events = append(events, doc.toEvent(snap.Ref.ID))
	}
	return events, nil
}
