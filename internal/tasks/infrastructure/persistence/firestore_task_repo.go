package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/firestoredb"
	"github.com/felixgeelhaar/allie/internal/tasks/domain"
	"google.golang.org/api/iterator"
)

const tasksCollection = "tasks"

type taskDoc struct {
	FamilyID    string           `firestore:"familyId"`
	Title       string           `firestore:"title"`
	Description string           `firestore:"description"`
	AssigneeIDs []string         `firestore:"assignees"`
	DueAt       *time.Time       `firestore:"dueDate"`
	Priority    string           `firestore:"priority"`
	Category    string           `firestore:"category"`
	Column      string           `firestore:"column"`
	Source      shared.SourceRef `firestore:"source"`
	CreatedAt   time.Time        `firestore:"createdAt"`
}

func toTaskDoc(t domain.Task) taskDoc {
	return taskDoc{
		FamilyID:    t.FamilyID,
		Title:       t.Title,
		Description: t.Description,
		AssigneeIDs: t.AssigneeIDs,
		DueAt:       t.DueAt,
		Priority:    string(t.Priority),
		Category:    t.Category,
		Column:      string(t.Column),
		Source:      t.Source,
		CreatedAt:   t.CreatedAt,
	}
}

func (d taskDoc) toTask(id string) domain.Task {
	t := domain.Task{
		ID:          id,
		FamilyID:    d.FamilyID,
		Title:       d.Title,
		Description: d.Description,
		AssigneeIDs: d.AssigneeIDs,
		Priority:    domain.ParsePriority(d.Priority),
		Category:    d.Category,
		Column:      domain.Column(d.Column),
		Source:      d.Source,
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if d.DueAt != nil {
		due := d.DueAt.UTC()
		t.DueAt = &due
	}
	return t
}

// FirestoreTaskRepository stores tasks in the tasks collection.
type FirestoreTaskRepository struct {
	client *firestore.Client
}

// NewFirestoreTaskRepository creates a Firestore-backed repository.
func NewFirestoreTaskRepository(client *firestore.Client) *FirestoreTaskRepository {
	return &FirestoreTaskRepository{client: client}
}

func (r *FirestoreTaskRepository) Create(ctx context.Context, t domain.Task) (domain.Task, bool, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	snap, created, err := firestoredb.CreateOrGet(ctx, r.client.Collection(tasksCollection).Doc(t.ID), toTaskDoc(t))
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("create task: %w", err)
	}
	if created {
		return t, true, nil
	}
	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Task{}, false, err
	}
	return doc.toTask(snap.Ref.ID), false, nil
}

func (r *FirestoreTaskRepository) FindByID(ctx context.Context, id string) (domain.Task, error) {
	snap, err := r.client.Collection(tasksCollection).Doc(id).Get(ctx)
	if firestoredb.IsNotFound(err) {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Task{}, err
	}
	return doc.toTask(id), nil
}

func (r *FirestoreTaskRepository) ListByFamily(ctx context.Context, familyID string, column domain.Column) ([]domain.Task, error) {
	q := r.client.Collection(tasksCollection).Where("familyId", "==", familyID)
	if column != "" {
		q = q.Where("column", "==", string(column))
	}
	it := q.Documents(ctx)
	defer it.Stop()

	var tasks []domain.Task
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, doc.toTask(snap.Ref.ID))
	}
	return tasks, nil
}
