package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/firestoredb"
	"github.com/felixgeelhaar/allie/pkg/observability"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreItemStore reads the familyDocuments, emailInbox and smsInbox
// collections the ingesters write to.
type FirestoreItemStore struct {
	client *firestore.Client
	logger *slog.Logger
}

// NewFirestoreItemStore creates a store on the client.
func NewFirestoreItemStore(client *firestore.Client, logger *slog.Logger) *FirestoreItemStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FirestoreItemStore{client: client, logger: logger}
}

func (s *FirestoreItemStore) query(familyID string, collection domain.Collection) firestore.Query {
	return s.client.Collection(string(collection)).Where("familyId", "==", familyID)
}

// Subscribe listens to query snapshots. Every snapshot is delivered as the
// full collection contents.
func (s *FirestoreItemStore) Subscribe(ctx context.Context, familyID string, collection domain.Collection, fn func(domain.Batch)) error {
	it := s.query(familyID, collection).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, iterator.Done) {
				return nil
			}
			return fmt.Errorf("listen %s: %w", collection, err)
		}
		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("read %s snapshot: %w", collection, err)
		}
		s.logger.DebugContext(ctx, "inbox snapshot",
			observability.CollectionKey, string(collection),
			"size", len(docs),
			"changes", len(snap.Changes),
		)
		fn(domain.Batch{Collection: collection, Items: normalizeDocs(docs, collection)})
	}
}

func (s *FirestoreItemStore) List(ctx context.Context, familyID string, collection domain.Collection) ([]domain.InboxItem, error) {
	docs, err := s.query(familyID, collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return normalizeDocs(docs, collection), nil
}

func (s *FirestoreItemStore) Get(ctx context.Context, key domain.ItemKey) (domain.InboxItem, error) {
	snap, err := s.client.Collection(string(key.Collection)).Doc(key.ID).Get(ctx)
	if firestoredb.IsNotFound(err) {
		return domain.InboxItem{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, key)
	}
	if err != nil {
		return domain.InboxItem{}, fmt.Errorf("get %s: %w", key, err)
	}
	return domain.Normalize(snap.Ref.ID, snap.Data(), key.Collection), nil
}

// Update writes only the patched top-level fields. A nil value stores null.
func (s *FirestoreItemStore) Update(ctx context.Context, key domain.ItemKey, patch domain.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	fields := patch.Fields()
	updates := make([]firestore.Update, 0, len(fields))
	for _, f := range fields {
		updates = append(updates, firestore.Update{Path: f.Path, Value: f.Value})
	}
	_, err := s.client.Collection(string(key.Collection)).Doc(key.ID).Update(ctx, updates)
	if firestoredb.IsNotFound(err) {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}

func (s *FirestoreItemStore) Create(ctx context.Context, collection domain.Collection, record domain.RawRecord) error {
	_, err := s.client.Collection(string(collection)).Doc(record.ID).Create(ctx, record.Data)
	if firestoredb.IsAlreadyExists(err) {
		return fmt.Errorf("%w: %s/%s", domain.ErrItemExists, collection, record.ID)
	}
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, record.ID, err)
	}
	return nil
}

func normalizeDocs(docs []*firestore.DocumentSnapshot, collection domain.Collection) []domain.InboxItem {
	items := make([]domain.InboxItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, domain.Normalize(doc.Ref.ID, doc.Data(), collection))
	}
	return items
}
