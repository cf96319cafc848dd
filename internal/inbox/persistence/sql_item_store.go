package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	sharedApplication "github.com/felixgeelhaar/allie/internal/shared/application"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

// DefaultPollInterval is how often SQL subscriptions look for writes made by
// other processes.
const DefaultPollInterval = 2 * time.Second

// SQLItemStore keeps the source collections in the inbox_records table. Each
// record is the raw JSON document, so ingesters and the core share one shape.
type SQLItemStore struct {
	conn   database.Connection
	uow    sharedApplication.UnitOfWork
	poll   time.Duration
	feed   *changeFeed
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLItemStore creates a store on the connection. A zero poll interval
// uses DefaultPollInterval.
func NewSQLItemStore(conn database.Connection, poll time.Duration, logger *slog.Logger) *SQLItemStore {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLItemStore{
		conn:   conn,
		uow:    database.NewUnitOfWork(conn),
		poll:   poll,
		feed:   newChangeFeed(),
		logger: logger,
		now:    time.Now,
	}
}

func (s *SQLItemStore) rebind(query string) string {
	return database.Rebind(s.conn.Driver(), query)
}

// Subscribe delivers the collection, then redelivers it after every local
// write and whenever polling sees a change made elsewhere.
func (s *SQLItemStore) Subscribe(ctx context.Context, familyID string, collection domain.Collection, fn func(domain.Batch)) error {
	local, stop := s.feed.watch(collection)
	defer stop()

	wake := make(chan struct{}, 1)
	go s.pollChanges(ctx, familyID, collection, local, wake)

	return deliverLoop(ctx, wake, func() error {
		items, err := s.List(ctx, familyID, collection)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(domain.Batch{Collection: collection, Items: items})
		return nil
	})
}

// pollChanges forwards local wake-ups and fingerprint changes to wake.
func (s *SQLItemStore) pollChanges(ctx context.Context, familyID string, collection domain.Collection, local <-chan struct{}, wake chan<- struct{}) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	last, _ := s.fingerprint(ctx, familyID, collection)
	signal := func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-local:
			last, _ = s.fingerprint(ctx, familyID, collection)
			signal()
		case <-ticker.C:
			current, err := s.fingerprint(ctx, familyID, collection)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.WarnContext(ctx, "inbox poll failed", observability.CollectionKey, string(collection), observability.ErrorKey, err)
				}
				continue
			}
			if current != last {
				last = current
				signal()
			}
		}
	}
}

// fingerprint summarizes a collection so polling can skip unchanged reads.
func (s *SQLItemStore) fingerprint(ctx context.Context, familyID string, collection domain.Collection) (string, error) {
	query := s.rebind(`
		SELECT COUNT(*), COALESCE(SUM(version), 0), COALESCE(MAX(updated_at), '')
		FROM inbox_records WHERE family_id = ? AND collection = ?
	`)
	var (
		count, versions int64
		updated         string
	)
	if err := s.conn.QueryRow(ctx, query, familyID, string(collection)).Scan(&count, &versions, &updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%d:%s", count, versions, updated), nil
}

func (s *SQLItemStore) List(ctx context.Context, familyID string, collection domain.Collection) ([]domain.InboxItem, error) {
	query := s.rebind(`
		SELECT id, data FROM inbox_records
		WHERE family_id = ? AND collection = ?
		ORDER BY received_at DESC, id
	`)
	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx, query, familyID, string(collection))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	items := make([]domain.InboxItem, 0)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		items = append(items, domain.Normalize(id, decodeData(raw), collection))
	}
	return items, rows.Err()
}

func (s *SQLItemStore) Get(ctx context.Context, key domain.ItemKey) (domain.InboxItem, error) {
	data, err := s.load(ctx, key, false)
	if err != nil {
		return domain.InboxItem{}, err
	}
	return domain.Normalize(key.ID, data, key.Collection), nil
}

// load reads one document. forUpdate locks the row on PostgreSQL so
// concurrent patches to one record apply in turn; SQLite serializes writers
// on its single connection.
func (s *SQLItemStore) load(ctx context.Context, key domain.ItemKey, forUpdate bool) (map[string]any, error) {
	query := `SELECT data FROM inbox_records WHERE collection = ? AND id = ?`
	if forUpdate && s.conn.Driver() == database.DriverPostgres {
		query += ` FOR UPDATE`
	}
	query = s.rebind(query)
	var raw string
	err := database.ExecutorFromContext(ctx, s.conn).QueryRow(ctx, query, string(key.Collection), key.ID).Scan(&raw)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return decodeData(raw), nil
}

// Update applies the patch to the stored document inside a transaction.
func (s *SQLItemStore) Update(ctx context.Context, key domain.ItemKey, patch domain.Patch) error {
	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		data, err := s.load(txCtx, key, true)
		if err != nil {
			return err
		}
		patch.ApplyTo(data)
		body, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		query := s.rebind(`
			UPDATE inbox_records SET data = ?, version = version + 1, updated_at = ?
			WHERE collection = ? AND id = ?
		`)
		_, err = database.ExecutorFromContext(txCtx, s.conn).Exec(txCtx, query,
			string(body), database.FormatTime(s.now()), string(key.Collection), key.ID,
		)
		return err
	})
	if err != nil {
		return err
	}
	s.feed.notify(key.Collection)
	return nil
}

func (s *SQLItemStore) Create(ctx context.Context, collection domain.Collection, record domain.RawRecord) error {
	body, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	item := domain.Normalize(record.ID, record.Data, collection)
	query := s.rebind(`
		INSERT INTO inbox_records (collection, id, family_id, received_at, data, version, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT DO NOTHING
	`)
	res, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, query,
		string(collection), record.ID, item.FamilyID, database.FormatTime(item.ReceivedAt),
		string(body), database.FormatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrItemExists, collection, record.ID)
	}
	s.feed.notify(collection)
	return nil
}

// decodeData never fails: a corrupt document normalizes to an empty item.
func decodeData(raw string) map[string]any {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return map[string]any{}
	}
	return data
}
