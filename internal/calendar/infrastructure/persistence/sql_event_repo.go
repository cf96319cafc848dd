// Package persistence stores calendar events in SQL or Firestore.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/allie/internal/calendar/domain"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
)

const eventColumns = `id, family_id, title, description, start_at, end_at, all_day, location, category,
	attendee_ids, source_collection, source_item_id, source_action_index, source_purpose, created_at`

// SQLEventRepository implements domain.Repository for SQLite and PostgreSQL.
type SQLEventRepository struct {
	conn database.Connection
}

// NewSQLEventRepository creates a repository on the given connection.
func NewSQLEventRepository(conn database.Connection) *SQLEventRepository {
	return &SQLEventRepository{conn: conn}
}

func (r *SQLEventRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

func (r *SQLEventRepository) Create(ctx context.Context, e domain.Event) (domain.Event, bool, error) {
	attendees, err := json.Marshal(e.AttendeeIDs)
	if err != nil {
		return domain.Event{}, false, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := r.rebind(`
		INSERT INTO calendar_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		e.ID, e.FamilyID, e.Title, e.Description,
		database.FormatTime(e.Start), database.FormatTime(e.End), e.AllDay,
		e.Location, e.Category, string(attendees),
		e.Source.Collection, e.Source.ItemID, e.Source.ActionIndex, e.Source.Purpose,
		database.FormatTime(e.CreatedAt),
	)
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("insert calendar event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := r.FindByID(ctx, e.ID)
		return existing, false, err
	}
	return e, true, nil
}

func (r *SQLEventRepository) FindByID(ctx context.Context, id string) (domain.Event, error) {
	query := r.rebind(`SELECT ` + eventColumns + ` FROM calendar_events WHERE id = ?`)
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, id)
	e, err := scanEvent(row)
	if database.IsNoRows(err) {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return e, err
}

func (r *SQLEventRepository) ListByFamily(ctx context.Context, familyID string, from, to time.Time) ([]domain.Event, error) {
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	query := r.rebind(`
		SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE family_id = ? AND start_at >= ? AND start_at < ?
		ORDER BY start_at, id
	`)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query,
		familyID, database.FormatTime(from), database.FormatTime(to))
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row database.Row) (domain.Event, error) {
	var (
		e                     domain.Event
		start, end, createdAt string
		attendees             string
		src                   shared.SourceRef
	)
	err := row.Scan(
		&e.ID, &e.FamilyID, &e.Title, &e.Description, &start, &end, &e.AllDay,
		&e.Location, &e.Category, &attendees,
		&src.Collection, &src.ItemID, &src.ActionIndex, &src.Purpose, &createdAt,
	)
	if err != nil {
		return domain.Event{}, err
	}
	e.Source = src
	if e.Start, err = database.ParseTime(start); err != nil {
		return domain.Event{}, fmt.Errorf("parse start: %w", err)
	}
	if e.End, err = database.ParseTime(end); err != nil {
		return domain.Event{}, fmt.Errorf("parse end: %w", err)
	}
	e.CreatedAt, _ = database.ParseTime(createdAt)
	if err := json.Unmarshal([]byte(attendees), &e.AttendeeIDs); err != nil {
		return domain.Event{}, fmt.Errorf("decode attendees: %w", err)
	}
	return e, nil
}
