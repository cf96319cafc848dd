package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
)

// SQLRepository implements Repository on the outbox_messages table for
// either SQL dialect.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRepository creates a repository on the given connection.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

// Save stores a new outbox message. A message whose event ID is already
// stored is ignored.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	query := database.Rebind(r.conn.Driver(), `
		INSERT INTO outbox_messages (event_id, aggregate_type, aggregate_id, routing_key, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id
	`)
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query,
		msg.EventID, msg.AggregateType, msg.AggregateID, msg.RoutingKey, string(msg.Payload),
		database.FormatTime(msg.CreatedAt),
	).Scan(&msg.ID)
	if database.IsNoRows(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("save outbox message: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := database.Rebind(r.conn.Driver(), `
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, created_at,
		       next_retry_at, retry_count, last_error
		FROM outbox_messages
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?
	`)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, database.FormatTime(r.now()), limit)
	if err != nil {
		return nil, fmt.Errorf("get unpublished outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var (
			msg                  Message
			payload, createdAt   string
			nextRetry, lastError sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.RoutingKey,
			&payload, &createdAt, &nextRetry, &msg.RetryCount, &lastError); err != nil {
			return nil, err
		}
		msg.Payload = []byte(payload)
		msg.CreatedAt, _ = database.ParseTime(createdAt)
		if nextRetry.Valid {
			if t, err := database.ParseTime(nextRetry.String); err == nil {
				msg.NextRetryAt = &t
			}
		}
		if lastError.Valid {
			s := lastError.String
			msg.LastError = &s
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	query := database.Rebind(r.conn.Driver(), `UPDATE outbox_messages SET published_at = ? WHERE id = ?`)
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, database.FormatTime(r.now()), id)
	return err
}

func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	query := database.Rebind(r.conn.Driver(), `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?
	`)
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, errMsg, database.FormatTime(nextRetryAt), id)
	return err
}

func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	query := database.Rebind(r.conn.Driver(), `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ?
		WHERE id = ?
	`)
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, database.FormatTime(r.now()), reason, id)
	return err
}

func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -olderThanDays)
	query := database.Rebind(r.conn.Driver(), `
		DELETE FROM outbox_messages WHERE published_at IS NOT NULL AND published_at < ?
	`)
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, database.FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old outbox messages: %w", err)
	}
	return res.RowsAffected()
}
