// Package persistence stores entity links in SQL or Firestore.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/allie/internal/linking/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
)

// SQLLinkRepository implements domain.Repository on the entity_links table.
type SQLLinkRepository struct {
	conn database.Connection
}

// NewSQLLinkRepository creates a repository on the given connection.
func NewSQLLinkRepository(conn database.Connection) *SQLLinkRepository {
	return &SQLLinkRepository{conn: conn}
}

func (r *SQLLinkRepository) Create(ctx context.Context, l domain.Link) (bool, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	query := database.Rebind(r.conn.Driver(), `
		INSERT INTO entity_links (id, family_id, from_type, from_id, to_type, to_id, relation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		l.ID, l.FamilyID, string(l.From.Type), l.From.ID, string(l.To.Type), l.To.ID, l.Relation,
		database.FormatTime(l.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLLinkRepository) ListFrom(ctx context.Context, from domain.Ref) ([]domain.Link, error) {
	query := database.Rebind(r.conn.Driver(), `
		SELECT id, family_id, from_type, from_id, to_type, to_id, relation, created_at
		FROM entity_links
		WHERE from_type = ? AND from_id = ?
		ORDER BY created_at, id
	`)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, string(from.Type), from.ID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		var (
			l                domain.Link
			fromType, toType string
			createdAt        string
		)
		if err := rows.Scan(&l.ID, &l.FamilyID, &fromType, &l.From.ID, &toType, &l.To.ID, &l.Relation, &createdAt); err != nil {
			return nil, err
		}
		l.From.Type = domain.EntityType(fromType)
		l.To.Type = domain.EntityType(toType)
		l.CreatedAt, _ = database.ParseTime(createdAt)
		links = append(links, l)
	}
	return links, rows.Err()
}
