// Package persistence stores family members in SQL or Firestore.
package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/allie/internal/family/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
)

// SQLMemberRepository implements domain.Repository for SQLite and PostgreSQL.
type SQLMemberRepository struct {
	conn database.Connection
}

// NewSQLMemberRepository creates a repository on the given connection.
func NewSQLMemberRepository(conn database.Connection) *SQLMemberRepository {
	return &SQLMemberRepository{conn: conn}
}

func (r *SQLMemberRepository) ListByFamily(ctx context.Context, familyID string) ([]domain.Member, error) {
	query := database.Rebind(r.conn.Driver(), `
		SELECT id, family_id, name, role, phone, email
		FROM family_members
		WHERE family_id = ?
		ORDER BY name
	`)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		var role string
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.Name, &role, &m.Phone, &m.Email); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *SQLMemberRepository) Save(ctx context.Context, m domain.Member) error {
	query := database.Rebind(r.conn.Driver(), `
		INSERT INTO family_members (id, family_id, name, role, phone, email)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			phone = excluded.phone,
			email = excluded.email
	`)
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		m.ID, m.FamilyID, m.Name, string(m.Role), m.Phone, m.Email,
	)
	if err != nil {
		return fmt.Errorf("save family member: %w", err)
	}
	return nil
}
