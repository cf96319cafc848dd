// Package persistence stores contacts in SQL or Firestore.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/allie/internal/contacts/domain"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
)

const contactColumns = `id, family_id, name, normalized_name, phone, email, role, category,
	source_collection, source_item_id, source_action_index, source_purpose, created_at`

// SQLContactRepository implements domain.Repository for SQLite and PostgreSQL.
type SQLContactRepository struct {
	conn database.Connection
}

// NewSQLContactRepository creates a repository on the given connection.
func NewSQLContactRepository(conn database.Connection) *SQLContactRepository {
	return &SQLContactRepository{conn: conn}
}

func (r *SQLContactRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

func (r *SQLContactRepository) Create(ctx context.Context, c domain.Contact) (domain.Contact, bool, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	query := r.rebind(`
		INSERT INTO contacts (` + contactColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		c.ID, c.FamilyID, c.Name, c.NormalizedName, c.Phone, c.Email, c.Role, c.Category,
		c.Source.Collection, c.Source.ItemID, c.Source.ActionIndex, c.Source.Purpose,
		database.FormatTime(c.CreatedAt),
	)
	if err != nil {
		return domain.Contact{}, false, fmt.Errorf("insert contact: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := r.FindByName(ctx, c.FamilyID, c.Name)
		return existing, false, err
	}
	return c, true, nil
}

func (r *SQLContactRepository) FindByName(ctx context.Context, familyID, name string) (domain.Contact, error) {
	query := r.rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE family_id = ? AND normalized_name = ?`)
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, familyID, domain.NormalizeName(name))
	c, err := scanContact(row)
	if database.IsNoRows(err) {
		return domain.Contact{}, domain.ErrContactNotFound
	}
	return c, err
}

func (r *SQLContactRepository) ListByFamily(ctx context.Context, familyID string) ([]domain.Contact, error) {
	query := r.rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE family_id = ? ORDER BY normalized_name`)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func scanContact(row database.Row) (domain.Contact, error) {
	var (
		c         domain.Contact
		src       shared.SourceRef
		createdAt string
	)
	err := row.Scan(
		&c.ID, &c.FamilyID, &c.Name, &c.NormalizedName, &c.Phone, &c.Email, &c.Role, &c.Category,
		&src.Collection, &src.ItemID, &src.ActionIndex, &src.Purpose, &createdAt,
	)
	if err != nil {
		return domain.Contact{}, err
	}
	c.Source = src
	c.CreatedAt, _ = database.ParseTime(createdAt)
	return c, nil
}
