// Package persistence stores tasks in SQL or Firestore.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/allie/internal/tasks/domain"
)

const taskColumns = `id, family_id, title, description, assignee_ids, due_at, priority, category,
	board_column, source_collection, source_item_id, source_action_index, source_purpose, created_at`

// SQLTaskRepository implements domain.Repository for SQLite and PostgreSQL.
type SQLTaskRepository struct {
	conn database.Connection
}

// NewSQLTaskRepository creates a repository on the given connection.
func NewSQLTaskRepository(conn database.Connection) *SQLTaskRepository {
	return &SQLTaskRepository{conn: conn}
}

func (r *SQLTaskRepository) rebind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

func (r *SQLTaskRepository) Create(ctx context.Context, t domain.Task) (domain.Task, bool, error) {
	assignees, err := json.Marshal(t.AssigneeIDs)
	if err != nil {
		return domain.Task{}, false, err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := r.rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		t.ID, t.FamilyID, t.Title, t.Description, string(assignees),
		database.NullableTime(t.DueAt), string(t.Priority), t.Category, string(t.Column),
		t.Source.Collection, t.Source.ItemID, t.Source.ActionIndex, t.Source.Purpose,
		database.FormatTime(t.CreatedAt),
	)
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("insert task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := r.FindByID(ctx, t.ID)
		return existing, false, err
	}
	return t, true, nil
}

func (r *SQLTaskRepository) FindByID(ctx context.Context, id string) (domain.Task, error) {
	query := r.rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	t, err := scanTask(database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, id))
	if database.IsNoRows(err) {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, err
}

// ListByFamily returns the family's tasks, filtered to one column unless column is empty.
func (r *SQLTaskRepository) ListByFamily(ctx context.Context, familyID string, column domain.Column) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE family_id = ?`
	args := []any{familyID}
	if column != "" {
		query += ` AND board_column = ?`
		args = append(args, string(column))
	}
	query += ` ORDER BY created_at, id`

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row database.Row) (domain.Task, error) {
	var (
		t                           domain.Task
		assignees, priority, column string
		createdAt                   string
		dueAt                       sql.NullString
		src                         shared.SourceRef
	)
	err := row.Scan(
		&t.ID, &t.FamilyID, &t.Title, &t.Description, &assignees, &dueAt, &priority, &t.Category,
		&column, &src.Collection, &src.ItemID, &src.ActionIndex, &src.Purpose, &createdAt,
	)
	if err != nil {
		return domain.Task{}, err
	}
	t.Priority = domain.Priority(priority)
	t.Column = domain.Column(column)
	t.Source = src
	t.CreatedAt, _ = database.ParseTime(createdAt)
	if dueAt.Valid {
		due, err := database.ParseTime(dueAt.String)
		if err != nil {
			return domain.Task{}, fmt.Errorf("parse due date: %w", err)
		}
		t.DueAt = &due
	}
	if err := json.Unmarshal([]byte(assignees), &t.AssigneeIDs); err != nil {
		return domain.Task{}, fmt.Errorf("decode assignees: %w", err)
	}
	return t, nil
}
