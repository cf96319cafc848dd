package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database/dbtest"
	"github.com/felixgeelhaar/allie/internal/tasks/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(title string, index int, due *time.Time) domain.Task {
	src := shared.SourceRef{Collection: "smsInbox", ItemID: "m1", ActionIndex: index, Purpose: shared.PurposeAction}
	t := domain.Task{
		ID:          src.RecordID("task"),
		FamilyID:    "fam-1",
		Title:       title,
		AssigneeIDs: []string{"p1"},
		DueAt:       due,
		Priority:    domain.PriorityHigh,
		Source:      src,
	}
	t.Column = domain.ColumnFor(due, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	_ = t.Validate()
	return t
}

func TestSQLTaskRepository_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLTaskRepository(dbtest.SQLite(t))
	due := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)

	stored, created, err := repo.Create(ctx, newTask("Pack lunch", 0, &due))
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.Create(ctx, newTask("Pack lunch again", 0, &due))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, again.ID)
	assert.Equal(t, "Pack lunch", again.Title)
	require.NotNil(t, again.DueAt)
	assert.True(t, due.Equal(*again.DueAt))
	assert.Equal(t, domain.ColumnToday, again.Column)
	assert.Equal(t, []string{"p1"}, again.AssigneeIDs)
}

func TestSQLTaskRepository_ListByColumn(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLTaskRepository(dbtest.SQLite(t))
	soon := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, task := range []domain.Task{newTask("Today", 0, &soon), newTask("Someday", 1, nil)} {
		task.CreatedAt = soon.Add(time.Duration(i) * time.Minute)
		_, _, err := repo.Create(ctx, task)
		require.NoError(t, err)
	}

	all, err := repo.ListByFamily(ctx, "fam-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	upcoming, err := repo.ListByFamily(ctx, "fam-1", domain.ColumnUpcoming)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Someday", upcoming[0].Title)
	assert.Nil(t, upcoming[0].DueAt)

	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestSQLTaskRepository_PostgresConflictReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLTaskRepository(database.WrapDB(db, database.DriverPostgres))
	task := newTask("Return library books", 2, nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
		WithArgs(task.ID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "family_id", "title", "description", "assignee_ids", "due_at", "priority", "category",
			"board_column", "source_collection", "source_item_id", "source_action_index", "source_purpose", "created_at",
		}).AddRow(task.ID, "fam-1", "Return library books", "", `["p1"]`, nil, "high", "",
			"upcoming", "smsInbox", "m1", 2, "action", "2025-05-01T00:00:00.000000000Z"))

	stored, created, err := repo.Create(context.Background(), task)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, stored.Source.ActionIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}
