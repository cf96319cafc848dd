package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) database.Connection {
	t.Helper()
	conn, err := NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "nested", "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNewConnection(t *testing.T) {
	conn := openTemp(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestConnection_UnitOfWork(t *testing.T) {
	ctx := context.Background()
	conn := openTemp(t)
	_, err := conn.Exec(ctx, `CREATE TABLE members (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	uow := database.NewUnitOfWork(conn)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	_, err = database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO members (id, name) VALUES (?, ?)`, "m1", "Sam")
	require.NoError(t, err)
	require.NoError(t, uow.Commit(txCtx))

	txCtx, err = uow.Begin(ctx)
	require.NoError(t, err)
	_, err = database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO members (id, name) VALUES (?, ?)`, "m2", "Alex")
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))

	rows, err := conn.Query(ctx, `SELECT name FROM members ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Sam"}, names)
}
