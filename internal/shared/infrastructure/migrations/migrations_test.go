package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Run(ctx, conn))
	require.NoError(t, Run(ctx, conn), "migrations are idempotent")

	for _, table := range []string{"inbox_records", "family_members", "calendar_events", "tasks", "contacts", "entity_links", "outbox_messages"} {
		var n int
		err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestMigrationFilesMatchAcrossDialects(t *testing.T) {
	lite, err := files.ReadDir("sqlite")
	require.NoError(t, err)
	pg, err := files.ReadDir("postgres")
	require.NoError(t, err)

	require.Equal(t, len(lite), len(pg))
	for i := range lite {
		assert.Equal(t, lite[i].Name(), pg[i].Name())
	}
}
