// Package dbtest opens migrated throwaway databases for repository tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/migrations"
	"github.com/stretchr/testify/require"
)

// SQLite returns a migrated SQLite database in a temp dir, closed on cleanup.
func SQLite(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "allie.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return conn
}
