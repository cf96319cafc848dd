// Package migrations creates the schema for the SQL backends.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Run applies every .up.sql file for the connection's dialect in name order.
// Statements use IF NOT EXISTS so reruns are harmless.
func Run(ctx context.Context, conn database.Connection) error {
	dir := string(conn.Driver())
	entries, err := files.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations for %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := files.ReadFile(dir + "/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := conn.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}
	return nil
}
