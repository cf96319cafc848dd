package family

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/allie/adapter/cli"
	internalApp "github.com/felixgeelhaar/allie/internal/app"
	mcpinternal "github.com/felixgeelhaar/allie/internal/mcp"
	"github.com/felixgeelhaar/allie/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) {
	t.Helper()
	cfg := &config.Config{
		AppEnv:            "test",
		FamilyID:          "fam-1",
		StoreBackend:      config.BackendSQLite,
		SQLitePath:        filepath.Join(t.TempDir(), "allie.db"),
		StorePollInterval: 50 * time.Millisecond,
	}
	container, err := internalApp.NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	cli.SetApp(mcpinternal.NewCLIApp(container, false))
	t.Cleanup(func() { cli.SetApp(nil) })
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestFamilyCommands(t *testing.T) {
	setupTestApp(t)

	out, err := run(t, listCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No family members yet")

	memberRole, memberPhone, memberEmail = "mom", "555-0101", ""
	out, err = run(t, addCmd, "Sarah")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Sarah (parent)")

	memberRole, memberPhone = "son", ""
	_, err = run(t, addCmd, "Leo")
	require.NoError(t, err)

	_, err = run(t, addCmd, "  ")
	assert.Error(t, err)

	out, err = run(t, listCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Sarah")
	assert.Contains(t, out, "Leo")
	assert.Contains(t, out, "child")
}

func TestFamilyCommands_NoApp(t *testing.T) {
	cli.SetApp(nil)
	_, err := run(t, listCmd)
	assert.ErrorIs(t, err, errNoApp)
}
