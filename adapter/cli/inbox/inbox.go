package inbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/spf13/cobra"
)

var errNoApp = errors.New("inbox commands require a configured store (see ALLIE_STORE_BACKEND)")

// Cmd groups all inbox commands.
var Cmd = &cobra.Command{
	Use:   "inbox",
	Short: "Review and act on the family inbox",
}

func init() {
	Cmd.AddCommand(captureCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(applyCmd)
	Cmd.AddCommand(retryCmd)
	Cmd.AddCommand(archiveCmd)
}

// loadedApp returns the app with a freshly loaded inbox.
func loadedApp(ctx context.Context) (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.ListItemsHandler == nil {
		return nil, errNoApp
	}
	if err := app.LoadInbox(ctx); err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	return app, nil
}

func parseKey(raw string) (domain.ItemKey, error) {
	return domain.ParseItemKey(raw)
}
