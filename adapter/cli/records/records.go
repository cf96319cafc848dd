package records

import (
	"errors"

	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/spf13/cobra"
)

var errNoApp = errors.New("record commands require a configured store (see STORE_BACKEND)")

// Cmd groups the commands that show records created from the inbox.
var Cmd = &cobra.Command{
	Use:   "records",
	Short: "Show calendar events, tasks and contacts created from the inbox",
}

func init() {
	Cmd.AddCommand(eventsCmd)
	Cmd.AddCommand(tasksCmd)
	Cmd.AddCommand(contactsCmd)
	Cmd.AddCommand(relatedCmd)
}

func requireApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.CalendarService == nil {
		return nil, errNoApp
	}
	return app, nil
}
