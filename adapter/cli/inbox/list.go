package inbox

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/felixgeelhaar/allie/internal/inbox/application/queries"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/spf13/cobra"
)

var (
	listArchived bool
	listSource   string
	listStatus   string
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List inbox items, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadedApp(cmd.Context())
		if err != nil {
			return err
		}

		query := queries.ListItemsQuery{
			IncludeArchived: listArchived,
			Limit:           listLimit,
		}
		if listSource != "" {
			source, ok := domain.ParseSource(listSource)
			if !ok {
				return fmt.Errorf("unknown source %q", listSource)
			}
			query.Source = source
		}
		if listStatus != "" {
			query.Status = domain.ParseStatus(listStatus)
		}

		items, err := app.ListItemsHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list inbox items: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "Inbox is empty.")
			return nil
		}

		for _, item := range items {
			flags := ""
			if item.Processing {
				flags += " (processing)"
			}
			if item.Archived {
				flags += " (archived)"
			}
			fmt.Fprintf(out, "%s [%s/%s]%s\n", item.Key, item.Source, item.Status, flags)
			fmt.Fprintf(out, "  %s\n", item.Title)
			if item.Summary != "" {
				fmt.Fprintf(out, "  Summary: %s\n", item.Summary)
			}
			if item.PendingActions+item.DoneActions+item.FailedActions > 0 {
				fmt.Fprintf(out, "  Actions: %d pending, %d done, %d failed\n", item.PendingActions, item.DoneActions, item.FailedActions)
			}
			if item.Error != "" && cli.Verbose() {
				fmt.Fprintf(out, "  Error: %s\n", item.Error)
			}
			fmt.Fprintf(out, "  Received: %s\n", item.ReceivedAt)
			fmt.Fprintln(out, strings.Repeat("-", 60))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "include archived items")
	listCmd.Flags().StringVar(&listSource, "source", "", "only items from this source (document, email, sms, mms)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "only items with this status")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of items")
}
