package inbox

import (
	"fmt"

	"github.com/felixgeelhaar/allie/internal/inbox/application/commands"
	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry <collection/id>",
	Short: "Classify an item again, ignoring its retry budget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		app, err := loadedApp(cmd.Context())
		if err != nil {
			return err
		}

		item, err := app.RetryItemHandler.Handle(cmd.Context(), commands.RetryItemCommand{Key: key})
		if err != nil {
			return fmt.Errorf("classification failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is %s: %s\n", key, item.Status, item.Summary)
		return nil
	},
}
