package inbox

import (
	"fmt"

	"github.com/felixgeelhaar/allie/internal/inbox/application/commands"
	"github.com/spf13/cobra"
)

var unarchive bool

var archiveCmd = &cobra.Command{
	Use:   "archive <collection/id>...",
	Short: "Hide items from the active inbox",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadedApp(cmd.Context())
		if err != nil {
			return err
		}
		verb := "archived"
		if unarchive {
			verb = "restored"
		}
		for _, raw := range args {
			key, err := parseKey(raw)
			if err != nil {
				return err
			}
			if _, err := app.ArchiveItemHandler.Handle(cmd.Context(), commands.ArchiveItemCommand{Key: key, Unarchive: unarchive}); err != nil {
				return fmt.Errorf("failed to archive %s: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, key)
		}
		return nil
	},
}

func init() {
	archiveCmd.Flags().BoolVar(&unarchive, "undo", false, "restore archived items")
}
