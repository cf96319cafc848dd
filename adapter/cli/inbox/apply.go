package inbox

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/allie/internal/inbox/application/commands"
	"github.com/spf13/cobra"
)

var applyAll bool

var applyCmd = &cobra.Command{
	Use:   "apply <collection/id> [index]",
	Short: "Create the calendar event, task or contact a suggestion describes",
	Long: `Apply one suggested action by index, or every pending action with --all.
Actions that were already applied are skipped.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		command := commands.ApplyActionCommand{Key: key, All: applyAll}
		if !applyAll {
			if len(args) != 2 {
				return fmt.Errorf("give an action index or --all")
			}
			command.Index, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid action index %q", args[1])
			}
		}

		app, err := loadedApp(cmd.Context())
		if err != nil {
			return err
		}

		result, applyErr := app.ApplyActionHandler.Handle(cmd.Context(), command)
		if result == nil {
			return applyErr
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d done, %d pending, %d failed\n", key, result.Completed, result.Pending, result.Failed)
		for i, a := range result.Item.SuggestedActions {
			if a.Link != "" {
				fmt.Fprintf(out, "  [%d] %s -> %s\n", i, a.Title, a.Link)
			}
		}
		return applyErr
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyAll, "all", false, "apply every pending action")
}
