package records

import (
	"fmt"
	"strings"

	linkingDomain "github.com/felixgeelhaar/allie/internal/linking/domain"
	"github.com/spf13/cobra"
)

var relatedCmd = &cobra.Command{
	Use:   "related <type:id>",
	Short: "Show records linked to an inbox item, event, task or contact",
	Long: `Show what a record is linked to.

Examples:
  allie records related inbox_item:emailInbox/abc123
  allie records related task:4f1c...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		kind, id, ok := strings.Cut(args[0], ":")
		if !ok || kind == "" || id == "" {
			return fmt.Errorf("expected <type:id>, got %q", args[0])
		}

		links, err := app.LinkingService.Related(cmd.Context(), linkingDomain.Ref{Type: linkingDomain.EntityType(kind), ID: id})
		if err != nil {
			return fmt.Errorf("failed to read links: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(links) == 0 {
			fmt.Fprintln(out, "No linked records.")
			return nil
		}
		for _, l := range links {
			fmt.Fprintf(out, "%-13s %s\n", l.Relation, l.To)
		}
		return nil
	},
}
