package cli

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/allie/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage, broker and feed health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		if app.Health == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}
		if err := app.LoadInbox(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load inbox: %w", err)
		}

		health := app.Health.Check(cmd.Context())
		names := make([]string, 0, len(health.Checks))
		for name := range health.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status: %s\n", health.Status)
		for _, name := range names {
			check := health.Checks[name]
			fmt.Fprintf(out, "  %-12s %-9s %s\n", name, check.Status, check.Message)
		}
		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
