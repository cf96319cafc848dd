package records

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var (
	eventsFrom string
	eventsDays int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List calendar events",
	Long: `List the family's calendar events starting from a date.

Examples:
  allie records events                     # Next 14 days
  allie records events --from 2026-03-01 --days 31`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		from := time.Now()
		if eventsFrom != "" {
			from, err = time.ParseInLocation(dateLayout, eventsFrom, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --from, use YYYY-MM-DD: %w", err)
			}
		}
		from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
		to := from.AddDate(0, 0, eventsDays)

		events, err := app.CalendarService.ListEvents(cmd.Context(), app.FamilyID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No events.")
			return nil
		}
		for _, e := range events {
			when := e.Start.Local().Format("Mon Jan 2 15:04")
			if e.AllDay {
				when = e.Start.Local().Format("Mon Jan 2") + " all day"
			}
			fmt.Fprintf(out, "%-22s %s\n", when, e.Title)
			if e.Location != "" {
				fmt.Fprintf(out, "%-22s @ %s\n", "", e.Location)
			}
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsFrom, "from", "", "first day (YYYY-MM-DD, default today)")
	eventsCmd.Flags().IntVar(&eventsDays, "days", 14, "number of days to show")
}
