package records

import (
	"fmt"
	"strings"

	tasksDomain "github.com/felixgeelhaar/allie/internal/tasks/domain"
	"github.com/spf13/cobra"
)

var tasksColumn string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List family tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		tasks, err := app.TaskService.ListTasks(cmd.Context(), app.FamilyID, tasksDomain.Column(tasksColumn))
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks.")
			return nil
		}
		for _, t := range tasks {
			due := ""
			if t.DueAt != nil {
				due = " due " + t.DueAt.Local().Format("Jan 2")
			}
			fmt.Fprintf(out, "[%s] %s (%s)%s\n", t.Column, t.Title, t.Priority, due)
			if len(t.AssigneeIDs) > 0 {
				fmt.Fprintf(out, "    assigned: %s\n", strings.Join(t.AssigneeIDs, ", "))
			}
		}
		return nil
	},
}

func init() {
	tasksCmd.Flags().StringVar(&tasksColumn, "column", "", "only tasks in this column (today, upcoming)")
}
