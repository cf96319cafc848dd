package records

import (
	"fmt"

	"github.com/spf13/cobra"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List family contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		contacts, err := app.ContactService.ListContacts(cmd.Context(), app.FamilyID)
		if err != nil {
			return fmt.Errorf("failed to list contacts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(contacts) == 0 {
			fmt.Fprintln(out, "No contacts.")
			return nil
		}
		for _, c := range contacts {
			fmt.Fprintf(out, "%s", c.Name)
			if c.Role != "" {
				fmt.Fprintf(out, " (%s)", c.Role)
			}
			fmt.Fprintln(out)
			if c.Phone != "" {
				fmt.Fprintf(out, "    phone: %s\n", c.Phone)
			}
			if c.Email != "" {
				fmt.Fprintf(out, "    email: %s\n", c.Email)
			}
		}
		return nil
	},
}
