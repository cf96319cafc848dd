package family

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/allie/adapter/cli"
	familyDomain "github.com/felixgeelhaar/allie/internal/family/domain"
	"github.com/spf13/cobra"
)

var errNoApp = errors.New("family commands require a configured store (see STORE_BACKEND)")

var (
	memberRole  string
	memberPhone string
	memberEmail string
)

// Cmd is the family command group.
var Cmd = &cobra.Command{
	Use:   "family",
	Short: "Manage the family members tasks and events are assigned to",
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a family member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Members == nil {
			return errNoApp
		}

		member, err := familyDomain.NewMember(app.FamilyID, args[0], familyDomain.ParseRole(memberRole))
		if err != nil {
			return err
		}
		member.Phone = memberPhone
		member.Email = memberEmail
		if err := app.Members.Save(cmd.Context(), member); err != nil {
			return fmt.Errorf("failed to save member: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", member.Name, member.Role)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List family members",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Members == nil {
			return errNoApp
		}

		members, err := app.Members.ListByFamily(cmd.Context(), app.FamilyID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(members) == 0 {
			fmt.Fprintln(out, "No family members yet. Add one with: allie family add <name> --role parent")
			return nil
		}
		for _, m := range members {
			fmt.Fprintf(out, "%-20s %-10s %s\n", m.Name, m.Role, m.ID)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&memberRole, "role", "other", "parent, child, caregiver or other")
	addCmd.Flags().StringVar(&memberPhone, "phone", "", "phone number")
	addCmd.Flags().StringVar(&memberEmail, "email", "", "email address")

	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
}
