package cmd

import (
	"fmt"

	"foodshare/cli/internal/notify"
	"foodshare/cli/internal/session"

	"github.com/spf13/cobra"
)

// adminCmd groups user management. Only admins may use it.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage users (ADMIN role)",
}

var disableYes bool

var adminDisableUserCmd = &cobra.Command{
	Use:   "disable-user <user-id>",
	Short: "Disable a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("user", args[0])
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, session.RoleAdmin)
		if err != nil {
			return err
		}
		if !disableYes {
			ok, err := a.Prompter().Confirm(fmt.Sprintf("Disable user %s?", id))
			if err != nil || !ok {
				return err
			}
		}
		if err := be.DisableUser(ctx, id); err != nil {
			return a.fail("disable user", "Failed to disable user", err)
		}
		a.note.Notify(notify.Success, "User disabled")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminDisableUserCmd)
	adminDisableUserCmd.Flags().BoolVarP(&disableYes, "yes", "y", false, "do not ask for confirmation")
}
