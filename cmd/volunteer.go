package cmd

import (
	"foodshare/cli/internal/backend"
	"foodshare/cli/internal/notify"
	"foodshare/cli/internal/session"

	"github.com/spf13/cobra"
)

// volunteerCmd groups the pickup workflow. Only volunteers may use it.
var volunteerCmd = &cobra.Command{
	Use:   "volunteer",
	Short: "Pick up donations (VOLUNTEER role)",
}

var volunteerListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List donations waiting for pickup",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, session.RoleVolunteer)
		if err != nil {
			return err
		}
		ds, err := be.AvailableDonations(ctx)
		if err != nil {
			return a.fail("load donations", "Failed to load donations", err)
		}
		backend.SortDonations(ds, backend.SortByDate)
		return renderDonations(a.out, ds)
	},
}

var volunteerAcceptCmd = &cobra.Command{
	Use:   "accept <donation-id>",
	Short: "Accept a pickup; the donor is notified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("donation", args[0])
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, session.RoleVolunteer)
		if err != nil {
			return err
		}
		if err := be.AcceptPickup(ctx, id); err != nil {
			return a.fail("accept pickup", "Failed to accept", err)
		}
		a.note.Notify(notify.Success, "Accepted, donor notified")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(volunteerCmd)
	volunteerCmd.AddCommand(volunteerListCmd, volunteerAcceptCmd)
}
