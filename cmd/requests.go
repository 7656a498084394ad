// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"

	"foodshare/cli/internal/backend"
	"foodshare/cli/internal/notify"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"request", "r"},
	Short:   "Request donations and follow up on requests",
}

var requestsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all requests you can review",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		rs, err := be.AllRequests(ctx)
		if err != nil {
			return a.fail("load requests", "Failed to load requests", err)
		}
		return renderRequests(a.out, rs, true)
	},
}

var requestsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the requests you made",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		rs, err := be.MyRequests(ctx)
		if err != nil {
			return a.fail("load requests", "Failed to load your requests", err)
		}
		return renderRequests(a.out, rs, false)
	},
}

var requestMessage string

var requestsCreateCmd = &cobra.Command{
	Use:   "create <donation-id>",
	Short: "Request a donation",
	Long: `Ask the donor for a donation. The message is shown to the donor.

Example:
  foodshare requests create 12 --message "Can pick up tonight after 6pm"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("donation", args[0])
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		if err := be.CreateRequest(ctx, id, requestMessage); err != nil {
			return a.fail("send request", "Failed to send request", err)
		}
		a.note.Notify(notify.Success, "Request sent")
		return nil
	},
}

var cancelRequestYes bool

var requestsCancelCmd = &cobra.Command{
	Use:   "cancel <request-id>",
	Short: "Withdraw one of your requests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		r, err := findRequest(ctx, be.MyRequests, args[0])
		if err != nil {
			return err
		}
		if !backend.CanCancelRequest(*r) {
			fmt.Fprintf(a.out, "Request %s is %s and can no longer be cancelled.\n", r.ID, r.Status)
			return nil
		}
		if !cancelRequestYes {
			ok, err := a.Prompter().Confirm("Are you sure you want to cancel this request?")
			if err != nil || !ok {
				return err
			}
		}
		if err := be.CancelRequest(ctx, r.ID); err != nil {
			return a.fail("cancel request", "Failed to cancel request", err)
		}
		a.note.Notify(notify.Success, "Request cancelled")
		return nil
	},
}

func decideCmd(use, short string, approve bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <request-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			_, be, err := a.Require(ctx, "")
			if err != nil {
				return err
			}
			r, err := findRequest(ctx, be.AllRequests, args[0])
			if err != nil {
				return err
			}
			if !backend.CanDecideRequest(*r) {
				fmt.Fprintf(a.out, "Request %s is %s; only pending requests can be decided.\n", r.ID, r.Status)
				return nil
			}
			if err := be.DecideRequest(ctx, r.ID, approve); err != nil {
				return a.fail(use+" request", "Action failed", err)
			}
			if approve {
				a.note.Notify(notify.Success, "Approved")
			} else {
				a.note.Notify(notify.Success, "Rejected")
			}
			return nil
		},
	}
}

var contactOpen bool

var requestsContactCmd = &cobra.Command{
	Use:   "contact <request-id>",
	Short: "Email the donor of a requested donation",
	Long: `Print a mailto link addressed to the donor of the donation behind one of your
requests. With --open the link is handed to your mail client.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		r, err := findRequest(ctx, be.MyRequests, args[0])
		if err != nil {
			return err
		}
		link, err := backend.ContactLink(r.Donation)
		if errors.Is(err, backend.ErrNoDonorEmail) {
			a.note.Notify(notify.Error, "Donor email not available")
			return fmt.Errorf("contact donor: %w", errors.Join(errReported, err))
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, link)
		if contactOpen {
			if err := openBrowser(link); err != nil {
				log.Debugf("contact: opening mail client: %v", err)
				fmt.Fprintln(a.out, "Could not open a mail client; use the link above.")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(requestsCmd)
	requestsCmd.AddCommand(requestsListCmd, requestsMineCmd, requestsCreateCmd, requestsCancelCmd,
		decideCmd("approve", "Approve a pending request", true),
		decideCmd("reject", "Reject a pending request", false),
		requestsContactCmd)

	requestsCreateCmd.Flags().StringVarP(&requestMessage, "message", "m", "", "message for the donor")
	requestsCancelCmd.Flags().BoolVarP(&cancelRequestYes, "yes", "y", false, "do not ask for confirmation")
	requestsContactCmd.Flags().BoolVar(&contactOpen, "open", false, "open the link in the default mail client")
}

// findRequest looks up the request with the given id argument in a listing.
func findRequest(ctx context.Context, list func(context.Context) ([]backend.Request, error), arg string) (*backend.Request, error) {
	id, err := parseID("request", arg)
	if err != nil {
		return nil, err
	}
	rs, err := list(ctx)
	if err != nil {
		return nil, a.fail("load requests", "Failed to load requests", err)
	}
	for i := range rs {
		if rs[i].ID == id {
			return &rs[i], nil
		}
	}
	return nil, fmt.Errorf("request %s not found", id)
}
