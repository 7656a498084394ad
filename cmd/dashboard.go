// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"

	"foodshare/cli/internal/backend"
	"foodshare/cli/internal/session"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	dashSearch string
	dashSort   string
)

// dashboardCmd is the landing view: what is available to request, and where
// the user's own requests and donations stand.
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"home"},
	Short:   "Available donations and your own activity",
	Long: `The dashboard command lists available donations together with your requests
and donations. The three lists are loaded in parallel.

Examples:
  foodshare dashboard
  foodshare dashboard --search bread --sort quantity`,

	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := backend.ParseSortKey(dashSort)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		u, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}

		var (
			available []backend.Donation
			requests  []backend.Request
			donations []backend.Donation
		)
		err = withSpinner(a.out, "Loading dashboard", func() error {
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				ds, err := be.AvailableDonations(gctx)
				if err != nil {
					return &loadError{"Failed to load donations", err}
				}
				available = ds
				return nil
			})
			g.Go(func() error {
				rs, err := be.MyRequests(gctx)
				if err != nil {
					return &loadError{"Failed to load your requests", err}
				}
				requests = rs
				return nil
			})
			g.Go(func() error {
				ds, err := be.MyDonations(gctx)
				if err != nil {
					return &loadError{"Failed to load donations", err}
				}
				donations = ds
				return nil
			})
			return g.Wait()
		})
		var le *loadError
		if errors.As(err, &le) {
			return a.fail("load dashboard", le.fallback, le.err)
		}
		if err != nil {
			return err
		}

		available = backend.FilterDonations(available, dashSearch)
		backend.SortDonations(available, key)

		fmt.Fprintf(a.out, "👋 Welcome, %s (%s)\n\n", u.DisplayName(), u.Role)
		fmt.Fprintln(a.out, pterm.Bold.Sprint("Available Donations"))
		if err := renderDonations(a.out, available); err != nil {
			return err
		}
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, pterm.Bold.Sprint("My Requests"))
		if err := renderRequests(a.out, requests, false); err != nil {
			return err
		}
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, pterm.Bold.Sprint("My Donations"))
		if err := renderDonations(a.out, donations); err != nil {
			return err
		}

		switch u.Role {
		case session.RoleVolunteer:
			fmt.Fprintln(a.out, "\nRun 'foodshare volunteer list' to pick up donations.")
		case session.RoleAdmin:
			fmt.Fprintln(a.out, "\nRun 'foodshare requests list' to review requests.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashSearch, "search", "", "filter available donations by title or category")
	dashboardCmd.Flags().StringVar(&dashSort, "sort", "date", "sort available donations by date or quantity")
}

// loadError carries the user-facing fallback of the first failed load.
type loadError struct {
	fallback string
	err      error
}

func (e *loadError) Error() string { return e.err.Error() }
func (e *loadError) Unwrap() error { return e.err }
