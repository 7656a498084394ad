package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// whoamiCmd shows the account behind the stored session token. The token is
// checked against the backend; a rejected token is forgotten.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show the current account",
	Long: `The whoami command displays the currently signed-in account. It validates the
stored token with the backend and shows the profile if the token is still
accepted. A token the backend no longer accepts is removed.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		// An expired token is the expected case here, not news.
		a.nav.muted.Store(true)
		m, err := a.Session(ctx)
		if err != nil {
			return err
		}
		if err := withSpinner(a.out, "Checking session", func() error { return m.Wait(ctx) }); err != nil {
			return err
		}

		s := m.Snapshot()
		if !s.Authenticated() {
			fmt.Fprintln(a.out, "🔒 You're not logged in yet!")
			fmt.Fprintln(a.out, "   Run 'foodshare login' to get started.")
			return nil
		}
		u := s.User
		fmt.Fprintf(a.out, "👤 Current user: %s\n", u.DisplayName())
		if u.Email != "" && u.Email != u.DisplayName() {
			fmt.Fprintf(a.out, "   Email: %s\n", u.Email)
		}
		fmt.Fprintf(a.out, "   Role:  %s\n", u.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
