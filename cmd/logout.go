// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"
)

// logoutCmd forgets the stored session token.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved session token",
	Long: `The logout command removes the session token from the token store. It works
whether or not the token is still valid and never contacts the backend.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.init(); err != nil {
			return err
		}
		if err := a.store.Clear(); err != nil {
			return err
		}
		m, err := a.Session(cmd.Context())
		if err != nil {
			return err
		}
		// Nobody to tell where to sign in: the user asked for this.
		a.nav.muted.Store(true)
		m.Logout()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
