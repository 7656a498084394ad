// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
)

var loginEmail string

// loginCmd signs in with email and password and keeps the issued token in the
// token store for later commands.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in with email and password",
	Long: `The login command exchanges your email and password for a session token and
stores it in the OS keychain (or the file keyring with --no-keychain).
The password is read without echo when stdin is a terminal.

If a stored session is still valid, login reports the current account and
does nothing else.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		// A stale token or wrong credentials come back as 401; neither is
		// a lost session worth announcing.
		a.nav.muted.Store(true)
		defer a.nav.muted.Store(false)

		m, err := a.Session(ctx)
		if err != nil {
			return err
		}

		if err := m.Wait(ctx); err != nil {
			return err
		}
		if s := m.Snapshot(); s.Authenticated() {
			fmt.Fprintf(a.out, "Already logged in as %s\n", s.User.DisplayName())
			return nil
		}

		p := a.Prompter()
		email := loginEmail
		if email == "" {
			if email, err = p.Line("Email: "); err != nil {
				return err
			}
		}
		password, err := p.Secret("Password: ")
		if err != nil {
			return err
		}
		p.Erase("Password: ")
		if email == "" || password == "" {
			return errors.New("email and password are required")
		}

		var name string
		err = withSpinner(a.out, "Signing in", func() error {
			resp, lerr := m.Login(ctx, email, password)
			if lerr == nil {
				name = resp.User().DisplayName()
			}
			return lerr
		})
		if err != nil {
			return a.fail("login", "Login failed", err)
		}
		fmt.Fprintln(a.out, loginGreeting(name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when omitted)")
}

// loginGreeting returns a random greeting phrase with the user's identifier.
func loginGreeting(identifier string) string {
	greetings := []string{
		"🎉 Welcome back, %s!",
		"✨ Great to see you, %s!",
		"🥕 Ready to share some food, %s?",
		"👋 Hello %s!",
		"👤 Logged in as %s",
		"🎯 You're in, %s!",
	}
	return fmt.Sprintf(greetings[rand.Intn(len(greetings))], identifier)
}
