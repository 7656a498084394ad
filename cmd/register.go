// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"foodshare/cli/internal/session"

	"github.com/spf13/cobra"
)

var (
	registerName  string
	registerEmail string
	registerRole  string
)

// registerCmd creates an account and signs into it.
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `The register command creates a new account and signs into it straight away.
Roles decide what you can do: USER donates and requests food, VOLUNTEER also
accepts pickups, ADMIN also manages users.

Example:
  foodshare register --name "Ann" --email ann@example.com --role VOLUNTEER`,

	RunE: func(cmd *cobra.Command, args []string) error {
		role := session.Role(strings.ToUpper(strings.TrimSpace(registerRole)))
		if role == "" {
			role = session.RoleUser
		}
		if !role.Known() {
			return fmt.Errorf("unknown role %q (want one of %v)", registerRole, session.Roles)
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		a.nav.muted.Store(true)
		defer a.nav.muted.Store(false)

		m, err := a.Session(ctx)
		if err != nil {
			return err
		}

		p := a.Prompter()
		name, email := registerName, registerEmail
		if name == "" {
			if name, err = p.Line("Name: "); err != nil {
				return err
			}
		}
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
		if name == "" || email == "" || password == "" {
			return errors.New("name, email and password are required")
		}

		var u session.User
		err = withSpinner(a.out, "Creating account", func() error {
			resp, rerr := m.Register(ctx, name, email, password, role)
			if rerr == nil {
				u = resp.User()
			}
			return rerr
		})
		if err != nil {
			return a.fail("register", "Registration failed", err)
		}
		fmt.Fprintf(a.out, "👤 Welcome, %s! You are registered as %s.\n", u.DisplayName(), u.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerRole, "role", string(session.RoleUser), "USER, VOLUNTEER or ADMIN")
}
