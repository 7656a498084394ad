// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"errors"
	"fmt"
)

// Decision is the outcome of guarding a role-gated view.
type Decision int

const (
	// Wait means the session is still resolving; no decision yet.
	Wait Decision = iota
	// RedirectLogin means nobody is logged in.
	RedirectLogin
	// RedirectDashboard means the user lacks the required role.
	RedirectDashboard
	// Allow grants access.
	Allow
)

var (
	ErrNotLoggedIn = errors.New("you are not logged in")
	ErrForbidden   = errors.New("your role does not allow this")
)

// Guard decides access for snapshot s to a view requiring role required
// (empty means any authenticated user). Once s.Loading is false the decision
// is final for the lifetime of the Manager's resolution.
func Guard(s Snapshot, required Role) Decision {
	switch {
	case s.Loading:
		return Wait
	case s.User == nil:
		return RedirectLogin
	case !HasRole(s.User, required):
		return RedirectDashboard
	default:
		return Allow
	}
}

// Require waits for resolution and returns the user if Guard allows access.
func (m *Manager) Require(ctx context.Context, required Role) (*User, error) {
	if err := m.Wait(ctx); err != nil {
		return nil, err
	}
	s := m.Snapshot()
	switch Guard(s, required) {
	case Allow:
		return s.User, nil
	case RedirectLogin:
		return nil, ErrNotLoggedIn
	case RedirectDashboard:
		return nil, fmt.Errorf("%w: requires %s, you are %s", ErrForbidden, required, s.User.Role)
	default:
		return nil, ErrNotLoggedIn
	}
}
