// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session owns the client's belief about who is logged in.
//
// A Manager starts in Resolving, settles exactly once into Authenticated or
// Anonymous, and from then on only moves between those two through Login,
// Register, Logout or a credential rejection seen by the request pipeline.
// Every transition bumps an epoch; the startup profile fetch applies its result
// only if no transition happened while it was in flight.
package session

import (
	"context"
	"net/url"
	"sync"

	"foodshare/cli/internal/api"
	errs "foodshare/cli/internal/errors"
	"foodshare/cli/internal/notify"
	"foodshare/cli/internal/tokenstore"

	log "github.com/sirupsen/logrus"
)

// Backend paths used by the session layer.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathMe       = "/users/me"
)

// State is the session state machine's current state.
type State int

const (
	Resolving State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	State   State
	User    *User
	Loading bool
}

// Authenticated reports whether a user is logged in.
func (s Snapshot) Authenticated() bool { return s.User != nil }

// Pipeline is the part of the request pipeline the session layer uses.
type Pipeline interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, query url.Values, body, out any) error
	OnCredentialRejected(fn func())
}

// Deps are the Manager's collaborators.
type Deps struct {
	Store     tokenstore.Store
	API       Pipeline
	Notifier  notify.Notifier
	Navigator api.Navigator
}

// Manager is the single writer of session state.
type Manager struct {
	store tokenstore.Store
	api   Pipeline
	note  notify.Notifier
	nav   api.Navigator

	mu      sync.RWMutex
	state   State
	user    *User
	loading bool
	epoch   uint64
	ready   chan struct{}
	cancel  context.CancelFunc
}

// New builds a Manager and starts resolving the persisted credential.
//
// Without a stored token the session is Anonymous immediately and no call is
// made. With one, a single GET /users/me is issued in the background; Wait
// blocks until it settles. Cancelling ctx abandons the fetch.
func New(ctx context.Context, d Deps) *Manager {
	m := &Manager{
		store:   d.Store,
		api:     d.API,
		note:    d.Notifier,
		nav:     d.Navigator,
		state:   Resolving,
		loading: true,
		ready:   make(chan struct{}),
	}
	if m.note == nil {
		m.note = &notify.Recorder{}
	}
	m.api.OnCredentialRejected(m.reject)

	if _, ok := m.store.Get(); !ok {
		m.mu.Lock()
		m.settle(Anonymous, nil)
		m.mu.Unlock()
		return m
	}

	rctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.resolve(rctx, m.epoch)
	return m
}

func (m *Manager) resolve(ctx context.Context, epoch uint64) {
	var u User
	err := m.api.Get(ctx, PathMe, nil, &u)
	if err == nil && u.ID == "" && u.Email == "" {
		err = errs.New(errs.ProtocolViolation, "empty profile")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		log.Debugf("session: dropping stale profile resolution (epoch %d, now %d)", epoch, m.epoch)
		return
	}
	if err != nil && ctx.Err() != nil {
		// Abandoned by the caller; the credential was never judged.
		m.settle(Anonymous, nil)
		return
	}
	if err != nil {
		log.Debugf("session: stored credential not accepted: %v", err)
		if cerr := m.store.Clear(); cerr != nil {
			log.Warnf("session: clearing stored token: %v", cerr)
		}
		m.settle(Anonymous, nil)
		return
	}
	m.settle(Authenticated, &u)
}

// settle moves to state and, the first time, ends the resolving phase.
// Callers hold m.mu.
func (m *Manager) settle(state State, u *User) {
	m.state = state
	m.user = u
	if m.loading {
		m.loading = false
		close(m.ready)
		if m.cancel != nil {
			m.cancel()
		}
	}
}

// Wait blocks until the initial resolution has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{State: m.state, Loading: m.loading}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Login authenticates with email and password.
//
// On success the token is stored, the session becomes Authenticated with the
// profile fields of the response, and the payload is returned. A response
// without a token is a ProtocolViolation and leaves store and session as they
// were. Transport errors are returned unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := m.api.Post(ctx, PathLogin, nil, credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if err := m.adopt(resp); err != nil {
		return nil, err
	}
	m.note.Notify(notify.Success, "Logged in")
	return &resp, nil
}

// Register creates an account and logs into it. An empty role registers a USER.
// The contract is otherwise that of Login.
func (m *Manager) Register(ctx context.Context, name, email, password string, role Role) (*AuthResponse, error) {
	if role == "" {
		role = RoleUser
	}
	body := credentials{Name: name, Email: email, Password: password, Role: role}

	var resp AuthResponse
	if err := m.api.Post(ctx, PathRegister, nil, body, &resp); err != nil {
		return nil, err
	}
	if err := m.adopt(resp); err != nil {
		return nil, err
	}
	m.note.Notify(notify.Success, "Registered")
	return &resp, nil
}

func (m *Manager) adopt(resp AuthResponse) error {
	if resp.Token == "" {
		return errs.New(errs.ProtocolViolation, "no token returned")
	}
	if err := m.store.Set(resp.Token); err != nil {
		return err
	}

	u := resp.User()
	m.mu.Lock()
	m.epoch++
	m.settle(Authenticated, &u)
	m.mu.Unlock()
	return nil
}

// Logout forgets the credential and the user, from any state. A profile fetch
// still in flight is cancelled and its result ignored.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		log.Warnf("session: clearing stored token: %v", err)
	}

	m.mu.Lock()
	m.epoch++
	m.settle(Anonymous, nil)
	m.mu.Unlock()

	m.note.Notify(notify.Info, "Logged out")
	if m.nav != nil {
		m.nav.ToLogin()
	}
}

// reject runs when the pipeline saw 401. The pipeline has already cleared the
// token and handles navigation; only in-memory state is reset here.
func (m *Manager) reject() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.settle(Anonymous, nil)
}
