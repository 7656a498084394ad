// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"foodshare/cli/internal/api"
	"foodshare/cli/internal/backend"
	"foodshare/cli/internal/config"
	errs "foodshare/cli/internal/errors"
	"foodshare/cli/internal/httperrors"
	"foodshare/cli/internal/logging"
	"foodshare/cli/internal/notify"
	"foodshare/cli/internal/session"
	"foodshare/cli/internal/terminal"
	"foodshare/cli/internal/tokenstore"

	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
)

// errReported marks an error that was already shown to the user.
var errReported = errors.New("reported")

// openStore opens the persistent token store. Tests replace it.
var openStore = func(cfg *config.Config) (tokenstore.Store, error) {
	return tokenstore.OpenKeychain(tokenstore.Options{
		FileDir:        cfg.Keyring.FileDir,
		FilePassphrase: cfg.Keyring.Passphrase,
		FileOnly:       cfg.NoKeychain,
	})
}

// app holds everything a command needs. Collaborators are built on first use
// so that commands like version never touch the keychain or the network.
type app struct {
	cfg     *config.Config
	cfgPath string
	in      io.Reader
	out     io.Writer
	errOut  io.Writer

	note notify.Notifier
	nav  *loginNavigator

	once    sync.Once
	initErr error
	store   tokenstore.Store
	client  *api.Client
	be      backend.API

	sessOnce sync.Once
	sess     *session.Manager

	prompter *terminal.Prompter
}

func newApp(cfg *config.Config, cfgPath string, in io.Reader, out, errOut io.Writer) *app {
	return &app{
		cfg:     cfg,
		cfgPath: cfgPath,
		in:      in,
		out:     out,
		errOut:  errOut,
		note:    notify.NewTerminal(out),
		nav:     &loginNavigator{w: errOut},
	}
}

func (a *app) init() error {
	a.once.Do(func() {
		store, err := openStore(a.cfg)
		if err != nil {
			a.initErr = err
			return
		}
		a.store = store
		a.client = api.NewPipeline(a.cfg.APIURL, store, a.nav,
			api.WithTimeout(a.cfg.Timeout),
			api.WithUserAgent("foodshare-cli/"+Version),
		)
		a.be = backend.New(a.client)
		log.Debugf("app: api %s, timeout %s", a.client.BaseURL(), a.cfg.Timeout)
	})
	return a.initErr
}

// Backend returns the typed endpoint client.
func (a *app) Backend() (backend.API, error) {
	if err := a.init(); err != nil {
		return nil, err
	}
	return a.be, nil
}

// Session returns the session manager, starting resolution of the stored
// credential on first use.
func (a *app) Session(ctx context.Context) (*session.Manager, error) {
	if err := a.init(); err != nil {
		return nil, err
	}
	a.sessOnce.Do(func() {
		a.sess = session.New(ctx, session.Deps{
			Store:     a.store,
			API:       a.client,
			Notifier:  a.note,
			Navigator: a.nav,
		})
	})
	return a.sess, nil
}

// Require resolves the session and gates on role. Denials are explained and
// reported.
func (a *app) Require(ctx context.Context, role session.Role) (*session.User, backend.API, error) {
	// A stale stored token surfaces below as "not logged in".
	a.nav.muted.Store(true)
	m, err := a.Session(ctx)
	if err != nil {
		a.nav.muted.Store(false)
		return nil, nil, err
	}
	var u *session.User
	err = withSpinner(a.out, "Checking session", func() error {
		var rerr error
		u, rerr = m.Require(ctx, role)
		return rerr
	})
	a.nav.muted.Store(false)
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "🔒 You're not logged in yet!")
		fmt.Fprintln(a.out, "   Run 'foodshare login' to get started.")
		return nil, nil, errReported
	case errors.Is(err, session.ErrForbidden):
		a.note.Notify(notify.Error, fmt.Sprintf("This needs the %s role. Run 'foodshare dashboard' to see what you can do.", role))
		return nil, nil, errReported
	case err != nil:
		return nil, nil, err
	}
	return u, a.be, nil
}

// Prompter reads interactive input. One Prompter serves the whole run so that
// buffered input survives between questions.
func (a *app) Prompter() *terminal.Prompter {
	if a.prompter == nil {
		a.prompter = terminal.NewPrompter(a.in, a.out)
	}
	return a.prompter
}

// fail shows err to the user the way the pages showed toasts: the server's
// own message when it sent one, else fallback. Network failures get the
// detailed explanation.
func (a *app) fail(action, fallback string, err error) error {
	if err == nil {
		return nil
	}
	log.Debug(logging.PresentError(action, err))
	switch {
	case errs.IsKind(err, errs.CredentialRejected):
		// The navigator already told the user to log in again.
		a.note.Notify(notify.Error, api.ServerMessage(err, fallback))
	case errs.IsKind(err, errs.TransportFailure) && api.StatusCode(err) == 0 && !errors.Is(err, context.Canceled):
		_ = httperrors.FormatNetworkError(a.errOut, err, action, httperrors.ExtractHostFromURL(a.cfg.APIURL))
	case errs.IsKind(err, errs.ProtocolViolation):
		a.note.Notify(notify.Error, fmt.Sprintf("%s: unexpected response from server", fallback))
	default:
		a.note.Notify(notify.Error, api.ServerMessage(err, fallback))
	}
	return fmt.Errorf("%s: %w", action, errors.Join(errReported, err))
}

// loginNavigator is the terminal's "go to login": it tells the user how to
// sign in. It speaks once per run and can be muted while a login is underway.
type loginNavigator struct {
	w     io.Writer
	muted atomic.Bool
	said  atomic.Bool
}

func (n *loginNavigator) ToLogin() {
	if n.muted.Load() || !n.said.CompareAndSwap(false, true) {
		return
	}
	fmt.Fprintln(n.w, pterm.Warning.Sprint("Session ended. Run 'foodshare login' to sign in."))
}
