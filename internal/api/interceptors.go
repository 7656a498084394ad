// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package api

import (
	"net/http"
	"sync"

	"foodshare/cli/internal/tokenstore"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Navigator sends the user to an entry point of the application.
type Navigator interface {
	// ToLogin forces navigation to the login entry point.
	ToLogin()
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

// BearerAuth attaches the stored token as "Authorization: Bearer <token>".
// Without a token the call goes out unauthenticated.
func BearerAuth(store tokenstore.Store) RequestInterceptor {
	return func(req *http.Request) error {
		if token, ok := store.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// RequestID tags the call with X-Request-ID unless the caller already set one.
func RequestID() RequestInterceptor {
	return func(req *http.Request) error {
		if req.Header.Get("X-Request-ID") == "" {
			req.Header.Set("X-Request-ID", uuid.NewString())
		}
		return nil
	}
}

// RejectOnUnauthorized reacts to "401 Unauthorized" from any call: it clears
// store, notifies subs and navigates to login. The response itself still
// reaches the caller, which sees a CredentialRejected error.
func RejectOnUnauthorized(store tokenstore.Store, nav Navigator, subs *Rejections) ResponseInterceptor {
	return func(resp *http.Response) error {
		if resp.StatusCode != http.StatusUnauthorized {
			return nil
		}
		log.Debugf("api: credential rejected by %s %s", resp.Request.Method, resp.Request.URL.Path)
		if err := store.Clear(); err != nil {
			log.Warnf("api: clearing rejected token: %v", err)
		}
		if subs != nil {
			subs.publish()
		}
		if nav != nil {
			nav.ToLogin()
		}
		return nil
	}
}

// Rejections fans a credential rejection out to its subscribers.
type Rejections struct {
	mu   sync.Mutex
	subs []func()
}

// Subscribe registers fn. It is called synchronously, in subscription order.
func (r *Rejections) Subscribe(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *Rejections) publish() {
	r.mu.Lock()
	subs := append([]func(){}, r.subs...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
