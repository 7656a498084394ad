package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"foodshare/cli/internal/api"
	errs "foodshare/cli/internal/errors"
	"foodshare/cli/internal/notify"
	"foodshare/cli/internal/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type navCounter struct{ n atomic.Int32 }

func (c *navCounter) ToLogin() { c.n.Add(1) }

type fixture struct {
	store *tokenstore.Memory
	nav   *navCounter
	note  *notify.Recorder
	hits  map[string]int
	mu    sync.Mutex
	srv   *httptest.Server
	api   *api.Client
}

func newFixture(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fixture {
	t.Helper()
	f := &fixture{
		store: tokenstore.NewMemory(),
		nav:   &navCounter{},
		note:  &notify.Recorder{},
		hits:  map[string]int{},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.Method+" "+r.URL.Path]++
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.srv.Close)
	f.api = api.NewPipeline(f.srv.URL, f.store, f.nav)
	return f
}

func (f *fixture) manager(t *testing.T) *Manager {
	t.Helper()
	m := New(context.Background(), Deps{Store: f.store, API: f.api, Notifier: f.note, Navigator: f.nav})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
	return m
}

func (f *fixture) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_NoTokenIsAnonymousWithoutNetwork(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
	})

	m := f.manager(t)
	s := m.Snapshot()
	assert.Equal(t, Anonymous, s.State)
	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
	assert.Zero(t, f.hitCount("GET /users/me"))
}

func TestNew_ValidTokenResolvesProfile(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "email": "a@b.com", "name": "Ann", "role": "ADMIN"})
	})
	require.NoError(t, f.store.Set("t1"))

	m := f.manager(t)
	s := m.Snapshot()
	assert.Equal(t, Authenticated, s.State)
	assert.False(t, s.Loading)
	require.NotNil(t, s.User)
	assert.Equal(t, User{ID: "7", Email: "a@b.com", Name: "Ann", Role: RoleAdmin}, *s.User)
	assert.Equal(t, 1, f.hitCount("GET /users/me"))
}

func TestNew_FailedProfileFetchClearsToken(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusUnauthorized} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, status, map[string]any{"error": "nope"})
			})
			require.NoError(t, f.store.Set("stale"))

			m := f.manager(t)
			s := m.Snapshot()
			assert.Equal(t, Anonymous, s.State)
			assert.False(t, s.Loading)
			assert.Nil(t, s.User)

			_, ok := f.store.Get()
			assert.False(t, ok)
			assert.Empty(t, f.note.Entries(), "failed resolution is silent")
		})
	}
}

func TestNew_EmptyProfileIsNotALogin(t *testing.T) {
	for name, body := range map[string]string{"null": "null", "empty": "", "object": "{}"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			})
			require.NoError(t, f.store.Set("t1"))

			m := f.manager(t)
			s := m.Snapshot()
			assert.Equal(t, Anonymous, s.State)
			assert.Nil(t, s.User)

			_, ok := f.store.Get()
			assert.False(t, ok)

			_, err := m.Require(context.Background(), "")
			assert.ErrorIs(t, err, ErrNotLoggedIn)
		})
	}
}

func TestLogin_StoresTokenAndAuthenticates(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathLogin, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "pw", body["password"])
		writeJSON(w, http.StatusOK, map[string]any{"token": "t1", "userId": 1, "email": "a@b.com", "role": "USER"})
	})
	m := f.manager(t)

	resp, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.Token)

	tok, ok := f.store.Get()
	assert.True(t, ok)
	assert.Equal(t, "t1", tok)

	s := m.Snapshot()
	assert.Equal(t, Authenticated, s.State)
	require.NotNil(t, s.User)
	assert.Equal(t, RoleUser, s.User.Role)
	assert.Equal(t, ID("1"), s.User.ID)
	assert.Equal(t, []notify.Entry{{Level: notify.Success, Message: "Logged in"}}, f.note.Entries())
}

func TestLogin_MissingTokenIsProtocolViolation(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathMe {
			writeJSON(w, http.StatusOK, map[string]any{"id": 2, "email": "old@b.com", "role": "USER"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"userId": 1, "email": "a@b.com", "role": "USER"})
	})
	require.NoError(t, f.store.Set("previous"))
	m := f.manager(t)
	require.True(t, m.Snapshot().Authenticated())
	before := m.Snapshot()

	resp, err := m.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errs.IsKind(err, errs.ProtocolViolation))
	assert.Contains(t, err.Error(), "no token returned")

	tok, _ := f.store.Get()
	assert.Equal(t, "previous", tok)
	assert.Equal(t, before, m.Snapshot())
	assert.Empty(t, f.note.Entries())
}

func TestLogin_TransportErrorLeavesStateAlone(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "email required"})
	})
	m := f.manager(t)

	_, err := m.Login(context.Background(), "", "pw")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.TransportFailure))
	assert.Equal(t, "email required", api.ServerMessage(err, ""))
	assert.Equal(t, Anonymous, m.Snapshot().State)
}

func TestRegister_DefaultsRoleAndAuthenticates(t *testing.T) {
	var got map[string]string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathRegister, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{"token": "r1", "userId": "u-9", "email": got["email"], "name": got["name"], "role": got["role"]})
	})
	m := f.manager(t)

	_, err := m.Register(context.Background(), "Bo", "bo@b.com", "pw", "")
	require.NoError(t, err)

	assert.Equal(t, "USER", got["role"])
	tok, _ := f.store.Get()
	assert.Equal(t, "r1", tok)
	s := m.Snapshot()
	require.NotNil(t, s.User)
	assert.Equal(t, User{ID: "u-9", Email: "bo@b.com", Name: "Bo", Role: RoleUser}, *s.User)
	assert.Equal(t, []notify.Entry{{Level: notify.Success, Message: "Registered"}}, f.note.Entries())
}

func TestLogout_FromAuthenticated(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "role": "USER"})
	})
	require.NoError(t, f.store.Set("t1"))
	m := f.manager(t)
	require.True(t, m.Snapshot().Authenticated())

	m.Logout()

	s := m.Snapshot()
	assert.Equal(t, Anonymous, s.State)
	assert.Nil(t, s.User)
	_, ok := f.store.Get()
	assert.False(t, ok)
	assert.Equal(t, int32(1), f.nav.n.Load())
	assert.Equal(t, []notify.Entry{{Level: notify.Info, Message: "Logged out"}}, f.note.Entries())
}

func TestLogout_FromAnonymous(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	m := f.manager(t)

	m.Logout()
	assert.Equal(t, Anonymous, m.Snapshot().State)
	assert.Equal(t, int32(1), f.nav.n.Load())
}

func TestCredentialRejectionFromUnrelatedCallResetsSession(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathMe {
			writeJSON(w, http.StatusOK, map[string]any{"id": 1, "role": "USER"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	require.NoError(t, f.store.Set("t1"))
	m := f.manager(t)
	require.True(t, m.Snapshot().Authenticated())

	err := f.api.Get(context.Background(), "/donations/my", nil, nil)
	require.Error(t, err)

	assert.Equal(t, Anonymous, m.Snapshot().State)
	_, ok := f.store.Get()
	assert.False(t, ok)
	assert.Equal(t, int32(1), f.nav.n.Load())
}

// blockingPipeline answers /users/me only when released, ignoring cancellation,
// so a late success can be observed after Logout.
type blockingPipeline struct {
	release  chan struct{}
	returned chan struct{}
	rejected []func()
}

func (p *blockingPipeline) Get(ctx context.Context, path string, _ url.Values, out any) error {
	<-p.release
	u := out.(*User)
	*u = User{ID: "1", Email: "late@b.com", Role: RoleUser}
	close(p.returned)
	return nil
}

func (p *blockingPipeline) Post(context.Context, string, url.Values, any, any) error { return nil }

func (p *blockingPipeline) OnCredentialRejected(fn func()) { p.rejected = append(p.rejected, fn) }

func TestLogout_DuringResolvingPreventsRevival(t *testing.T) {
	store := tokenstore.NewMemory()
	require.NoError(t, store.Set("t1"))
	nav := &navCounter{}
	p := &blockingPipeline{release: make(chan struct{}), returned: make(chan struct{})}

	m := New(context.Background(), Deps{Store: store, API: p, Navigator: nav})
	s := m.Snapshot()
	assert.Equal(t, Resolving, s.State)
	assert.True(t, s.Loading)

	m.Logout()

	s = m.Snapshot()
	assert.Equal(t, Anonymous, s.State)
	assert.False(t, s.Loading)
	require.NoError(t, m.Wait(context.Background()))
	_, ok := store.Get()
	assert.False(t, ok)
	assert.Equal(t, int32(1), nav.n.Load())

	close(p.release)
	<-p.returned
	assert.Never(t, func() bool { return m.Snapshot().Authenticated() }, 100*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, Anonymous, m.Snapshot().State)
}

func TestLogin_DuringResolvingSupersedesStartupFetch(t *testing.T) {
	store := tokenstore.NewMemory()
	require.NoError(t, store.Set("old"))
	p := &loginPipeline{blockingPipeline: blockingPipeline{release: make(chan struct{}), returned: make(chan struct{})}}

	m := New(context.Background(), Deps{Store: store, API: p})
	_, err := m.Login(context.Background(), "new@b.com", "pw")
	require.NoError(t, err)

	close(p.release)
	<-p.returned
	assert.Never(t, func() bool {
		u := m.Snapshot().User
		return u == nil || u.Email != "new@b.com"
	}, 100*time.Millisecond, 5*time.Millisecond)
}

type loginPipeline struct{ blockingPipeline }

func (p *loginPipeline) Post(_ context.Context, _ string, _ url.Values, _ any, out any) error {
	*out.(*AuthResponse) = AuthResponse{Token: "new", UserID: "2", Email: "new@b.com", Role: RoleUser}
	return nil
}

func TestWait_RespectsContext(t *testing.T) {
	store := tokenstore.NewMemory()
	require.NoError(t, store.Set("t1"))
	p := &blockingPipeline{release: make(chan struct{}), returned: make(chan struct{})}
	defer close(p.release)

	m := New(context.Background(), Deps{Store: store, API: p})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.DeadlineExceeded)
	assert.True(t, m.Snapshot().Loading)
}
