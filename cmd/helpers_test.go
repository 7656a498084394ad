package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"foodshare/cli/internal/config"
	"foodshare/cli/internal/tokenstore"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

var roleTokens = map[string]map[string]any{
	"tok-user":  {"id": 1, "name": "Ann", "email": "ann@x.io", "role": "USER"},
	"tok-vol":   {"id": 2, "name": "Vic", "email": "vic@x.io", "role": "VOLUNTEER"},
	"tok-admin": {"id": 3, "name": "Ada", "email": "ada@x.io", "role": "ADMIN"},
}

// fakeBackend is a scripted marketplace API. Routes not set explicitly answer
// 404. /users/me and /auth/login are always served.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu     sync.Mutex
	calls  []string
	bodies map[string]map[string]any
	routes map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{t: t, bodies: map[string]map[string]any{}, routes: map[string]http.HandlerFunc{}}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.calls = append(b.calls, key)
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		if json.Unmarshal(raw, &m) == nil {
			b.bodies[key] = m
		}
	}
	h := b.routes[key]
	b.mu.Unlock()

	if key == "GET /users/me" && h == nil {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		u, ok := roleTokens[tok]
		if !ok {
			reply(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}
		reply(w, http.StatusOK, u)
		return
	}
	if h == nil {
		reply(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	h(w, r)
}

func (b *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = h
}

func (b *fakeBackend) respond(method, path string, status int, v any) {
	b.handle(method, path, func(w http.ResponseWriter, _ *http.Request) { reply(w, status, v) })
}

func (b *fakeBackend) called(method, path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == method+" "+path {
			return true
		}
	}
	return false
}

func (b *fakeBackend) body(method, path string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[method+" "+path]
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cliFixture runs rootCmd against a fake backend with an in-memory token store.
type cliFixture struct {
	be    *fakeBackend
	store *tokenstore.Memory
}

func setupCLI(t *testing.T, token string) *cliFixture {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	for _, k := range []string{"FOODSHARE_API_URL", "FOODSHARE_TIMEOUT", "FOODSHARE_LOG_LEVEL", "FOODSHARE_VERBOSE", "FOODSHARE_NO_KEYCHAIN"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	resetFlags(rootCmd)
	cfgFile = ""

	f := &cliFixture{be: newFakeBackend(t), store: tokenstore.NewMemory()}
	if token != "" {
		if err := f.store.Set(token); err != nil {
			t.Fatal(err)
		}
	}
	prev := openStore
	openStore = func(*config.Config) (tokenstore.Store, error) { return f.store, nil }
	t.Cleanup(func() { openStore = prev })
	return f
}

// run executes the CLI with args, feeding stdin, and returns everything it
// printed. Flags start from their defaults on every run.
func (f *cliFixture) run(stdin string, args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--api-url", f.be.srv.URL}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func (f *cliFixture) token() string {
	tok, _ := f.store.Get()
	return tok
}

// resetFlags puts every flag of c and its subcommands back to its default, so
// values set by one test do not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
