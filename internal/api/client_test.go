package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	errs "foodshare/cli/internal/errors"
	"foodshare/cli/internal/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNav struct{ calls atomic.Int32 }

func (n *recordingNav) ToLogin() { n.calls.Add(1) }

func TestPipeline_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotCustom, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCustom = r.Header.Get("X-Custom")
		gotReqID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	require.NoError(t, store.Set("t1"))
	c := NewPipeline(srv.URL, store, &recordingNav{})

	err := c.Send(context.Background(), Call{
		Method: http.MethodGet,
		Path:   "/donations/available",
		Header: http.Header{"X-Custom": []string{"kept"}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer t1", gotAuth)
	assert.Equal(t, "kept", gotCustom)
	assert.NotEmpty(t, gotReqID)
}

func TestPipeline_NoTokenSendsWithoutCredential(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewPipeline(srv.URL, tokenstore.NewMemory(), &recordingNav{})
	var out []any
	require.NoError(t, c.Get(context.Background(), "/donations/available", nil, &out))
	assert.False(t, hadAuth)
}

func TestPipeline_UsesTokenAtDispatchTime(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	c := NewPipeline(srv.URL, store, &recordingNav{})

	require.NoError(t, store.Set("a"))
	require.NoError(t, c.Get(context.Background(), "/x", nil, nil))
	require.NoError(t, store.Set("b"))
	require.NoError(t, c.Get(context.Background(), "/x", nil, nil))

	assert.Equal(t, []string{"Bearer a", "Bearer b"}, seen)
}

func TestPipeline_UnauthorizedClearsTokenAndNavigates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	require.NoError(t, store.Set("stale"))
	nav := &recordingNav{}
	c := NewPipeline(srv.URL, store, nav)

	var order []string
	c.OnCredentialRejected(func() {
		_, ok := store.Get()
		assert.False(t, ok, "store must be cleared before subscribers run")
		order = append(order, "sub")
	})

	// A feature call that has nothing to do with the session.
	err := c.Post(context.Background(), "/requests/7/cancel", nil, nil, nil)
	require.Error(t, err)

	assert.True(t, errs.IsKind(err, errs.CredentialRejected))
	assert.Equal(t, "token expired", ServerMessage(err, "fallback"))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	_, ok := store.Get()
	assert.False(t, ok)
	assert.Equal(t, int32(1), nav.calls.Load())
	assert.Equal(t, []string{"sub"}, order)
}

func TestPipeline_OtherErrorsPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"not your donation"}`))
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	require.NoError(t, store.Set("t1"))
	nav := &recordingNav{}
	c := NewPipeline(srv.URL, store, nav)

	err := c.Post(context.Background(), "/donations/3/cancel", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.TransportFailure))
	assert.Equal(t, "not your donation", ServerMessage(err, "Failed to cancel"))

	tok, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "t1", tok)
	assert.Zero(t, nav.calls.Load())
}

func TestPipeline_TimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	nav := &recordingNav{}
	c := NewPipeline(srv.URL, tokenstore.NewMemory(), nav, WithTimeout(50*time.Millisecond))

	err := c.Get(context.Background(), "/slow", nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.TransportFailure))
	assert.Zero(t, nav.calls.Load())
}

func TestClient_EncodesQueryAndBody(t *testing.T) {
	var gotQuery url.Values
	var gotBody map[string]any
	var gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.Post(context.Background(), "ai/recipe", url.Values{"lang": {"en"}}, map[string]any{"servings": 2}, &out)
	require.NoError(t, err)

	assert.True(t, out.OK)
	assert.Equal(t, "en", gotQuery.Get("lang"))
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, float64(2), gotBody["servings"])
}

func TestClient_MalformedBodyIsProtocolViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL).Get(context.Background(), "/users/me", nil, &out)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ProtocolViolation))
}

func TestClient_RequestInterceptorErrorAbortsCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.UseRequest(func(*http.Request) error { return assert.AnError })

	err := c.Get(context.Background(), "/x", nil, nil)
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, hits.Load())
}
