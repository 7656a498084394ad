// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package api is the single HTTP pipeline every backend call goes through.
//
// A Client carries an ordered list of request interceptors (run before a call
// is dispatched) and response interceptors (run on every response before it is
// decoded). NewPipeline registers the two that matter for authentication:
// bearer attachment from the token store and the cross-cutting reaction to
// "401 Unauthorized", which clears the store and sends the user back to login
// no matter which command issued the call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "foodshare/cli/internal/errors"
	"foodshare/cli/internal/logging"
	"foodshare/cli/internal/tokenstore"

	log "github.com/sirupsen/logrus"
)

// DefaultTimeout applies to every call unless overridden with WithTimeout.
const DefaultTimeout = 15 * time.Second

// RequestInterceptor may mutate an outgoing request. A non-nil error aborts the call.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor observes every response before its body is consumed.
// A non-nil error replaces the call's result.
type ResponseInterceptor func(resp *http.Response) error

// Client issues JSON calls against the backend base URL.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	before    []RequestInterceptor
	after     []ResponseInterceptor
	rejected  *Rejections
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header on every call.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a bare Client without any interceptors.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "foodshare-cli",
		rejected:  &Rejections{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewPipeline creates a Client with request-id tagging, bearer attachment from
// store and unauthorized handling that clears store and calls nav.
func NewPipeline(baseURL string, store tokenstore.Store, nav Navigator, opts ...Option) *Client {
	c := New(baseURL, opts...)
	c.UseRequest(RequestID(), BearerAuth(store))
	c.UseResponse(RejectOnUnauthorized(store, nav, c.rejected))
	return c
}

// UseRequest appends request interceptors. Interceptors run in registration order.
func (c *Client) UseRequest(in ...RequestInterceptor) {
	c.before = append(c.before, in...)
}

// UseResponse appends response interceptors. Interceptors run in registration order.
func (c *Client) UseResponse(in ...ResponseInterceptor) {
	c.after = append(c.after, in...)
}

// OnCredentialRejected subscribes fn to every credential rejection observed by
// this pipeline. Subscribers run after the token store has been cleared.
func (c *Client) OnCredentialRejected(fn func()) {
	c.rejected.Subscribe(fn)
}

// BaseURL returns the base URL calls are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues a GET and decodes the JSON response into out (if non-nil).
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body (if non-nil) and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, query, body, out)
}

// Call describes one backend call. Header entries are sent alongside the
// pipeline's own headers; interceptors add to them rather than replace them.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Do performs one call through the pipeline. See Send.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.Send(ctx, Call{Method: method, Path: path, Query: query, Body: body}, out)
}

// Send performs one call through the pipeline and decodes a JSON response into out.
//
// Errors are classified: 401 as CredentialRejected, any other non-2xx status,
// network error or timeout as TransportFailure, and an undecodable 2xx body as
// ProtocolViolation. Nothing is retried.
func (c *Client) Send(ctx context.Context, call Call, out any) error {
	method, path := call.Method, call.Path
	op := method + " " + path

	req, err := c.newRequest(ctx, call)
	if err != nil {
		return errs.Wrap(errs.TransportFailure, op, err)
	}
	for _, in := range c.before {
		if err := in(req); err != nil {
			return errs.Wrap(errs.TransportFailure, op, err)
		}
	}

	if call.Body != nil && log.IsLevelEnabled(log.TraceLevel) && req.GetBody != nil {
		if rc, err := req.GetBody(); err == nil {
			b, _ := io.ReadAll(rc)
			log.Tracef("api: %s request %s", op, logging.MaskJSON(b))
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debugf("api: %s failed after %s: %s", op, time.Since(start).Round(time.Millisecond), logging.Mask(err.Error()))
		return errs.Wrap(errs.TransportFailure, op, err)
	}
	defer resp.Body.Close()
	log.Debugf("api: %s -> %d in %s", op, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	for _, in := range c.after {
		if err := in(resp); err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		se := newStatusError(method, path, resp.StatusCode, b)
		if resp.StatusCode == http.StatusUnauthorized {
			return errs.Wrap(errs.CredentialRejected, op, se)
		}
		return errs.Wrap(errs.TransportFailure, op, se)
	}

	if out == nil {
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.TransportFailure, op, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("api: %s response %s", op, logging.MaskJSON(b))
	}
	if err := json.Unmarshal(b, out); err != nil {
		return errs.Wrap(errs.ProtocolViolation, op+": malformed response body", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	u := c.baseURL + "/" + strings.TrimLeft(call.Path, "/")
	if len(call.Query) > 0 {
		u += "?" + call.Query.Encode()
	}

	var rdr io.Reader
	if call.Body != nil {
		b, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, u, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range call.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}
