// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package httpc

import (
	"context"
	"net/http"

	"github.com/arcbound/httpc/internal/config"
)

// AsyncClient wraps a Client so every call returns immediately with a
// Future instead of blocking, for callers that want to fan requests out
// concurrently without managing goroutines themselves. It shares the
// underlying Client's connection pool and cookie jar, so AsyncClient and
// Client calls against the same Client are interchangeable.
type AsyncClient struct {
	c *Client
}

// NewAsync builds an AsyncClient with the same options as New.
func NewAsync(opts ...ClientOption) (*AsyncClient, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return &AsyncClient{c: c}, nil
}

// Close releases the underlying Client's pooled connections.
func (a *AsyncClient) Close() error { return a.c.Close() }

// A Future resolves to a *Response once the in-flight request completes.
// Await blocks until the response arrives or ctx is done; it may be called
// more than once, and once the request has completed every call returns
// the same result.
type Future struct {
	done chan struct{}
	resp *Response
	err  error
}

func newFuture(ctx context.Context, do func(context.Context) (*Response, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		f.resp, f.err = do(ctx)
		close(f.done)
	}()
	return f
}

// Await blocks until the request completes or ctx is done, whichever comes
// first. A ctx cancellation does not cancel the in-flight request; it only
// stops waiting for it.
func (f *Future) Await(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *AsyncClient) do(ctx context.Context, spec config.RequestSpec) *Future {
	return newFuture(ctx, func(ctx context.Context) (*Response, error) {
		return a.c.Do(ctx, spec)
	})
}

// Get issues an asynchronous GET to url.
func (a *AsyncClient) Get(ctx context.Context, url string, opts ...RequestOption) *Future {
	return a.do(ctx, newSpec(http.MethodGet, url, opts))
}

// Post issues an asynchronous POST to url.
func (a *AsyncClient) Post(ctx context.Context, url string, opts ...RequestOption) *Future {
	return a.do(ctx, newSpec(http.MethodPost, url, opts))
}

// Put issues an asynchronous PUT to url.
func (a *AsyncClient) Put(ctx context.Context, url string, opts ...RequestOption) *Future {
	return a.do(ctx, newSpec(http.MethodPut, url, opts))
}

// Patch issues an asynchronous PATCH to url.
func (a *AsyncClient) Patch(ctx context.Context, url string, opts ...RequestOption) *Future {
	return a.do(ctx, newSpec(http.MethodPatch, url, opts))
}

// Delete issues an asynchronous DELETE to url.
func (a *AsyncClient) Delete(ctx context.Context, url string, opts ...RequestOption) *Future {
	return a.do(ctx, newSpec(http.MethodDelete, url, opts))
}
