// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// One-shot free functions (Get, Post, ...). Each builds a throwaway Client
// from the ClientOptions supplied (TLS settings or any other), issues a single
// request, and closes the Client's pool before returning, per
// SPEC_FULL.md's supplemented free-function semantics.

package httpc

import (
	"context"
	"net/http"
)

func oneShot(ctx context.Context, method, url string, reqOpts []RequestOption, clientOpts []ClientOption) (*Response, error) {
	c, err := New(clientOpts...)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Do(ctx, newSpec(method, url, reqOpts))
}

// Get issues a single GET to url using a throwaway Client.
func Get(ctx context.Context, url string, reqOpts []RequestOption, clientOpts ...ClientOption) (*Response, error) {
	return oneShot(ctx, http.MethodGet, url, reqOpts, clientOpts)
}

// Post issues a single POST to url using a throwaway Client.
func Post(ctx context.Context, url string, reqOpts []RequestOption, clientOpts ...ClientOption) (*Response, error) {
	return oneShot(ctx, http.MethodPost, url, reqOpts, clientOpts)
}

// Put issues a single PUT to url using a throwaway Client.
func Put(ctx context.Context, url string, reqOpts []RequestOption, clientOpts ...ClientOption) (*Response, error) {
	return oneShot(ctx, http.MethodPut, url, reqOpts, clientOpts)
}

// Patch issues a single PATCH to url using a throwaway Client.
func Patch(ctx context.Context, url string, reqOpts []RequestOption, clientOpts ...ClientOption) (*Response, error) {
	return oneShot(ctx, http.MethodPatch, url, reqOpts, clientOpts)
}

// Delete issues a single DELETE to url using a throwaway Client.
func Delete(ctx context.Context, url string, reqOpts []RequestOption, clientOpts ...ClientOption) (*Response, error) {
	return oneShot(ctx, http.MethodDelete, url, reqOpts, clientOpts)
}

// Head issues a single HEAD to url using a throwaway Client.
func Head(ctx context.Context, url string, reqOpts []RequestOption, clientOpts ...ClientOption) (*Response, error) {
	return oneShot(ctx, http.MethodHead, url, reqOpts, clientOpts)
}
