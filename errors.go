// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The §7 error taxonomy, re-exported from internal/httperr so callers never
// need to import an internal package to use errors.As against it.

package httpc

import "github.com/arcbound/httpc/internal/httperr"

type (
	// RequestError is everything tied to a given request: bad method,
	// malformed URL, redirect budget exceeded, and similar.
	RequestError = httperr.RequestError
	// TransportError is the network/protocol-rooted family a connection
	// failure, timeout, or protocol error all belong to; errors.As against
	// it catches any of the three without naming the specific leaf type.
	TransportError = httperr.TransportError
	// NetworkError covers raw socket failures: connect, read, write, close.
	NetworkError = httperr.NetworkError
	// TimeoutError covers every budget that can be exceeded: connect,
	// read, write, or waiting on the pool.
	TimeoutError = httperr.TimeoutError
	// ProtocolError covers malformed requests sent and malformed
	// responses received.
	ProtocolError = httperr.ProtocolError
	// StreamError covers misuse of a StreamingResponse's single-pass
	// contract: reading after Close, or past EOF.
	StreamError = httperr.StreamError
	// HTTPStatusError is returned by Response.StatusError for 4xx/5xx
	// responses.
	HTTPStatusError = httperr.HTTPStatusError
)

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool { return httperr.IsTimeout(err) }

// IsTransport reports whether err is (or wraps) a connection-level failure:
// NetworkError, TimeoutError, or ProtocolError.
func IsTransport(err error) bool { return httperr.IsTransport(err) }

// IsTooManyRedirects reports whether err is the redirect-budget-exceeded
// RequestError.
func IsTooManyRedirects(err error) bool { return httperr.IsTooManyRedirects(err) }

// IsStreamConsumed reports whether err is the single-pass-reuse StreamError.
func IsStreamConsumed(err error) bool { return httperr.IsStreamConsumed(err) }

// IsStreamClosed reports whether err is the read-after-close StreamError.
func IsStreamClosed(err error) bool { return httperr.IsStreamClosed(err) }
