// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package httpc is a high-performance HTTP client with a synchronous
// Client, an AsyncClient for concurrent callers, and one-shot free
// functions (Get, Post, ...) for throwaway requests.
//
// A Client holds a connection pool, a cookie jar, and a set of defaults
// (headers, auth, timeout, TLS) resolved against every request it issues.
// Build one with New and reuse it; like net/http.Client, a Client is safe
// for concurrent use and should not be recreated per request.
package httpc
