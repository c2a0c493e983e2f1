// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// HTTP response reading and parsing.

package httpc

import "github.com/arcbound/httpc/internal/executor"

// A Response is the buffered, fully-materialised result of a request, per
// §4.8. Its StatusError method is the opt-in HTTP-status check described in
// §7.
type Response = executor.Response

// A StreamingResponse is an open response body with single-pass iteration,
// per §4.8. It implements io.Reader directly so it composes with io.Copy
// and anything else that takes an io.Reader.
type StreamingResponse = executor.StreamingResponse
