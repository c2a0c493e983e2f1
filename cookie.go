// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Cookie jar construction options, per §4.3.

package httpc

import "github.com/arcbound/httpc/internal/config"

// WithCookieStore toggles the Client's cookie jar. Disabled, only the
// cookies set via WithCookies and WithCookie are sent, and Set-Cookie
// responses are not remembered.
func WithCookieStore(enabled bool) ClientOption {
	return func(c *config.ClientConfig) { c.CookieStore = enabled }
}

// WithCookies seeds the jar with an initial set of name/value pairs,
// matching §6's "cookies" construction option.
func WithCookies(cookies map[string]string) ClientOption {
	return func(c *config.ClientConfig) {
		if c.Cookies == nil {
			c.Cookies = make(map[string]string)
		}
		for k, v := range cookies {
			c.Cookies[k] = v
		}
	}
}
