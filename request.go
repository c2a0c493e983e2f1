// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Per-request options, mirroring the §4.1 RequestSpec fields.

package httpc

import (
	"time"

	"github.com/arcbound/httpc/internal/config"
)

// A RequestOption configures a single request, overriding the Client's
// defaults for that call only, per §4.1's merge rules.
type RequestOption func(*config.RequestSpec)

// WithHeader sets a request header, winning over any Client default with
// the same name.
func WithHeader(key, value string) RequestOption {
	return func(s *config.RequestSpec) { s.Headers.Set(key, value) }
}

// WithQuery appends a query parameter. Repeated keys are preserved in
// order, per §4.1.
func WithQuery(key string, value any) RequestOption {
	return func(s *config.RequestSpec) { s.Params = s.Params.Append(key, value) }
}

// WithCookie attaches a request-scoped cookie.
func WithCookie(name, value string) RequestOption {
	return func(s *config.RequestSpec) {
		if s.Cookies == nil {
			s.Cookies = make(map[string]string)
		}
		s.Cookies[name] = value
	}
}

// WithBasicAuth sets request-scoped basic auth, overriding the Client's
// configured credential for this call only.
func WithBasicAuth(username, password string) RequestOption {
	return func(s *config.RequestSpec) {
		s.HasAuth = true
		s.Auth = &config.Credential{Username: username, Password: password, HasBasic: true}
	}
}

// WithBearerAuth sets a request-scoped bearer token.
func WithBearerAuth(token string) RequestOption {
	return func(s *config.RequestSpec) {
		s.HasAuth = true
		s.Auth = &config.Credential{Bearer: token}
	}
}

// WithTimeout overrides the Client's default timeout for this call.
func WithTimeout(d time.Duration) RequestOption {
	return func(s *config.RequestSpec) {
		s.HasTimeout = true
		s.Timeout = d
	}
}

// WithRawBody sends b verbatim, tagged with contentType.
func WithRawBody(b []byte, contentType string) RequestOption {
	return func(s *config.RequestSpec) {
		s.SetBodyKind(config.BodyRaw)
		s.RawBody = b
		if contentType != "" {
			s.Headers.Set("Content-Type", contentType)
		}
	}
}

// WithFormBody sends form as application/x-www-form-urlencoded.
func WithFormBody(form map[string]string) RequestOption {
	return func(s *config.RequestSpec) {
		s.SetBodyKind(config.BodyForm)
		var q config.Query
		for k, v := range form {
			q = q.Append(k, v)
		}
		s.FormData = q
	}
}

// WithJSONBody marshals v as JSON via bytedance/sonic, per §4.6.
func WithJSONBody(v any) RequestOption {
	return func(s *config.RequestSpec) {
		s.SetBodyKind(config.BodyJSON)
		s.JSONValue = v
	}
}

// WithCBORBody marshals v as CBOR via fxamacker/cbor, per §4.6.
func WithCBORBody(v any) RequestOption {
	return func(s *config.RequestSpec) {
		s.SetBodyKind(config.BodyCBOR)
		s.CBORValue = v
	}
}

// WithMultipartFile attaches a file field to a streamed multipart/form-data
// body, per §4.6.
func WithMultipartFile(fieldName, filePath string) RequestOption {
	return func(s *config.RequestSpec) {
		s.SetBodyKind(config.BodyMultipart)
		s.MultipartData = append(s.MultipartData, config.MultipartFile{FieldName: fieldName, FilePath: filePath})
	}
}
