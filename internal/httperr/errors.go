// Package httperr implements the §7 error taxonomy: a hierarchy of
// concrete error types that every client-visible failure maps to
// deterministically. Construction helpers wrap the underlying cause with
// github.com/juju/errors so the original call stack survives annotation,
// the same discipline juju-juju uses throughout its agent/apiserver code.
package httperr

import (
	stderrors "errors"
	"fmt"

	"github.com/juju/errors"
)

// Kind names a leaf of the §7 hierarchy.
type Kind string

const (
	KindConnect           Kind = "connect_error"
	KindRead              Kind = "read_error"
	KindWrite             Kind = "write_error"
	KindClose             Kind = "close_error"
	KindConnectTimeout     Kind = "connect_timeout"
	KindReadTimeout        Kind = "read_timeout"
	KindWriteTimeout       Kind = "write_timeout"
	KindPoolTimeout        Kind = "pool_timeout"
	KindLocalProtocol      Kind = "local_protocol_error"
	KindRemoteProtocol     Kind = "remote_protocol_error"
	KindUnsupportedProto   Kind = "unsupported_protocol"
	KindProxy              Kind = "proxy_error"
	KindTooManyRedirects   Kind = "too_many_redirects"
	KindDecoding           Kind = "decoding_error"
	KindInvalidURL         Kind = "invalid_url"
	KindCookieConflict     Kind = "cookie_conflict"
	KindHTTPStatus         Kind = "http_status_error"
	KindStreamConsumed     Kind = "stream_consumed"
	KindStreamClosed       Kind = "stream_closed"
	KindResponseNotRead    Kind = "response_not_read"
	KindRequestNotRead     Kind = "request_not_read"
	KindRequestError       Kind = "request_error"
	KindArgument           Kind = "argument_error" // Go stand-in for ValueError
)

// HTTPError is the root of the hierarchy; every error type in this package
// implements it.
type HTTPError interface {
	error
	Kind() Kind
	Unwrap() error
}

// base gives every concrete error type Kind(), Error() and Unwrap() so each
// variant below only has to declare its own fields.
type base struct {
	kind Kind
	url  string
	msg  string
	err  error
}

func (b *base) Kind() Kind    { return b.kind }
func (b *base) Unwrap() error { return b.err }

func (b *base) Error() string {
	if b.url != "" {
		if b.err != nil {
			return fmt.Sprintf("httpc: %s: %s (url=%s): %v", b.kind, b.msg, b.url, b.err)
		}
		return fmt.Sprintf("httpc: %s: %s (url=%s)", b.kind, b.msg, b.url)
	}
	if b.err != nil {
		return fmt.Sprintf("httpc: %s: %s: %v", b.kind, b.msg, b.err)
	}
	return fmt.Sprintf("httpc: %s: %s", b.kind, b.msg)
}

func newBase(kind Kind, url, msg string, cause error) *base {
	var wrapped error
	if cause != nil {
		wrapped = errors.Annotate(cause, msg)
	}
	return &base{kind: kind, url: url, msg: msg, err: wrapped}
}

// RequestError is everything tied to a given request (§7 second tier).
type RequestError struct{ *base }

// TransportError is the family of errors rooted in the network/protocol
// layer rather than request-building; it embeds RequestError so every
// TransportError is also catchable as a RequestError, per §7's hierarchy
// (HTTPError > RequestError > TransportError > {Network,Timeout,Protocol}).
type TransportError struct{ *RequestError }

// NetworkError covers raw socket failures: connect, read, write, close.
type NetworkError struct{ *TransportError }

// TimeoutError covers every budget that can be exceeded: connect, read,
// write, or waiting on the pool.
type TimeoutError struct{ *TransportError }

// ProtocolError covers malformed requests we tried to send (local) and
// malformed responses the peer sent back (remote).
type ProtocolError struct{ *TransportError }

// StreamError covers misuse of a StreamingResponse's single-pass contract.
type StreamError struct{ *base }

// HTTPStatusError is opt-in: only Response.StatusError() constructs one.
type HTTPStatusError struct {
	*base
	StatusCode int
}

// Each level below overrides the promoted Unwrap() so errors.As walks
// through the concrete hierarchy types themselves rather than skipping
// straight to the wrapped cause.
func (e *RequestError) Unwrap() error    { return e.base }
func (e *TransportError) Unwrap() error  { return e.RequestError }
func (e *NetworkError) Unwrap() error    { return e.TransportError }
func (e *TimeoutError) Unwrap() error    { return e.TransportError }
func (e *ProtocolError) Unwrap() error   { return e.TransportError }

// --- constructors -----------------------------------------------------

func newRequestError(kind Kind, url, msg string, cause error) *RequestError {
	return &RequestError{newBase(kind, url, msg, cause)}
}

func newTransportError(kind Kind, url, msg string, cause error) *TransportError {
	return &TransportError{newRequestError(kind, url, msg, cause)}
}

func newNetwork(kind Kind, url, msg string, cause error) *NetworkError {
	return &NetworkError{newTransportError(kind, url, msg, cause)}
}

func ConnectError(url string, cause error) *NetworkError { return newNetwork(KindConnect, url, "connect failed", cause) }
func ReadError(url string, cause error) *NetworkError    { return newNetwork(KindRead, url, "read failed", cause) }
func WriteError(url string, cause error) *NetworkError   { return newNetwork(KindWrite, url, "write failed", cause) }
func CloseError(url string, cause error) *NetworkError   { return newNetwork(KindClose, url, "close failed", cause) }

func newTimeout(kind Kind, url, msg string, cause error) *TimeoutError {
	return &TimeoutError{newTransportError(kind, url, msg, cause)}
}

func ConnectTimeout(url string, cause error) *TimeoutError {
	return newTimeout(KindConnectTimeout, url, "connect timed out", cause)
}
func ReadTimeout(url string, cause error) *TimeoutError {
	return newTimeout(KindReadTimeout, url, "read timed out", cause)
}
func WriteTimeout(url string, cause error) *TimeoutError {
	return newTimeout(KindWriteTimeout, url, "write timed out", cause)
}
func PoolTimeout(url string, cause error) *TimeoutError {
	return newTimeout(KindPoolTimeout, url, "timed out waiting for a pooled connection", cause)
}

func newProtocol(kind Kind, url, msg string, cause error) *ProtocolError {
	return &ProtocolError{newTransportError(kind, url, msg, cause)}
}

func LocalProtocolError(url, msg string, cause error) *ProtocolError {
	return newProtocol(KindLocalProtocol, url, msg, cause)
}
func RemoteProtocolError(url, msg string, cause error) *ProtocolError {
	return newProtocol(KindRemoteProtocol, url, msg, cause)
}

func UnsupportedProtocol(url string) *RequestError {
	return newRequestError(KindUnsupportedProto, url, "unsupported protocol scheme", nil)
}
func ProxyError(url string, cause error) *RequestError {
	return newRequestError(KindProxy, url, "proxy error", cause)
}
func TooManyRedirects(url string, hops int) *RequestError {
	return newRequestError(KindTooManyRedirects, url, fmt.Sprintf("exceeded redirect budget after %d hops", hops), nil)
}
func DecodingError(url, msg string, cause error) *RequestError {
	return newRequestError(KindDecoding, url, msg, cause)
}
func InvalidURL(url string, cause error) *RequestError {
	return newRequestError(KindInvalidURL, url, "invalid URL", cause)
}
func CookieConflict(url, msg string) *RequestError {
	return newRequestError(KindCookieConflict, url, msg, nil)
}
func ArgumentError(msg string) *RequestError {
	return newRequestError(KindArgument, "", msg, nil)
}
func RequestBodyNotReplayable(url string) *RequestError {
	return newRequestError(KindRequestError, url, "streamed request body cannot be replayed across a redirect", nil)
}

func NewHTTPStatusError(url string, status int) *HTTPStatusError {
	return &HTTPStatusError{base: newBase(KindHTTPStatus, url, fmt.Sprintf("status code %d", status), nil), StatusCode: status}
}

func StreamConsumed() *StreamError { return &StreamError{newBase(KindStreamConsumed, "", "stream already fully consumed", nil)} }
func StreamClosed() *StreamError   { return &StreamError{newBase(KindStreamClosed, "", "stream already closed", nil)} }
func ResponseNotRead() *StreamError {
	return &StreamError{newBase(KindResponseNotRead, "", "response body was never read", nil)}
}
func RequestNotRead() *StreamError {
	return &StreamError{newBase(KindRequestNotRead, "", "request body was never read", nil)}
}

// --- classification helpers -------------------------------------------

func IsTimeout(err error) bool {
	var t *TimeoutError
	return stderrors.As(err, &t)
}

func IsTransport(err error) bool {
	var t *TransportError
	return stderrors.As(err, &t)
}

func IsTooManyRedirects(err error) bool {
	var r *RequestError
	return stderrors.As(err, &r) && r.Kind() == KindTooManyRedirects
}

func IsStreamConsumed(err error) bool {
	var s *StreamError
	return stderrors.As(err, &s) && s.Kind() == KindStreamConsumed
}

func IsStreamClosed(err error) bool {
	var s *StreamError
	return stderrors.As(err, &s) && s.Kind() == KindStreamClosed
}
