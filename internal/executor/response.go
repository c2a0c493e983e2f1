package executor

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/arcbound/httpc/internal/codec"
	"github.com/arcbound/httpc/internal/headers"
	"github.com/arcbound/httpc/internal/httperr"
)

// Response is the buffered, fully-materialised result of a request, per
// §4.8.
type Response struct {
	StatusCode int
	Reason     string
	Headers    headers.Map
	URL        string
	History    []string // redirect URLs visited, oldest first
	Body       []byte
	decoded    bool
}

// StatusError implements the opt-in HTTPStatusError check from §7: it
// returns non-nil for 4xx/5xx responses, nil otherwise.
func (r *Response) StatusError() error {
	if r.StatusCode >= 400 {
		return httperr.NewHTTPStatusError(r.URL, r.StatusCode)
	}
	return nil
}

// Text decodes Body using the charset declared in Content-Type (§4.6).
func (r *Response) Text() string {
	ct, _ := r.Headers.Get("Content-Type")
	return codec.DecodeText(r.Body, ct)
}

// JSON implements the transparent json()/cbor() dispatch of §4.6.
func (r *Response) JSON() (any, error) {
	ct, _ := r.Headers.Get("Content-Type")
	return codec.DecodeStructured(r.Body, ct, false)
}

// CBOR always parses Body as CBOR regardless of Content-Type.
func (r *Response) CBOR() (any, error) {
	return codec.DecodeCBOR(r.Body)
}

// streamState tracks the single-pass lifecycle a StreamingResponse must
// enforce per §4.8: "Iteration is single-pass; re-iteration raises
// StreamConsumed."
type streamState int32

const (
	streamOpen streamState = iota
	streamConsumed
	streamClosed
)

// StreamingResponse holds an open body channel with lifecycle flags, per
// §3/§4.8. It also implements io.Reader directly (a Go-idiom addition noted
// in SPEC_FULL.md) so it composes with io.Copy and friends.
type StreamingResponse struct {
	StatusCode int
	Headers    headers.Map
	URL        string

	mu      sync.Mutex
	body    io.ReadCloser
	state   int32 // streamState, accessed atomically
	release func() // returns the connection to the pool / marks it broken
	ctx     context.Context
	cancel  context.CancelFunc
}

func newStreamingResponse(ctx context.Context, cancel context.CancelFunc, status int, h headers.Map, url string, body io.ReadCloser, release func()) *StreamingResponse {
	return &StreamingResponse{
		StatusCode: status,
		Headers:    h,
		URL:        url,
		body:       body,
		release:    release,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// IsClosed reports whether Close has been called.
func (s *StreamingResponse) IsClosed() bool {
	return streamState(atomic.LoadInt32(&s.state)) == streamClosed
}

// IsConsumed reports whether the body has been fully read.
func (s *StreamingResponse) IsConsumed() bool {
	return streamState(atomic.LoadInt32(&s.state)) == streamConsumed
}

func (s *StreamingResponse) checkReadable() error {
	switch streamState(atomic.LoadInt32(&s.state)) {
	case streamClosed:
		return httperr.StreamClosed()
	case streamConsumed:
		return httperr.StreamConsumed()
	}
	return nil
}

// Read implements io.Reader. Reaching EOF marks the stream consumed.
func (s *StreamingResponse) Read(p []byte) (int, error) {
	if err := s.checkReadable(); err != nil {
		return 0, err
	}
	n, err := s.body.Read(p)
	if err == io.EOF {
		atomic.StoreInt32(&s.state, int32(streamConsumed))
	}
	return n, err
}

// Close releases the underlying connection. Safe to call more than once.
func (s *StreamingResponse) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if streamState(atomic.LoadInt32(&s.state)) == streamClosed {
		return nil
	}
	atomic.StoreInt32(&s.state, int32(streamClosed))
	if s.cancel != nil {
		s.cancel()
	}
	err := s.body.Close()
	if s.release != nil {
		s.release()
	}
	return err
}

// ReadAll drains and returns the remainder of the body in one call.
func (s *StreamingResponse) ReadAll() ([]byte, error) {
	if err := s.checkReadable(); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(s)
	if err != nil && err != io.EOF {
		return nil, httperr.ReadError(s.URL, err)
	}
	return b, nil
}

// IterBytes returns a lazy, finite sequence of body chunks of at most
// chunkSize bytes. The sequence ends (nil, nil, false) once the body is
// exhausted. Calling IterBytes again after the body has been read to EOF,
// or after Close, returns a sequence whose first call yields the matching
// StreamError; calling it again before EOF continues from the current
// position.
func (s *StreamingResponse) IterBytes(chunkSize int) func() ([]byte, error, bool) {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	buf := make([]byte, chunkSize)
	eof := false
	return func() ([]byte, error, bool) {
		if eof {
			return nil, nil, false
		}
		if err := s.checkReadable(); err != nil {
			return nil, err, false
		}
		n, err := s.Read(buf)
		if err == io.EOF {
			eof = true
		}
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			return chunk, nil, true
		}
		if err == io.EOF {
			return nil, nil, false
		}
		return nil, httperr.ReadError(s.URL, err), false
	}
}

// IterLines returns a lazy sequence of newline-delimited text lines.
func (s *StreamingResponse) IterLines() func() (string, error, bool) {
	br := bufio.NewReader(s)
	return func() (string, error, bool) {
		if err := s.checkReadable(); err != nil && streamState(atomic.LoadInt32(&s.state)) == streamClosed {
			return "", err, false
		}
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil, true
		}
		if err == io.EOF {
			return "", nil, false
		}
		if err != nil {
			return "", httperr.ReadError(s.URL, err), false
		}
		return "", nil, false
	}
}

// IterText decodes each chunk using the response's declared charset. Every
// chunk is decoded on its own, UTF-8 included, so a multi-byte character
// split across a chunk boundary is replaced rather than reassembled.
func (s *StreamingResponse) IterText(chunkSize int) func() (string, error, bool) {
	ct, _ := s.Headers.Get("Content-Type")
	next := s.IterBytes(chunkSize)
	return func() (string, error, bool) {
		b, err, ok := next()
		if !ok || err != nil {
			return "", err, ok
		}
		return codec.DecodeText(b, ct), nil, true
	}
}

func bufferResponseBody(resp *http.Response, maxBytes int64) ([]byte, error) {
	defer resp.Body.Close()
	enc := resp.Header.Get("Content-Encoding")
	rc, err := codec.DecompressingReader(resp.Body, enc)
	if err != nil {
		return nil, httperr.DecodingError(resp.Request.URL.String(), "failed to initialize content decoder", err)
	}
	defer rc.Close()
	body, err := codec.ReadAllLimited(rc, maxBytes)
	if err != nil {
		if _, ok := err.(httperr.HTTPError); ok {
			return nil, err
		}
		return nil, httperr.ReadError(resp.Request.URL.String(), err)
	}
	return body, nil
}

func headersFromHTTP(h http.Header) headers.Map {
	out := headers.New()
	for k, vv := range h {
		for _, v := range vv {
			out.Add(k, v)
		}
	}
	return out
}
