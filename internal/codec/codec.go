// Package codec implements the §4.6 body codec layer: encoders for raw
// bytes, form-urlencoded, JSON, CBOR, and multipart/form-data from file
// paths, and the matching response decoders selected by Content-Type.
package codec

import (
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"github.com/bytedance/sonic"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/net/html/charset"

	"github.com/arcbound/httpc/internal/config"
	"github.com/arcbound/httpc/internal/httperr"
)

// EncodedBody is the result of running the §4.6 encoder table over a
// RequestSpec: wire-ready bytes (or a streaming reader, for multipart) plus
// the Content-Type header value to send alongside it.
type EncodedBody struct {
	Bytes       []byte
	Reader      io.Reader // set instead of Bytes for streamed multipart uploads
	ContentType string
}

// EncodeJSON marshals v as canonical JSON using bytedance/sonic's
// encoding/json-compatible config, which sorts map keys, giving
// deterministic output.
func EncodeJSON(v any) (EncodedBody, error) {
	b, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return EncodedBody{}, httperr.DecodingError("", "failed to encode JSON body", err)
	}
	return EncodedBody{Bytes: b, ContentType: "application/json"}, nil
}

// EncodeCBOR marshals v as CBOR using fxamacker/cbor.
func EncodeCBOR(v any) (EncodedBody, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return EncodedBody{}, httperr.DecodingError("", "failed to encode CBOR body", err)
	}
	return EncodedBody{Bytes: b, ContentType: "application/cbor"}, nil
}

// EncodeMultipart streams each field as a file read from disk into a
// multipart/form-data body. The returned Reader is consumed lazily by the
// executor while writing the request, so large uploads never need to be
// buffered in memory.
func EncodeMultipart(files []config.MultipartFile) (EncodedBody, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() {
			if err != nil {
				_ = mw.Close()
				_ = pw.CloseWithError(err)
				return
			}
			err = mw.Close()
			_ = pw.CloseWithError(err)
		}()

		for _, f := range files {
			part, werr := mw.CreateFormFile(f.FieldName, filepath.Base(f.FilePath))
			if werr != nil {
				err = werr
				return
			}
			fh, oerr := os.Open(f.FilePath)
			if oerr != nil {
				err = oerr
				return
			}
			_, cerr := io.Copy(part, fh)
			fh.Close()
			if cerr != nil {
				err = cerr
				return
			}
		}
	}()

	return EncodedBody{Reader: pr, ContentType: mw.FormDataContentType()}, nil
}

// DecodeJSON unmarshals body as JSON into a generic value tree (the Go
// analogue of a dynamically-typed json() call).
func DecodeJSON(body []byte) (any, error) {
	var v any
	if err := sonic.Unmarshal(body, &v); err != nil {
		return nil, httperr.DecodingError("", "failed to decode response as JSON", err)
	}
	return v, nil
}

// DecodeCBOR unmarshals body as CBOR into a generic value tree.
func DecodeCBOR(body []byte) (any, error) {
	var v any
	if err := cbor.Unmarshal(body, &v); err != nil {
		return nil, httperr.DecodingError("", "failed to decode response as CBOR", err)
	}
	return v, nil
}

// DecodeStructured implements §4.6's transparent json()/cbor() dispatch:
// json() parses as JSON unless Content-Type is application/cbor, in which
// case it transparently parses as CBOR; cbor() always parses as CBOR
// regardless of Content-Type.
func DecodeStructured(body []byte, contentType string, forceCBOR bool) (any, error) {
	if forceCBOR || IsCBOR(contentType) {
		return DecodeCBOR(body)
	}
	return DecodeJSON(body)
}

// IsCBOR reports whether a Content-Type value names the CBOR media type.
func IsCBOR(contentType string) bool {
	mt, _, _ := mime.ParseMediaType(contentType)
	return mt == "application/cbor"
}

// DecodeText renders body as a string using the charset declared in
// Content-Type (default UTF-8), replacing invalid byte sequences rather
// than failing, per §4.6.
func DecodeText(body []byte, contentType string) string {
	if contentType == "" {
		return sanitizeUTF8(body)
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return sanitizeUTF8(body)
	}
	cs := params["charset"]
	if cs == "" || strings.EqualFold(cs, "utf-8") {
		return sanitizeUTF8(body)
	}
	e, name := charset.Lookup(cs)
	if e == nil {
		_ = name
		return sanitizeUTF8(body)
	}
	decoded, err := e.NewDecoder().Bytes(body)
	if err != nil {
		return sanitizeUTF8(body)
	}
	return sanitizeUTF8(decoded)
}

func sanitizeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

// DecompressingReader wraps r with the transparent content-decoding named
// in §4.6 ("gzip/deflate/br content encodings are transparently decoded
// unless the caller explicitly reads raw bytes"). encoding is the
// Content-Encoding header value (case-insensitive, may be empty).
func DecompressingReader(r io.ReadCloser, encoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return r, nil
	case "gzip":
		return newGzipReadCloser(r)
	case "deflate":
		return newFlateReadCloser(r)
	case "br":
		return newBrotliReadCloser(r), nil
	default:
		return r, nil
	}
}

func newBrotliReadCloser(r io.ReadCloser) io.ReadCloser {
	return &wrapReadCloser{Reader: brotli.NewReader(r), closer: r}
}

type wrapReadCloser struct {
	io.Reader
	closer io.Closer
}

func (w *wrapReadCloser) Close() error { return w.closer.Close() }

// ReadAllLimited drains r, refusing to read more than limit bytes when
// limit > 0 (the Client's MaxBodyBytes limit, set by WithMaxBodyBytes).
func ReadAllLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, httperr.DecodingError("", "response body exceeded configured MaxBodySize", nil)
	}
	return b, nil
}

