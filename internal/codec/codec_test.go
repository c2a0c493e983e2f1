package codec

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcbound/httpc/internal/config"
)

func TestJSONRoundTrip(t *testing.T) {
	enc, err := EncodeJSON(map[string]any{"a": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, "application/json", enc.ContentType)

	decoded, err := DecodeStructured(enc.Bytes, enc.ContentType, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, decoded)
}

func TestCBORRoundTrip(t *testing.T) {
	enc, err := EncodeCBOR(map[string]any{"a": uint64(1)})
	require.NoError(t, err)
	assert.Equal(t, "application/cbor", enc.ContentType)

	decoded, err := DecodeCBOR(enc.Bytes)
	require.NoError(t, err)
	assert.Equal(t, map[any]any{"a": uint64(1)}, decoded)
}

func TestDecodeStructuredTransparentCBOR(t *testing.T) {
	enc, err := EncodeCBOR(map[string]any{"a": uint64(1)})
	require.NoError(t, err)

	// json() called on a response whose Content-Type is application/cbor
	// must transparently decode as CBOR (§4.6).
	decoded, err := DecodeStructured(enc.Bytes, "application/cbor", false)
	require.NoError(t, err)
	assert.Equal(t, map[any]any{"a": uint64(1)}, decoded)
}

func TestDecodeTextDefaultsToUTF8(t *testing.T) {
	assert.Equal(t, "hello", DecodeText([]byte("hello"), ""))
}

func TestDecodeTextReplacesInvalidBytes(t *testing.T) {
	out := DecodeText([]byte{0xff, 0xfe, 'h', 'i'}, "text/plain; charset=utf-8")
	assert.Contains(t, out, "hi")
}

func TestGzipDecompression(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	rc, err := DecompressingReader(io.NopCloser(&buf), "gzip")
	require.NoError(t, err)
	defer rc.Close()

	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(out))
}

func TestEncodeMultipartStreamsFileContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o600))

	enc, err := EncodeMultipart([]config.MultipartFile{{FieldName: "file", FilePath: path}})
	require.NoError(t, err)
	require.NotNil(t, enc.Reader)
	assert.Contains(t, enc.ContentType, "multipart/form-data; boundary=")

	body, err := io.ReadAll(enc.Reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "file contents")
	assert.Contains(t, string(body), `name="file"`)
}

func TestReadAllLimitedRejectsOversizedBody(t *testing.T) {
	_, err := ReadAllLimited(bytes.NewReader([]byte("0123456789")), 5)
	require.Error(t, err)
}

func TestReadAllLimitedAllowsExactBoundary(t *testing.T) {
	b, err := ReadAllLimited(bytes.NewReader([]byte("01234")), 5)
	require.NoError(t, err)
	assert.Equal(t, "01234", string(b))
}
