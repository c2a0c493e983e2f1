package codec

import (
	"compress/flate"
	"compress/gzip"
	"io"
)

func newGzipReadCloser(r io.ReadCloser) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &wrapReadCloser{Reader: zr, closer: r}, nil
}

func newFlateReadCloser(r io.ReadCloser) (io.ReadCloser, error) {
	fr := flate.NewReader(r)
	return &wrapReadCloser{Reader: fr, closer: r}, nil
}
