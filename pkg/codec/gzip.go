package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// gzipBackend wraps klauspost/compress/gzip. GZIP is one of the two tags
// that skip the incompressibility probe: it's cheap enough, and widely
// expected, that probing first would only cost time for no benefit.
type gzipBackend struct{}

func newGzipBackend() Backend { return gzipBackend{} }

func (gzipBackend) Compress(src []byte, level int) ([]byte, error) {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gzipBackend) Decompress(src []byte, uncompressedLen int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make([]byte, uncompressedLen)
	n, err := io.ReadFull(r, out)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return out[:n], nil
}
