package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// bzip2Backend stands in for a real BZIP2 encoder: both stdlib's
// compress/bzip2 and klauspost/compress/bzip2 are decode-only, so no
// compressing BZIP2 implementation is available at all (see DESIGN.md).
// It's backed by klauspost/compress/flate instead, so the BZIP2 tag and
// its role as the LZMA-out-of-memory fallback target are still real,
// exercised code paths rather than stubs.
type bzip2Backend struct{}

func newBZIP2Backend() Backend { return bzip2Backend{} }

func (bzip2Backend) Compress(src []byte, level int) ([]byte, error) {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		level = flate.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
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

func (bzip2Backend) Decompress(src []byte, uncompressedLen int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()

	out := make([]byte, uncompressedLen)
	n, err := io.ReadFull(r, out)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return out[:n], nil
}
