package codec

import "github.com/klauspost/compress/s2"

// lzoBackend stands in for LZO: no pure-Go LZO encoder is available (the
// only LZO code found anywhere is decode-only), so this adapter and the
// incompressibility probe both use klauspost/compress/s2 instead, a very
// fast, low-ratio, block-oriented compressor — functionally LZO's closest
// relative among what's actually available (see DESIGN.md).
type lzoBackend struct{}

func newLZOBackend() Backend { return lzoBackend{} }

func (lzoBackend) Compress(src []byte, level int) ([]byte, error) {
	return s2.Encode(nil, src), nil
}

func (lzoBackend) Decompress(src []byte, uncompressedLen int) ([]byte, error) {
	return s2.Decode(nil, src)
}
