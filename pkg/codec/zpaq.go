package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zpaqBackend stands in for ZPAQ, the slowest/highest-ratio back end: no
// ZPAQ implementation exists anywhere that was available to draw on, so
// zstd at a high encoder level fills that functional role instead (see
// DESIGN.md). Encoders are cached per effective zstd level behind a
// sync.Map, since constructing one is expensive enough to amortize across
// calls but a single shared *zstd.Encoder isn't safe for concurrent use.
type zpaqBackend struct {
	decoder  *zstd.Decoder
	encoders sync.Map // zstd.EncoderLevel -> *sync.Pool
}

func newZPAQBackend() Backend {
	dec, _ := zstd.NewReader(nil)
	return &zpaqBackend{decoder: dec}
}

// zstdLevel maps the caller's 1-9 level onto zstd's three named encoder
// levels; ZPAQ's appeal is ratio over speed, so even the low end of the
// range buys real compression rather than zstd's fastest setting.
func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 3:
		return zstd.SpeedDefault
	case level <= 6:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func (z *zpaqBackend) encoderPool(level zstd.EncoderLevel) *sync.Pool {
	if p, ok := z.encoders.Load(level); ok {
		return p.(*sync.Pool)
	}
	pool := &sync.Pool{
		New: func() interface{} {
			enc, _ := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(level),
				zstd.WithEncoderConcurrency(1),
			)
			return enc
		},
	}
	actual, _ := z.encoders.LoadOrStore(level, pool)
	return actual.(*sync.Pool)
}

func (z *zpaqBackend) Compress(src []byte, level int) ([]byte, error) {
	pool := z.encoderPool(zstdLevel(level))
	enc := pool.Get().(*zstd.Encoder)
	defer pool.Put(enc)

	return enc.EncodeAll(src, make([]byte, 0, len(src))), nil
}

func (z *zpaqBackend) Decompress(src []byte, uncompressedLen int) ([]byte, error) {
	return z.decoder.DecodeAll(src, make([]byte, 0, uncompressedLen))
}
