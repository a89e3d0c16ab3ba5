// Package codec provides a uniform compress/decompress front for the
// container's pluggable back-ends, plus an identity ("store") mode for
// incompressible data.
package codec

import (
	"errors"
	"fmt"
)

// Tag identifies the back-end that produced (or must decode) a chunk's
// payload. Values match the on-disk c_type byte.
type Tag uint8

const (
	NONE Tag = iota
	BZIP2
	GZIP
	LZMA
	LZO
	ZPAQ
)

func (t Tag) String() string {
	switch t {
	case NONE:
		return "NONE"
	case BZIP2:
		return "BZIP2"
	case GZIP:
		return "GZIP"
	case LZMA:
		return "LZMA"
	case LZO:
		return "LZO"
	case ZPAQ:
		return "ZPAQ"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// ErrCodec reports a non-recoverable back-end failure.
var ErrCodec = errors.New("codec: back-end error")

// ErrUnknownTag reports a chunk that cannot be decoded as tagged: an unknown
// c_type, or a NONE chunk whose stored length differs from its advertised
// uncompressed length.
var ErrUnknownTag = errors.New("codec: unknown tag")

// errOverflow is returned by a back-end when the compressed form would not
// fit its output bound; the adapter turns this into "incompressible", never
// a caller-visible error.
var errOverflow = errors.New("codec: output overflow")

// Backend is the adapter contract a back-end codec implements. Compress may
// return errOverflow to signal "try a smaller/no compression instead" or
// ErrOOM to request the LZMA->BZIP2 fallback.
type Backend interface {
	Compress(src []byte, level int) ([]byte, error)
	Decompress(src []byte, uncompressedLen int) ([]byte, error)
}

// ErrOOM is returned by a Backend.Compress implementation that ran out of
// memory; the adapter retries the same buffer as BZIP2 when this occurs.
var ErrOOM = errors.New("codec: out of memory")

var registry = map[Tag]Backend{
	GZIP:  newGzipBackend(),
	LZMA:  newLZMABackend(),
	BZIP2: newBZIP2Backend(),
	LZO:   newLZOBackend(),
	ZPAQ:  newZPAQBackend(),
}

// Get returns the back-end registered for tag, or (nil, false) for NONE or
// an unregistered tag.
func Get(tag Tag) (Backend, bool) {
	b, ok := registry[tag]
	return b, ok
}

// rescaleLZMALevel maps the caller's 1-9 level onto LZMA's seven levels.
func rescaleLZMALevel(level int) int {
	l := level * 7 / 9
	if l < 1 {
		l = 1
	}
	if l > 7 {
		l = 7
	}
	return l
}

// Compress runs the adapter policy for the given tag: an incompressibility
// probe gate (skipped for GZIP and LZO, which are cheap enough not to
// need one), the LZMA level rescale and its BZIP2 fallback on OOM, and the
// "keep NONE unless strictly smaller" rule. It returns the (possibly
// unchanged) payload and the tag actually used to produce it.
func Compress(tag Tag, src []byte, level int) ([]byte, Tag, error) {
	if tag == NONE {
		return src, NONE, nil
	}

	if tag != GZIP && tag != LZO {
		if !Probe(src) {
			return src, NONE, nil
		}
	}

	out, usedTag, err := compressWith(tag, src, level)
	if err != nil {
		return nil, NONE, err
	}
	if out == nil || len(out) >= len(src) {
		return src, NONE, nil
	}
	return out, usedTag, nil
}

// compressWith returns the compressed payload and the tag that actually
// produced it, which diverges from the requested tag only on the LZMA OOM
// fallback below.
func compressWith(tag Tag, src []byte, level int) ([]byte, Tag, error) {
	backend, ok := Get(tag)
	if !ok {
		return nil, NONE, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}

	useLevel := level
	if tag == LZMA {
		useLevel = rescaleLZMALevel(level)
	}

	out, err := backend.Compress(src, useLevel)
	if err != nil {
		if tag == LZMA && errors.Is(err, ErrOOM) {
			bz, ok := Get(BZIP2)
			if !ok {
				return nil, NONE, fmt.Errorf("%w: lzma oom, no bzip2 fallback registered", ErrCodec)
			}
			out, err = bz.Compress(src, level)
			if err != nil {
				if errors.Is(err, errOverflow) {
					return nil, NONE, nil
				}
				return nil, NONE, fmt.Errorf("%w: %v", ErrCodec, err)
			}
			return out, BZIP2, nil
		}
		if errors.Is(err, errOverflow) {
			return nil, NONE, nil
		}
		return nil, NONE, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return out, tag, nil
}

// Decompress decodes src according to tag. NONE is returned unchanged.
func Decompress(tag Tag, src []byte, uncompressedLen int) ([]byte, error) {
	if tag == NONE {
		if len(src) != uncompressedLen {
			return nil, fmt.Errorf("%w: NONE chunk length %d != advertised %d", ErrUnknownTag, len(src), uncompressedLen)
		}
		return src, nil
	}
	backend, ok := Get(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	out, err := backend.Decompress(src, uncompressedLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return out, nil
}
