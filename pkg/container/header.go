package container

import (
	"github.com/falk/lrzstream/internal/sizedio"
	"github.com/falk/lrzstream/pkg/codec"
)

// ChunkHeaderSize is the modern on-disk chunk header length: 1 byte
// c_type, 8 bytes c_len, 8 bytes u_len, 8 bytes next_off.
const ChunkHeaderSize = 25

// nextOffOffset is the byte offset of next_off within a modern header
// (1 + 8 + 8). Easy to get wrong: the back-patch must land here, not
// inside u_len.
const nextOffOffset = 17

// LegacyChunkHeaderSize is the pre-0.4 header length (backward
// compatibility mode): 1 byte c_type, three 4-byte fields.
const LegacyChunkHeaderSize = 13

const legacyNextOffOffset = 9

type chunkHeader struct {
	cType   codec.Tag
	cLen    uint64
	uLen    uint64
	nextOff uint64
}

func headerSize(legacy bool) int {
	if legacy {
		return LegacyChunkHeaderSize
	}
	return ChunkHeaderSize
}

func nextOffFieldOffset(legacy bool) int {
	if legacy {
		return legacyNextOffOffset
	}
	return nextOffOffset
}

func marshalHeader(h chunkHeader, legacy bool) []byte {
	b := make([]byte, headerSize(legacy))
	b[0] = byte(h.cType)
	if legacy {
		sizedio.PutUint32(b[1:5], uint32(h.cLen))
		sizedio.PutUint32(b[5:9], uint32(h.uLen))
		sizedio.PutUint32(b[9:13], uint32(h.nextOff))
		return b
	}
	sizedio.PutUint64(b[1:9], h.cLen)
	sizedio.PutUint64(b[9:17], h.uLen)
	sizedio.PutUint64(b[17:25], h.nextOff)
	return b
}

func unmarshalHeader(b []byte, legacy bool) chunkHeader {
	h := chunkHeader{cType: codec.Tag(b[0])}
	if legacy {
		h.cLen = uint64(sizedio.Uint32(b[1:5]))
		h.uLen = uint64(sizedio.Uint32(b[5:9]))
		h.nextOff = uint64(sizedio.Uint32(b[9:13]))
		return h
	}
	h.cLen = sizedio.Uint64(b[1:9])
	h.uLen = sizedio.Uint64(b[9:17])
	h.nextOff = sizedio.Uint64(b[17:25])
	return h
}

// marshalNextOff encodes just the next_off field, for the back-patch write
// that rewrites only those bytes once the next chunk's offset is known.
func marshalNextOff(v uint64, legacy bool) []byte {
	if legacy {
		b := make([]byte, 4)
		sizedio.PutUint32(b, uint32(v))
		return b
	}
	b := make([]byte, 8)
	sizedio.PutUint64(b, v)
	return b
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
