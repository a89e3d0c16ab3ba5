package sizedio

import (
	"encoding/binary"
	"unsafe"
)

// hostEndian is the container format's documented legacy defect: all
// multi-byte integers are stored in the byte order of the writer's host,
// not a fixed wire order. Isolated here so a future format revision can
// switch to a fixed byte order behind one seam.
var hostEndian binary.ByteOrder

func init() {
	var probe uint16 = 1
	if *(*byte)(unsafe.Pointer(&probe)) == 1 {
		hostEndian = binary.LittleEndian
	} else {
		hostEndian = binary.BigEndian
	}
}

// PutUint32 writes v into b in host byte order.
func PutUint32(b []byte, v uint32) { hostEndian.PutUint32(b, v) }

// Uint32 reads a host-byte-order uint32 from b.
func Uint32(b []byte) uint32 { return hostEndian.Uint32(b) }

// PutUint64 writes v into b in host byte order.
func PutUint64(b []byte, v uint64) { hostEndian.PutUint64(b, v) }

// Uint64 reads a host-byte-order uint64 from b.
func Uint64(b []byte) uint64 { return hostEndian.Uint64(b) }

// PutInt64 writes v into b in host byte order.
func PutInt64(b []byte, v int64) { hostEndian.PutUint64(b, uint64(v)) }

// Int64 reads a host-byte-order int64 from b.
func Int64(b []byte) int64 { return int64(hostEndian.Uint64(b)) }
