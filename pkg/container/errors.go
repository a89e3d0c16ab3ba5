package container

import "errors"

// ErrFormat reports a malformed on-disk container: a non-zero initial
// header where a zero one was expected, a chunk whose decompressed length
// mismatched its advertised u_len, or an unknown c_type.
var ErrFormat = errors.New("container: format error")

// ErrResource reports an open-time sizing-probe failure that cannot be
// recovered by shrinking further.
var ErrResource = errors.New("container: resource error")

// ErrPoisoned is returned by Write, Read, and Close once a worker has
// failed fatally. A worker error never exits the process; it flips the
// container into a poisoned state so every subsequent call returns this
// error instead of silently continuing against a corrupted stream.
var ErrPoisoned = errors.New("container: poisoned by a prior worker error")
