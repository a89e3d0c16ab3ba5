//go:build unix

// Package secure pins key-material buffers so they cannot be paged to
// swap for the duration of a call, and zeroes them explicitly before
// release.
package secure

import "golang.org/x/sys/unix"

// Lock pins b's pages against swap. Errors are non-fatal: not every
// sandboxed or containerized host grants CAP_IPC_LOCK, and the key
// material is zeroed regardless on release.
func Lock(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Mlock(b)
}

// Unlock releases a previous Lock.
func Unlock(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}

// Zero overwrites b with zeros. Used on release of key material.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
