// Package crypt implements the container's per-chunk encryption: a
// passphrase key schedule and AES-128-CBC with ciphertext stealing for
// payloads whose length is not a multiple of the cipher block size.
package crypt

import (
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/falk/lrzstream/internal/secure"
)

// HashLen is the output size of the SHA-512 hash used throughout key
// derivation.
const HashLen = sha512.Size

// ErrCrypto reports a key-schedule or key-derivation failure.
var ErrCrypto = errors.New("crypt: key schedule error")

// KeySchedule holds the passphrase-derived master hash and the rolling
// hash produced by EncLoops key-stretching iterations. It is built once
// per container open and shared read-only by every worker.
type KeySchedule struct {
	passHash [HashLen]byte
	hash     [HashLen]byte
}

// NewKeySchedule runs lrz_keygen: pass_hash := SHA(passphrase), then
// encLoops iterations of hash := SHA(hash XOR pass_hash). The loop count is
// the caller's brute-force cost knob.
func NewKeySchedule(passphrase []byte, encLoops int) (*KeySchedule, error) {
	if encLoops < 0 {
		return nil, fmt.Errorf("%w: encLoops must be >= 0", ErrCrypto)
	}

	secure.Lock(passphrase)
	defer secure.Unlock(passphrase)

	ks := &KeySchedule{}
	ks.passHash = sha512.Sum512(passphrase)
	ks.hash = ks.passHash

	var scratch [HashLen]byte
	for i := 0; i < encLoops; i++ {
		xorInto(scratch[:], ks.hash[:], ks.passHash[:])
		ks.hash = sha512.Sum512(scratch[:])
	}
	return ks, nil
}

// Close zeroes the schedule's in-memory key material.
func (ks *KeySchedule) Close() {
	secure.Zero(ks.passHash[:])
	secure.Zero(ks.hash[:])
}

// DeriveKeyIV computes the per-chunk AES-128 key and IV for salt:
// key_material := (pass_hash XOR hash) || salt, hashed into key;
// iv_material := (key XOR pass_hash) || salt, hashed into iv; only the
// first 16 bytes of each are used.
func (ks *KeySchedule) DeriveKeyIV(salt uint64) (key, iv [16]byte) {
	var saltBytes [8]byte
	binary.LittleEndian.PutUint64(saltBytes[:], salt)

	var keyMaterial [HashLen + 8]byte
	xorInto(keyMaterial[:HashLen], ks.passHash[:], ks.hash[:])
	copy(keyMaterial[HashLen:], saltBytes[:])
	fullKey := sha512.Sum512(keyMaterial[:])

	var ivMaterial [HashLen + 8]byte
	xorInto(ivMaterial[:HashLen], fullKey[:], ks.passHash[:])
	copy(ivMaterial[HashLen:], saltBytes[:])
	fullIV := sha512.Sum512(ivMaterial[:])

	copy(key[:], fullKey[:16])
	copy(iv[:], fullIV[:16])

	secure.Zero(keyMaterial[:])
	secure.Zero(ivMaterial[:])
	return key, iv
}

func xorInto(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
