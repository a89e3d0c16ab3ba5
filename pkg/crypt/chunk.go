package crypt

import "github.com/falk/lrzstream/internal/secure"

// EncryptChunk mutates buf in place (lrz_crypt, encrypt direction):
// derives this chunk's key/IV from ks and salt, then applies CTS.
func EncryptChunk(ks *KeySchedule, salt uint64, buf []byte) error {
	key, iv := ks.DeriveKeyIV(salt)
	secure.Lock(key[:])
	defer secure.Unlock(key[:])
	defer secure.Zero(key[:])
	defer secure.Zero(iv[:])
	return EncryptCTS(key, iv, buf)
}

// DecryptChunk mutates buf in place (lrz_crypt, decrypt direction).
func DecryptChunk(ks *KeySchedule, salt uint64, buf []byte) error {
	key, iv := ks.DeriveKeyIV(salt)
	secure.Lock(key[:])
	defer secure.Unlock(key[:])
	defer secure.Zero(key[:])
	defer secure.Zero(iv[:])
	return DecryptCTS(key, iv, buf)
}
