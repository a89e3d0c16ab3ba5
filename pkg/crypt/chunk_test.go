package crypt

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptChunkRoundTrip(t *testing.T) {
	ks, err := NewKeySchedule([]byte("a passphrase"), 25)
	if err != nil {
		t.Fatalf("NewKeySchedule: %v", err)
	}

	pt := plaintext(2000)
	buf := append([]byte(nil), pt...)
	if err := EncryptChunk(ks, 5, buf); err != nil {
		t.Fatalf("EncryptChunk: %v", err)
	}
	if bytes.Equal(buf, pt) {
		t.Fatal("ciphertext should differ from plaintext")
	}
	if err := DecryptChunk(ks, 5, buf); err != nil {
		t.Fatalf("DecryptChunk: %v", err)
	}
	if !bytes.Equal(buf, pt) {
		t.Fatal("round trip mismatch")
	}
}

func TestDecryptChunkWrongPassphraseFails(t *testing.T) {
	ks1, _ := NewKeySchedule([]byte("right"), 10)
	ks2, _ := NewKeySchedule([]byte("wrong"), 10)

	pt := plaintext(100)
	buf := append([]byte(nil), pt...)
	if err := EncryptChunk(ks1, 1, buf); err != nil {
		t.Fatalf("EncryptChunk: %v", err)
	}
	if err := DecryptChunk(ks2, 1, buf); err != nil {
		t.Fatalf("DecryptChunk: %v", err)
	}
	if bytes.Equal(buf, pt) {
		t.Fatal("decrypting with the wrong passphrase must not recover the plaintext")
	}
}
