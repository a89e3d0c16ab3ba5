package crypt

import (
	"bytes"
	"testing"
)

func plaintext(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestCTSLengthExactness(t *testing.T) {
	var key, iv [16]byte
	for i := range key {
		key[i] = byte(i * 3)
		iv[i] = byte(i * 7)
	}

	lengths := []int{1, 15, 16, 17, 31, 32, 33}
	for l := 64; l <= 1023; l += 97 {
		lengths = append(lengths, l)
	}

	for _, n := range lengths {
		pt := plaintext(n)
		buf := append([]byte(nil), pt...)

		if err := EncryptCTS(key, iv, buf); err != nil {
			t.Fatalf("len %d: encrypt: %v", n, err)
		}
		if len(buf) != n {
			t.Fatalf("len %d: ciphertext length changed to %d", n, len(buf))
		}

		if err := DecryptCTS(key, iv, buf); err != nil {
			t.Fatalf("len %d: decrypt: %v", n, err)
		}
		if !bytes.Equal(buf, pt) {
			t.Fatalf("len %d: round trip mismatch", n)
		}
	}
}

// TestCTSKnownVector exercises the exact self-consistency scenario
// described for a 17-byte payload with all-zero key and IV (S5).
func TestCTSKnownVector(t *testing.T) {
	var key, iv [16]byte
	pt := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}

	buf := append([]byte(nil), pt...)
	if err := EncryptCTS(key, iv, buf); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(buf, pt) {
		t.Fatal("ciphertext should differ from plaintext")
	}
	if err := DecryptCTS(key, iv, buf); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(buf, pt) {
		t.Fatal("decrypted buffer does not match original plaintext")
	}
}

func TestCTSEmptyInput(t *testing.T) {
	var key, iv [16]byte
	var buf []byte
	if err := EncryptCTS(key, iv, buf); err != nil {
		t.Fatalf("encrypt empty: %v", err)
	}
	if err := DecryptCTS(key, iv, buf); err != nil {
		t.Fatalf("decrypt empty: %v", err)
	}
}

func TestCTSBlockAligned(t *testing.T) {
	var key, iv [16]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	pt := plaintext(64)
	buf := append([]byte(nil), pt...)
	if err := EncryptCTS(key, iv, buf); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := DecryptCTS(key, iv, buf); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(buf, pt) {
		t.Fatal("round trip mismatch for block-aligned payload")
	}
}
