package sizedio

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestWriteReadExactRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	data := bytes.Repeat([]byte("x"), 1<<16)

	if err := WriteExact(&buf, data); err != nil {
		t.Fatalf("WriteExact: %v", err)
	}

	out := make([]byte, len(data))
	if err := ReadExact(&buf, out); err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("round trip mismatch")
	}
}

func TestReadExactShortTransfer(t *testing.T) {
	r := bytes.NewReader([]byte("short"))
	out := make([]byte, 100)
	if err := ReadExact(r, out); !errors.Is(err, ErrShortTransfer) {
		t.Fatalf("expected ErrShortTransfer, got %v", err)
	}
}

type partialReader struct {
	data []byte
}

func (p *partialReader) Read(b []byte) (int, error) {
	if len(p.data) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.data[:1])
	p.data = p.data[1:]
	return n, nil
}

func TestReadExactRetriesOneByteAtATime(t *testing.T) {
	data := []byte("hello world")
	pr := &partialReader{data: append([]byte(nil), data...)}
	out := make([]byte, len(data))
	if err := ReadExact(pr, out); err != nil {
		t.Fatalf("ReadExact: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("did not assemble a slow reader's bytes correctly")
	}
}

func TestHostEndianRoundTrip(t *testing.T) {
	b := make([]byte, 8)
	PutUint64(b, 0x0102030405060708)
	if Uint64(b) != 0x0102030405060708 {
		t.Fatal("uint64 round trip mismatch")
	}

	b32 := make([]byte, 4)
	PutUint32(b32, 0xAABBCCDD)
	if Uint32(b32) != 0xAABBCCDD {
		t.Fatal("uint32 round trip mismatch")
	}

	b64 := make([]byte, 8)
	PutInt64(b64, -12345)
	if Int64(b64) != -12345 {
		t.Fatal("int64 round trip mismatch")
	}
}
