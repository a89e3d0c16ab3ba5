package container

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/falk/lrzstream/internal/sizedio"
	"github.com/falk/lrzstream/pkg/codec"
	"github.com/falk/lrzstream/pkg/crypt"
)

type rstream struct {
	buf    []byte
	bufp   int
	eos    bool
	nextHeaderOffset int64

	baseThread  int
	uThreadNo   int
	uNextThread int
	outstanding int
	chunkCounter uint64
}

type readSlot struct {
	free     binSem
	complete binSem
	ready    binSem

	payload []byte
	cType   codec.Tag
	cLen    uint64
	uLen    uint64

	result []byte
	err    error
}

// Reader is the read-side container handle: open_in/read/close_in over
// the per-stream read rings below.
type Reader struct {
	cfg        *Config
	f          io.ReadSeeker
	initialPos int64
	totalRead  int64

	streams []*rstream
	slots   []*readSlot

	keySchedule *crypt.KeySchedule

	wg sync.WaitGroup

	poisoned  atomic.Bool
	poisonMu  sync.Mutex
	poisonErr error
}

// OpenIn reads and validates numStreams initial headers at f's current
// position, applying the zero-initial-header recovery nuance described
// below.
func OpenIn(f io.ReadSeeker, numStreams int, cfg *Config) (*Reader, error) {
	if numStreams < 1 {
		return nil, fmt.Errorf("%w: numStreams must be >= 1", ErrFormat)
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sizedio.ErrIO, err)
	}

	var ks *crypt.KeySchedule
	if cfg.Passphrase != nil {
		ks, err = crypt.NewKeySchedule(cfg.Passphrase, cfg.EncLoops)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}

	legacy := cfg.legacyHeader()
	hs := headerSize(legacy)

	r := &Reader{
		cfg:         cfg,
		f:           f,
		initialPos:  pos,
		keySchedule: ks,
	}

	r.streams = make([]*rstream, numStreams)
	retried := false
	for i := 0; i < numStreams; i++ {
		hb := make([]byte, hs)
		if err := sizedio.ReadExact(f, hb); err != nil {
			return nil, err
		}

		if i == 0 && !retried && isZero(hb) {
			cfg.logger().Warn("container: stream 0 initial header entirely zero, skipping and retrying once")
			retried = true
			if err := sizedio.ReadExact(f, hb); err != nil {
				return nil, err
			}
		}

		if !isZero(hb[:nextOffFieldOffset(legacy)]) {
			return nil, fmt.Errorf("%w: stream %d initial header is not zero-filled", ErrFormat, i)
		}

		h := unmarshalHeader(hb, legacy)
		r.streams[i] = &rstream{
			nextHeaderOffset: int64(h.nextOff),
			eos:              h.nextOff == 0,
			baseThread:       i * cfg.threads(),
		}
	}
	r.totalRead = int64(numStreams) * int64(hs)

	total := numStreams * cfg.threads()
	r.slots = make([]*readSlot, total)
	for i := range r.slots {
		r.slots[i] = &readSlot{
			free:     newBinSem(true),
			complete: newBinSem(false),
			ready:    newBinSem(false),
		}
	}

	return r, nil
}

func (r *Reader) poison(err error) {
	if r.poisoned.CompareAndSwap(false, true) {
		r.poisonMu.Lock()
		r.poisonErr = err
		r.poisonMu.Unlock()
		r.cfg.logger().WithError(err).Error("container: worker poisoned the container")
	}
}

func (r *Reader) poisonedErr() error {
	r.poisonMu.Lock()
	defer r.poisonMu.Unlock()
	if r.poisonErr != nil {
		return fmt.Errorf("%w: %v", ErrPoisoned, r.poisonErr)
	}
	return ErrPoisoned
}

// Read copies up to len(p) decompressed bytes from stream into p, refilling
// from the read ring as needed. It returns (0, nil) at end of stream.
func (r *Reader) Read(stream int, p []byte) (int, error) {
	if r.poisoned.Load() {
		return 0, r.poisonedErr()
	}
	if stream < 0 || stream >= len(r.streams) {
		return 0, fmt.Errorf("%w: stream index %d out of range", ErrFormat, stream)
	}

	s := r.streams[stream]
	total := 0
	for len(p) > 0 {
		if s.bufp >= len(s.buf) {
			n, err := r.fillBuffer(stream)
			if err != nil {
				return total, err
			}
			if n == 0 {
				break
			}
		}
		n := copy(p, s.buf[s.bufp:])
		s.bufp += n
		p = p[n:]
		total += n
	}
	return total, nil
}

// fillBuffer is the read ring's prefetch loop: submit one chunk (cascading
// further submissions while later slots are already free), then collect
// the oldest outstanding result in FIFO order.
func (r *Reader) fillBuffer(stream int) (int, error) {
	s := r.streams[stream]

	if !s.eos {
		if err := r.prefetchOne(stream); err != nil {
			return 0, err
		}
	}
	if s.outstanding == 0 {
		return 0, nil
	}

	slot := r.slots[s.baseThread+s.uNextThread]
	slot.complete.wait()

	var result []byte
	var workerErr error
	if slot.err != nil {
		workerErr = fmt.Errorf("container: stream %d: %w", stream, slot.err)
	} else {
		result = slot.result
	}
	slot.ready.post()

	s.outstanding--
	s.uNextThread = (s.uNextThread + 1) % r.cfg.threads()

	if workerErr != nil {
		r.poison(workerErr)
		return 0, workerErr
	}

	s.buf = result
	s.bufp = 0
	return len(s.buf), nil
}

// prefetchOne reads the next chunk header, claims a free slot in the
// stream's sub-ring, spawns a decompression worker, and cascades into a
// further prefetch while the next slot is already free.
func (r *Reader) prefetchOne(stream int) error {
	s := r.streams[stream]
	if s.eos {
		return nil
	}
	legacy := r.cfg.legacyHeader()

	if _, err := r.f.Seek(s.nextHeaderOffset, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", sizedio.ErrIO, err)
	}
	hb := make([]byte, headerSize(legacy))
	if err := sizedio.ReadExact(r.f, hb); err != nil {
		return err
	}
	h := unmarshalHeader(hb, legacy)
	if h.cLen > 0 && h.cType != codec.NONE {
		if _, ok := codec.Get(h.cType); !ok {
			return fmt.Errorf("%w: unknown c_type %s", ErrFormat, h.cType)
		}
	}

	payload := make([]byte, h.cLen)
	if err := sizedio.ReadExact(r.f, payload); err != nil {
		return err
	}
	r.totalRead += int64(headerSize(legacy)) + int64(h.cLen)

	slotIdx := s.baseThread + s.uThreadNo
	slot := r.slots[slotIdx]
	slot.free.wait()

	slot.payload = payload
	slot.cType = h.cType
	slot.cLen = h.cLen
	slot.uLen = h.uLen

	salt := s.chunkCounter
	s.chunkCounter++

	s.nextHeaderOffset = int64(h.nextOff)
	if h.nextOff == 0 {
		s.eos = true
	}
	s.outstanding++
	s.uThreadNo = (s.uThreadNo + 1) % r.cfg.threads()

	r.wg.Add(1)
	go r.decompressWorker(slot, salt)

	next := r.slots[s.baseThread+s.uThreadNo]
	if !s.eos && next.free.tryWait() {
		next.free.post()
		return r.prefetchOne(stream)
	}
	return nil
}

// decompressWorker is the read-ring worker body.
func (r *Reader) decompressWorker(slot *readSlot, salt uint64) {
	defer r.wg.Done()

	payload := slot.payload
	var err error
	if r.keySchedule != nil {
		err = crypt.DecryptChunk(r.keySchedule, salt, payload)
	}

	var out []byte
	if err == nil {
		out, err = codec.Decompress(slot.cType, payload, int(slot.uLen))
		if err != nil && errors.Is(err, codec.ErrUnknownTag) {
			err = fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}
	if err == nil && uint64(len(out)) != slot.uLen {
		err = fmt.Errorf("%w: decompressed length %d != advertised u_len %d", ErrFormat, len(out), slot.uLen)
	}

	slot.result = out
	slot.err = err
	slot.complete.post()
	slot.ready.wait()
	slot.free.post()
}

// CloseIn drains every stream's outstanding workers and seeks f to
// initial_pos + total_read, so the caller may continue reading anything
// appended after the container.
func (r *Reader) CloseIn() error {
	for _, s := range r.streams {
		for s.outstanding > 0 {
			slot := r.slots[s.baseThread+s.uNextThread]
			slot.complete.wait()
			slot.ready.post()
			s.outstanding--
			s.uNextThread = (s.uNextThread + 1) % r.cfg.threads()
		}
	}
	r.wg.Wait()
	if r.keySchedule != nil {
		r.keySchedule.Close()
	}
	if _, err := r.f.Seek(r.initialPos+r.totalRead, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", sizedio.ErrIO, err)
	}
	if r.poisoned.Load() {
		return r.poisonedErr()
	}
	return nil
}
