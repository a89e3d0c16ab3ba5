package container

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/falk/lrzstream/internal/sizedio"
	"github.com/falk/lrzstream/pkg/codec"
	"github.com/falk/lrzstream/pkg/crypt"
)

type wstream struct {
	buf      []byte
	lastHead int64 // absolute offset of this stream's next_off field to patch
	chunks   uint64
}

type writeSlot struct {
	free     binSem
	complete binSem
	waitOn   int
}

// Writer is the write-side container handle: open_out/write/close_out
// over the write ring below.
type Writer struct {
	cfg        *Config
	f          io.WriteSeeker
	initialPos int64
	bufsize    int64

	streams    []*wstream
	slots      []*writeSlot
	nextThread int
	submitMu   sync.Mutex

	curPos int64 // guarded exclusively by the worker holding the write-chain turn

	keySchedule *crypt.KeySchedule

	wg sync.WaitGroup

	poisoned  atomic.Bool
	poisonMu  sync.Mutex
	poisonErr error
}

// OpenOut allocates a container of numStreams logical streams at f's
// current position, runs the bufsize sizing probe against cfg, and writes
// numStreams zeroed initial headers.
func OpenOut(f io.WriteSeeker, numStreams int, cfg *Config) (*Writer, error) {
	if numStreams < 1 {
		return nil, fmt.Errorf("%w: numStreams must be >= 1", ErrResource)
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sizedio.ErrIO, err)
	}

	bufsize, err := probeBufSize(cfg.BufLimit, numStreams, cfg.AvailableMemory)
	if err != nil {
		return nil, err
	}

	var ks *crypt.KeySchedule
	if cfg.Passphrase != nil {
		ks, err = crypt.NewKeySchedule(cfg.Passphrase, cfg.EncLoops)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}

	w := &Writer{
		cfg:         cfg,
		f:           f,
		initialPos:  pos,
		bufsize:     bufsize,
		keySchedule: ks,
	}

	legacy := cfg.legacyHeader()
	blank := marshalHeader(chunkHeader{cType: codec.NONE}, legacy)

	w.streams = make([]*wstream, numStreams)
	for i := 0; i < numStreams; i++ {
		if err := sizedio.WriteExact(f, blank); err != nil {
			return nil, err
		}
		w.streams[i] = &wstream{
			buf:      make([]byte, 0, bufsize),
			lastHead: pos + int64(i)*int64(headerSize(legacy)) + int64(nextOffFieldOffset(legacy)),
		}
	}
	w.curPos = pos + int64(numStreams)*int64(headerSize(legacy))

	t := cfg.threads()
	w.slots = make([]*writeSlot, t)
	for i := 0; i < t; i++ {
		w.slots[i] = &writeSlot{
			free:   newBinSem(true),
			waitOn: (i - 1 + t) % t,
		}
		w.slots[i].complete = newBinSem(false)
	}
	w.slots[t-1].complete.post()

	return w, nil
}

func (w *Writer) poison(err error) {
	if w.poisoned.CompareAndSwap(false, true) {
		w.poisonMu.Lock()
		w.poisonErr = err
		w.poisonMu.Unlock()
		w.cfg.logger().WithError(err).Error("container: worker poisoned the container")
	}
}

func (w *Writer) poisonedErr() error {
	w.poisonMu.Lock()
	defer w.poisonMu.Unlock()
	if w.poisonErr != nil {
		return fmt.Errorf("%w: %v", ErrPoisoned, w.poisonErr)
	}
	return ErrPoisoned
}

// Write appends bytes to stream's logical byte sequence, flushing full
// buffers into the write ring as needed.
func (w *Writer) Write(stream int, p []byte) (int, error) {
	if w.poisoned.Load() {
		return 0, w.poisonedErr()
	}
	if stream < 0 || stream >= len(w.streams) {
		return 0, fmt.Errorf("%w: stream index %d out of range", ErrFormat, stream)
	}

	s := w.streams[stream]
	total := 0
	for len(p) > 0 {
		room := cap(s.buf) - len(s.buf)
		n := len(p)
		if n > room {
			n = room
		}
		s.buf = append(s.buf, p[:n]...)
		p = p[n:]
		total += n

		if len(s.buf) == cap(s.buf) {
			if err := w.flushBuffer(stream); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// flushBuffer hands the stream's accumulated buffer to the next slot in
// the write ring.
func (w *Writer) flushBuffer(stream int) error {
	s := w.streams[stream]
	if len(s.buf) == 0 {
		return nil
	}

	w.submitMu.Lock()
	i := w.nextThread
	w.nextThread = (w.nextThread + 1) % len(w.slots)
	w.submitMu.Unlock()

	slot := w.slots[i]
	slot.free.wait()

	payload := s.buf
	s.buf = make([]byte, 0, w.bufsize)

	// The salt is assigned here, synchronously in submission order, rather
	// than inside the worker: workers for the same stream compress in
	// parallel and may finish in any order, but the reader replays salts
	// by each chunk's position in the stream's on-disk chain, so the salt
	// must track submission order, not compression-completion order.
	salt := s.chunks
	s.chunks++

	if w.poisoned.Load() {
		// Still must run the slot through the chain so downstream slots
		// waiting on this one's complete don't deadlock.
		w.runWorker(i, stream, payload, salt, true)
		return w.poisonedErr()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.runWorker(i, stream, payload, salt, false)
	}()
	return nil
}

// runWorker is the write-ring worker body. skipWrite is set once the
// container is already poisoned: the chain must still advance so no
// downstream worker blocks forever on this slot's complete, but no bytes
// are committed.
func (w *Writer) runWorker(slot, stream int, payload []byte, salt uint64, skipWrite bool) {
	sl := w.slots[slot]

	var compressed []byte
	var tag codec.Tag
	var err error
	if !skipWrite {
		compressed, tag, err = codec.Compress(w.cfg.Codec, payload, w.cfg.Level)
		if err == nil && w.keySchedule != nil {
			// The 25-byte chunk header has no room for a stored salt, so the
			// salt is the chunk's ordinal within its stream: both sides walk
			// chunks of a given stream in the same order, so this is exactly
			// reproducible on decrypt without being written to disk.
			err = crypt.EncryptChunk(w.keySchedule, salt, compressed)
		}
		if err != nil {
			w.poison(fmt.Errorf("container: compress/encrypt stream %d: %w", stream, err))
			skipWrite = true
		}
	}

	pred := w.slots[sl.waitOn]
	pred.complete.wait()

	if !skipWrite && !w.poisoned.Load() {
		if err := w.commit(stream, tag, payload, compressed); err != nil {
			w.poison(err)
		}
	}

	sl.complete.post()
	sl.free.post()
}

// commit is the write ring's single critical section: back-patch the
// predecessor header, then append this chunk's header and payload. Only
// the worker currently holding the chain's turn ever calls this, so
// cur_pos and each stream's last_head need no lock of their own.
func (w *Writer) commit(stream int, tag codec.Tag, uncompressed, compressed []byte) error {
	legacy := w.cfg.legacyHeader()
	s := w.streams[stream]

	if _, err := w.f.Seek(s.lastHead, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", sizedio.ErrIO, err)
	}
	if err := sizedio.WriteExact(w.f, marshalNextOff(uint64(w.curPos), legacy)); err != nil {
		return err
	}

	s.lastHead = w.curPos + int64(nextOffFieldOffset(legacy))

	if _, err := w.f.Seek(w.curPos, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", sizedio.ErrIO, err)
	}
	h := chunkHeader{
		cType:   tag,
		cLen:    uint64(len(compressed)),
		uLen:    uint64(len(uncompressed)),
		nextOff: 0,
	}
	if err := sizedio.WriteExact(w.f, marshalHeader(h, legacy)); err != nil {
		return err
	}
	if err := sizedio.WriteExact(w.f, compressed); err != nil {
		return err
	}
	w.curPos += int64(headerSize(legacy)) + int64(len(compressed))

	if sy, ok := w.f.(syncer); ok {
		if err := sy.Sync(); err != nil {
			return fmt.Errorf("%w: %v", sizedio.ErrIO, err)
		}
	}
	return nil
}

// syncer is satisfied by *os.File; an fsync after each chunk commit when
// the underlying writer supports it, a no-op (e.g. over an in-memory
// buffer in tests) otherwise.
type syncer interface {
	Sync() error
}

// CloseOut flushes every stream's partial buffer, waits for every ring
// slot to drain, and returns any error a worker poisoned the container
// with.
func (w *Writer) CloseOut() error {
	var flushErr error
	for i := range w.streams {
		if err := w.flushBuffer(i); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	w.wg.Wait()
	for _, sl := range w.slots {
		sl.free.wait()
		sl.free.post()
	}
	if w.keySchedule != nil {
		w.keySchedule.Close()
	}
	if w.poisoned.Load() {
		return w.poisonedErr()
	}
	return flushErr
}
