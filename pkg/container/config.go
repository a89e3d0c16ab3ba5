// Package container implements the multi-stream compression container: an
// append-only, linked-list-of-chunks on-disk format, its two worker rings
// (one on the write side, one per stream on the read side), and the
// public open/write/read/close facade over both.
package container

import (
	"github.com/sirupsen/logrus"

	"github.com/falk/lrzstream/pkg/codec"
)

var defaultLogger = logrus.New()

func init() {
	defaultLogger.SetLevel(logrus.WarnLevel)
}

// StreamBufSize is the minimum and baseline chunk size, used as the floor
// for the open-time sizing probe. The codec package's compressibility
// probe does not use it: its prefix doubling is capped only by the input
// length.
const StreamBufSize = 1 << 16

// Config is an immutable set of knobs shared read-only by every worker in
// a container's rings. Build one, pass it to OpenOut/OpenIn, and never
// mutate it afterward — workers read it concurrently with no lock of
// their own.
type Config struct {
	// Threads is T, the width of the write ring and of each stream's read
	// sub-ring.
	Threads int

	// Codec selects the back-end tag used when compressing. NONE disables
	// compression entirely.
	Codec codec.Tag

	// Level is the caller-facing 1-9 compression level, rescaled per
	// back-end.
	Level int

	// BufLimit is the caller's requested upper bound on bufsize; the
	// actual bufsize chosen by the open-time probe is <= BufLimit, except
	// that a BufLimit below StreamBufSize is raised to StreamBufSize.
	BufLimit int64

	// Passphrase enables per-chunk encryption when non-nil. EncLoops is
	// the key-stretching iteration count; a zero value with a non-nil
	// passphrase still derives a key (zero rounds of hardening).
	Passphrase []byte
	EncLoops   int

	// MajorVersion, MinorVersion select the on-disk chunk header layout:
	// 25 bytes, or the legacy 13-byte layout when Major == 0 && Minor < 4.
	MajorVersion int
	MinorVersion int

	// AvailableMemory overrides the sizing probe's notion of how much
	// memory it may commit to bufsize*(N+1); zero means auto-detect. Set
	// explicitly in tests to make the probe's outcome deterministic.
	AvailableMemory int64

	// Logger receives two diagnostics: the zero-initial-header recovery
	// retry on open, and worker-poison transitions. Nil uses a
	// package-level logger at Warn level.
	Logger *logrus.Logger
}

func (c *Config) legacyHeader() bool {
	return c.MajorVersion == 0 && c.MinorVersion < 4
}

func (c *Config) logger() *logrus.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defaultLogger
}

func (c *Config) threads() int {
	if c.Threads < 1 {
		return 1
	}
	return c.Threads
}
