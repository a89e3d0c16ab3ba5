package container

import "runtime"

// probeBufSize is the open-time sizing probe: pick bufsize <= limit such
// that bufsize*(numStreams+1) fits the available memory budget, shrinking
// by 10% each time it doesn't. If shrinking would take bufsize below
// StreamBufSize the probe fails with ErrResource; a limit that is already
// below StreamBufSize is raised to StreamBufSize. A real
// malloc-probe (attempt the allocation, catch failure) isn't reproducible
// safely in Go — a failed make() of that size is a fatal, unrecoverable
// runtime error, not a catchable exception — so this estimates the same
// shrink sequence against a memory budget instead of actually committing
// candidate-sized buffers.
func probeBufSize(limit int64, numStreams int, availableMemory int64) (int64, error) {
	if limit <= 0 {
		return 0, ErrResource
	}
	budget := availableMemory
	if budget <= 0 {
		budget = defaultMemoryBudget()
	}

	n := int64(numStreams) + 1
	candidate := limit
	for candidate*n > budget {
		next := candidate * 9 / 10
		if next >= candidate {
			return 0, ErrResource
		}
		candidate = next
		if candidate < StreamBufSize {
			return 0, ErrResource
		}
	}
	if candidate < StreamBufSize {
		candidate = StreamBufSize
	}
	return candidate, nil
}

// defaultMemoryBudget estimates how much memory the probe may commit to
// container buffers when the caller didn't supply Config.AvailableMemory.
// runtime.MemStats reports the Go heap, not system RAM, so this is
// deliberately conservative rather than a true sysconf(_SC_PHYS_PAGES)
// equivalent (which the standard library has no portable way to reach).
func defaultMemoryBudget() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	budget := int64(ms.Sys) * 4
	if budget < 256<<20 {
		budget = 256 << 20
	}
	return budget
}
