package codec

import "github.com/klauspost/compress/s2"

// ProbeThreshold is the compressed/original ratio below which a prefix is
// judged "compressible". 0.99 means: shrank by more than 1%.
var ProbeThreshold = 0.99

// probeStart bounds the doubling prefix scan: it starts small and doubles
// each iteration, capped at len(src).
const probeStart = 4096

// Probe runs a cheap incompressibility pre-test: compress progressively
// larger prefixes of src with a fast codec (S2, standing in for LZO here —
// see DESIGN.md) until either the compressed fraction drops below
// ProbeThreshold ("compressible") or the whole input has been tried ("not
// compressible"). Setting ProbeThreshold above 1 short-circuits the probe
// to "always compressible".
func Probe(src []byte) bool {
	if ProbeThreshold > 1 {
		return true
	}
	if len(src) == 0 {
		return false
	}

	prefixLen := probeStart
	if prefixLen > len(src) {
		prefixLen = len(src)
	}

	for {
		prefix := src[:prefixLen]
		compressed := s2.Encode(nil, prefix)
		if float64(len(compressed)) < float64(len(prefix))*ProbeThreshold {
			return true
		}
		if prefixLen >= len(src) {
			return false
		}
		prefixLen *= 2
		if prefixLen > len(src) {
			prefixLen = len(src)
		}
	}
}
