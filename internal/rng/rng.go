// Package rng provides the seeded random streams every stochastic part of a
// run draws from.
//
// A stream is keyed by the run seed plus a context tag (day, location and a
// subsystem discriminator), so the same tag always replays the same values
// and different tags stay uncorrelated.
package rng

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Hash is the 32-bit FNV-1a hash of s.
func Hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// Stream is a mulberry32 generator. The zero value is a valid stream seeded
// with 0.
type Stream struct {
	state uint32
}

func New(seed uint32) *Stream {
	return &Stream{state: seed}
}

// ForContext derives the stream for seed + ":" + tags joined by ":".
func ForContext(seed string, tags ...string) *Stream {
	return New(Hash(seed + ":" + strings.Join(tags, ":")))
}

// Tag joins heterogeneous context parts into a single tag.
func Tag(parts ...any) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			out = append(out, v)
		case int:
			out = append(out, strconv.Itoa(v))
		case int64:
			out = append(out, strconv.FormatInt(v, 10))
		default:
			out = append(out, "?")
		}
	}
	return strings.Join(out, ":")
}

// Float64 returns the next value in [0,1).
func (s *Stream) Float64() float64 {
	s.state += 0x6D2B79F5
	t := s.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// Range returns a value in [lo,hi).
func (s *Stream) Range(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// Intn returns a value in [0,n). n <= 0 yields 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Float64() * float64(n))
}

// IntRange returns a value in [lo,hi], both inclusive.
func (s *Stream) IntRange(lo, hi int) int {
	if hi < lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Chance reports whether a roll lands under p.
func (s *Stream) Chance(p float64) bool {
	return s.Float64() < p
}

// Weighted picks an index by cumulative weight. The first index whose running
// total is >= the roll wins, so a boundary tie goes to the earlier entry.
// Returns -1 when weights is empty or sums to zero.
func (s *Stream) Weighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := s.Float64() * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if acc >= roll {
			return i
		}
	}
	return last
}

// Shuffle permutes n elements in place through swap (Fisher-Yates).
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}
