// Package jitter produces the randomized spread applied to trajectories:
// coordinate displacement within a radius and interior timestamp drift.
//
// All randomness is drawn from an injected RNG so expansion is reproducible
// for a given seed.
package jitter

import (
	"math/rand/v2"
)

// RNG is the single random source threaded through expansion.
// Float64 returns a value in [0,1).
type RNG interface {
	Float64() float64
}

// NewSeeded returns a deterministic PCG-backed RNG.
func NewSeeded(seed uint64) RNG {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Fixed replays a fixed sequence of values, wrapping around. Handy when a
// test needs an exact draw.
type Fixed struct {
	Values []float64
	next   int
}

func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}

// Draws reports how many values have been consumed.
func (f *Fixed) Draws() int { return f.next }
