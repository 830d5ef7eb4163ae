// Package attrib derives the per-instance render attributes for a query time.
package attrib

import (
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"migration-renderer/internal/flow"
	"migration-renderer/internal/timeindex"
)

// minBatch is the smallest instance range handed to one worker.
const minBatch = 2048

// Buffer recomputes Frames from a fixed instance set. Two Frames are kept
// and swapped on every recomputation, so the Frame returned by one Update
// stays untouched until the second Update after it that changes the time.
//
// Update must be called from a single goroutine. Current may be called from
// any goroutine.
type Buffer struct {
	instances []flow.Instance
	rebased   [][]float64
	workers   int

	frames  [2]*Frame
	back    int
	current atomic.Pointer[Frame]

	generation uint64
	lastQuery  float64
	primed     bool
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithWorkers splits recomputation across n goroutines for large instance
// sets. n <= 1 keeps it on the calling goroutine.
func WithWorkers(n int) Option {
	return func(b *Buffer) { b.workers = n }
}

// NewBuffer prepares the static columns (random seed, fill color) and the
// rebased timestamp series for every instance.
func NewBuffer(instances []flow.Instance, opts ...Option) *Buffer {
	b := &Buffer{instances: instances, workers: 1}
	for _, opt := range opts {
		opt(b)
	}
	b.rebased = make([][]float64, len(instances))
	for i := range instances {
		b.rebased[i] = timeindex.Rebase(nil, instances[i].Timestamps)
	}
	for k := range b.frames {
		f := newFrame(len(instances))
		for i := range instances {
			f.Randoms[i] = instances[i].Random
			copy(f.FillColors[4*i:4*i+4], instances[i].Color[:])
		}
		b.frames[k] = f
	}
	return b
}

// Len returns the number of instances.
func (b *Buffer) Len() int { return len(b.instances) }

// Generation counts recomputations so far.
func (b *Buffer) Generation() uint64 { return b.generation }

// Current returns the last computed Frame, or nil before the first Update.
func (b *Buffer) Current() *Frame { return b.current.Load() }

// Update returns the Frame for queryTime. When queryTime equals the time
// of the previous recomputation the cached Frame is returned with
// changed == false.
func (b *Buffer) Update(queryTime float64) (*Frame, bool) {
	if b.primed && queryTime == b.lastQuery {
		return b.current.Load(), false
	}

	f := b.frames[b.back]
	b.compute(f, queryTime)

	b.generation++
	f.Generation = b.generation
	f.QueryTime = queryTime
	b.lastQuery = queryTime
	b.primed = true
	b.current.Store(f)
	b.back ^= 1

	if f.Degenerate > 0 {
		log.Printf("frame %d at t=%.3f: %d instances on zero-length time segments", f.Generation, queryTime, f.Degenerate)
	}
	return f, true
}

// CheckLayout verifies both backing Frames against t.
func (b *Buffer) CheckLayout(t *Table[*Frame]) error {
	for _, f := range b.frames {
		if err := t.Check(f, len(b.instances), len(b.instances)); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate forces the next Update to recompute.
func (b *Buffer) Invalidate() { b.primed = false }

func (b *Buffer) compute(f *Frame, q float64) {
	n := len(b.instances)
	f.Active, f.Before, f.After, f.Degenerate = 0, 0, 0, 0

	if b.workers <= 1 || n < 2*minBatch {
		f.Degenerate = b.fill(f, q, 0, n)
	} else {
		chunk := max((n+b.workers-1)/b.workers, minBatch)
		counts := make([]int, (n+chunk-1)/chunk)
		var g errgroup.Group
		g.SetLimit(b.workers)
		for k := range counts {
			lo, hi := k*chunk, min((k+1)*chunk, n)
			g.Go(func() error {
				counts[k] = b.fill(f, q, lo, hi)
				return nil
			})
		}
		_ = g.Wait()
		for _, c := range counts {
			f.Degenerate += c
		}
	}

	for _, p := range f.Phases {
		switch p {
		case timeindex.PhaseActive:
			f.Active++
		case timeindex.PhaseBefore:
			f.Before++
		case timeindex.PhaseAfter:
			f.After++
		}
	}
}

// fill writes instances [lo, hi) and returns how many sit on a zero-length
// time segment. Ranges never overlap, so workers share f without locking.
func (b *Buffer) fill(f *Frame, q float64, lo, hi int) int {
	degenerate := 0
	for i := lo; i < hi; i++ {
		in := &b.instances[i]
		ts := b.rebased[i]

		loc := timeindex.Locate(ts, q)
		a, c := loc.Segment(len(ts))

		cur := in.Path[loc.Prev]
		next := in.Path[loc.Next]
		f.Positions[2*i], f.Positions[2*i+1] = cur[0], cur[1]
		f.NextPositions[2*i], f.NextPositions[2*i+1] = next[0], next[1]
		f.Timestamps[i] = ts[a]
		f.NextTimestamps[i] = ts[c]
		f.Fractions[i] = loc.Fraction
		f.Phases[i] = loc.Phase
		if loc.Degenerate {
			degenerate++
		}
	}
	return degenerate
}
