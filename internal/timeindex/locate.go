// Package timeindex finds the waypoint segment bracketing a query time.
package timeindex

import "sort"

// Phase tells where a query time falls relative to an instance's timestamps.
type Phase uint8

const (
	// PhaseActive means the query time lies inside [ts[0], ts[N-1]).
	PhaseActive Phase = iota
	// PhaseBefore means the query time precedes the first timestamp.
	PhaseBefore
	// PhaseAfter means no timestamp is greater than the query time.
	PhaseAfter
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseBefore:
		return "before"
	case PhaseAfter:
		return "after"
	}
	return "unknown"
}

// Location is the result of Locate.
//
// In PhaseActive, Prev < Next and Fraction is in [0,1).
// In PhaseBefore the sentinel is Prev == Next == 0 with Fraction 0.
// In PhaseAfter the sentinel is Prev == Next == N-1 with Fraction 1.
type Location struct {
	Prev, Next int
	Fraction   float64
	Phase      Phase
	// Degenerate is set when the timestamp segment (see Segment) has zero
	// length. Fraction is 0 in that case instead of NaN.
	Degenerate bool
}

// Segment returns the pair of waypoint indices whose timestamps bound the
// location. Outside PhaseActive it is the first or last segment, so a
// consumer mixing by time never sees two copies of the same timestamp
// unless the data itself repeats one.
func (l Location) Segment(n int) (int, int) {
	switch l.Phase {
	case PhaseBefore:
		return 0, 1
	case PhaseAfter:
		return n - 2, n - 1
	}
	return l.Prev, l.Next
}

// Locate finds the smallest i with ts[i] > q and derives the bracketing
// indices and interpolation fraction. ts must be non-decreasing and rebased
// so ts[0] == 0, with len(ts) >= 2. It never fails: out-of-range query times
// map onto the Before/After sentinels.
func Locate(ts []float64, q float64) Location {
	n := len(ts)
	i := sort.Search(n, func(k int) bool { return ts[k] > q })

	var loc Location
	switch {
	case i == 0:
		loc = Location{Prev: 0, Next: 0, Fraction: 0, Phase: PhaseBefore}
	case i == n:
		loc = Location{Prev: n - 1, Next: n - 1, Fraction: 1, Phase: PhaseAfter}
	default:
		loc = Location{Prev: i - 1, Next: i, Phase: PhaseActive}
		span := ts[i] - ts[i-1]
		if span > 0 {
			loc.Fraction = clamp01((q - ts[i-1]) / span)
		}
	}
	if n >= 2 {
		a, b := loc.Segment(n)
		loc.Degenerate = ts[a] == ts[b]
	}
	return loc
}

// Rebase writes ts shifted so its first value is 0 into dst, growing it as
// needed, and returns it.
func Rebase(dst, ts []float64) []float64 {
	dst = dst[:0]
	if len(ts) == 0 {
		return dst
	}
	base := ts[0]
	for _, t := range ts {
		dst = append(dst, t-base)
	}
	return dst
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
