package attrib

import "migration-renderer/internal/timeindex"

// Frame holds the per-instance attribute columns for one query time.
// Columns are flat: Positions and NextPositions carry 2 values (lng, lat)
// per instance, FillColors carries 4 (RGBA), the rest carry 1.
//
// A Frame returned by Buffer.Update must be treated as read-only.
type Frame struct {
	Generation uint64
	QueryTime  float64

	Positions      []float64
	NextPositions  []float64
	Timestamps     []float64
	NextTimestamps []float64
	Fractions      []float64
	Phases         []timeindex.Phase
	Randoms        []float32
	FillColors     []uint8

	// Per-recomputation summary.
	Active, Before, After int
	Degenerate            int
}

// Len returns the number of instances in the frame.
func (f *Frame) Len() int { return len(f.Timestamps) }

// Position returns instance i's current waypoint.
func (f *Frame) Position(i int) (float64, float64) {
	return f.Positions[2*i], f.Positions[2*i+1]
}

// NextPosition returns instance i's next waypoint.
func (f *Frame) NextPosition(i int) (float64, float64) {
	return f.NextPositions[2*i], f.NextPositions[2*i+1]
}

func newFrame(n int) *Frame {
	return &Frame{
		Positions:      make([]float64, 2*n),
		NextPositions:  make([]float64, 2*n),
		Timestamps:     make([]float64, n),
		NextTimestamps: make([]float64, n),
		Fractions:      make([]float64, n),
		Phases:         make([]timeindex.Phase, n),
		Randoms:        make([]float32, n),
		FillColors:     make([]uint8, 4*n),
	}
}
