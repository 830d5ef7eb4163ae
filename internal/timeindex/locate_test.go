package timeindex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateMidSegment(t *testing.T) {
	loc := Locate([]float64{0, 10, 20}, 5)
	assert.Equal(t, 0, loc.Prev)
	assert.Equal(t, 1, loc.Next)
	assert.Equal(t, 0.5, loc.Fraction)
	assert.Equal(t, PhaseActive, loc.Phase)
	assert.False(t, loc.Degenerate)
}

func TestLocateOnWaypoint(t *testing.T) {
	loc := Locate([]float64{0, 10, 20}, 10)
	assert.Equal(t, 1, loc.Prev)
	assert.Equal(t, 2, loc.Next)
	assert.Equal(t, 0.0, loc.Fraction)

	loc = Locate([]float64{0, 10, 20}, 0)
	assert.Equal(t, 0, loc.Prev)
	assert.Equal(t, 1, loc.Next)
	assert.Equal(t, PhaseActive, loc.Phase)
}

func TestLocateBeforeStart(t *testing.T) {
	loc := Locate([]float64{0, 10, 20}, -3)
	assert.Equal(t, PhaseBefore, loc.Phase)
	assert.Equal(t, 0, loc.Prev)
	assert.Equal(t, 0, loc.Next)
	assert.Equal(t, 0.0, loc.Fraction)
	a, b := loc.Segment(3)
	assert.Equal(t, [2]int{0, 1}, [2]int{a, b})
}

func TestLocateAfterEnd(t *testing.T) {
	for _, q := range []float64{20, 21, math.Inf(1)} {
		loc := Locate([]float64{0, 10, 20}, q)
		assert.Equal(t, PhaseAfter, loc.Phase)
		assert.Equal(t, 2, loc.Prev)
		assert.Equal(t, 2, loc.Next)
		assert.Equal(t, 1.0, loc.Fraction)
		a, b := loc.Segment(3)
		assert.Equal(t, [2]int{1, 2}, [2]int{a, b})
		assert.False(t, loc.Degenerate)
	}
}

func TestLocateRepeatedTimestamps(t *testing.T) {
	ts := []float64{0, 10, 10, 10, 30}
	loc := Locate(ts, 10)
	assert.Equal(t, 3, loc.Prev)
	assert.Equal(t, 4, loc.Next)
	assert.Equal(t, 0.0, loc.Fraction)

	loc = Locate([]float64{0, 10, 10}, 15)
	assert.Equal(t, PhaseAfter, loc.Phase)
	assert.True(t, loc.Degenerate)

	loc = Locate([]float64{0, 0, 5}, -1)
	assert.Equal(t, PhaseBefore, loc.Phase)
	assert.True(t, loc.Degenerate)
}

func TestLocateInvariants(t *testing.T) {
	ts := []float64{0, 0.5, 3, 3, 7, 12.25, 40}
	for q := -5.0; q <= 45; q += 0.125 {
		loc := Locate(ts, q)
		require.GreaterOrEqual(t, loc.Fraction, 0.0)
		require.LessOrEqual(t, loc.Fraction, 1.0)
		switch loc.Phase {
		case PhaseActive:
			require.Less(t, loc.Prev, loc.Next)
			require.LessOrEqual(t, ts[loc.Prev], q)
			require.Greater(t, ts[loc.Next], q)
		case PhaseBefore:
			require.Equal(t, 0, loc.Prev)
			require.Equal(t, 0, loc.Next)
		case PhaseAfter:
			require.Equal(t, len(ts)-1, loc.Prev)
			require.Equal(t, len(ts)-1, loc.Next)
		}
	}
}

func TestRebase(t *testing.T) {
	buf := make([]float64, 0, 1)
	out := Rebase(buf, []float64{100, 110, 125})
	assert.Equal(t, []float64{0, 10, 25}, out)

	out = Rebase(out, []float64{7, 8})
	assert.Equal(t, []float64{0, 1}, out)

	assert.Empty(t, Rebase(nil, nil))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "active", PhaseActive.String())
	assert.Equal(t, "before", PhaseBefore.String())
	assert.Equal(t, "after", PhaseAfter.String())
}
