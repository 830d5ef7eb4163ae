package jitter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateZeroRadiusKeepsPoint(t *testing.T) {
	rng := NewSeeded(7)
	for _, c := range [][2]float64{{0, 0}, {1, 1}, {-73.98, 40.75}, {179.5, -89.9}} {
		lng, lat := Coordinate(rng, c[0], c[1], 0)
		assert.Equal(t, c[0], lng)
		assert.Equal(t, c[1], lat)
	}
}

func TestCoordinateDrawsTwoValues(t *testing.T) {
	rng := &Fixed{Values: []float64{0.5, 0.25}}
	Coordinate(rng, 10, 10, 1000)
	assert.Equal(t, 2, rng.Draws())
	Coordinate(rng, 10, 10, 0)
	assert.Equal(t, 4, rng.Draws())
}

func TestCoordinateDisplacementDirection(t *testing.T) {
	// r = radius, theta = pi/2: pure northward move.
	rng := &Fixed{Values: []float64{0.9999999, 0.25}}
	radius := 1000.0
	lng, lat := Coordinate(rng, 0, 0, radius)

	wantLat := (radius * 0.9999999 / EarthRadiusMeters) * 180 / math.Pi
	assert.InDelta(t, 0, lng, 1e-12)
	assert.InDelta(t, wantLat, lat, 1e-12)
}

func TestCoordinateStaysInRange(t *testing.T) {
	rng := NewSeeded(42)
	points := [][2]float64{{179.9999, 89.9999}, {-180, -90}, {-179.9999, 0}, {0, 90}, {120, -45}}
	for i := 0; i < 5000; i++ {
		p := points[i%len(points)]
		lng, lat := Coordinate(rng, p[0], p[1], 500000)
		require.GreaterOrEqual(t, lat, -90.0)
		require.LessOrEqual(t, lat, 90.0)
		require.GreaterOrEqual(t, lng, -180.0)
		require.Less(t, lng, 180.0)
	}
}

func TestNormalize(t *testing.T) {
	lng, lat := Normalize(180, 95)
	assert.Equal(t, -180.0, lng)
	assert.Equal(t, 90.0, lat)

	lng, lat = Normalize(-190, -100)
	assert.InDelta(t, 170, lng, 1e-9)
	assert.Equal(t, -90.0, lat)

	lng, lat = Normalize(540, 0)
	assert.Equal(t, -180.0, lng)
	assert.Equal(t, 0.0, lat)
}

func TestTimestampsEndpointsPreserved(t *testing.T) {
	rng := NewSeeded(3)
	in := []float64{100, 150, 151, 300, 420.5}
	for i := 0; i < 200; i++ {
		out := Timestamps(rng, in, Monotonic)
		require.Len(t, out, len(in))
		assert.Equal(t, in[0], out[0])
		assert.Equal(t, in[len(in)-1], out[len(out)-1])
	}
}

func TestTimestampsDoesNotMutateInput(t *testing.T) {
	in := []float64{0, 10, 20}
	Timestamps(NewSeeded(1), in, Drift)
	assert.Equal(t, []float64{0, 10, 20}, in)
}

func TestTimestampsBounds(t *testing.T) {
	// r = 2*0.25-1 = -0.5 pulls halfway back to the previous value,
	// r = 2*0.75-1 = 0.5 pushes halfway forward to the next original value.
	rng := &Fixed{Values: []float64{0.25, 0.75}}
	out := Timestamps(rng, []float64{0, 10, 20, 30}, Drift)
	assert.Equal(t, []float64{0, 5, 25, 30}, out)
	assert.Equal(t, 2, rng.Draws())
}

func TestTimestampsPullUsesJitteredPrevious(t *testing.T) {
	// First interior pushed to 19, second pulled fully back onto it.
	rng := &Fixed{Values: []float64{0.95, 0}}
	out := Timestamps(rng, []float64{0, 10, 20, 30}, Drift)
	assert.InDelta(t, 19, out[1], 1e-9)
	assert.InDelta(t, 19, out[2], 1e-9)
}

func TestTimestampsTwoPointsNoDraws(t *testing.T) {
	rng := &Fixed{Values: []float64{0.3}}
	out := Timestamps(rng, []float64{5, 9}, Monotonic)
	assert.Equal(t, []float64{5, 9}, out)
	assert.Zero(t, rng.Draws())
}

// Sorted input yields non-decreasing output under both policies; the
// monotonic pass is kept for rounding at the bounds.
func TestTimestampsNonDecreasing(t *testing.T) {
	for _, policy := range []Policy{Monotonic, Drift} {
		rng := NewSeeded(99)
		in := []float64{0, 0, 1, 1, 2, 50, 50.5, 1000}
		for i := 0; i < 1000; i++ {
			out := Timestamps(rng, in, policy)
			for j := 1; j < len(out); j++ {
				require.GreaterOrEqual(t, out[j], out[j-1], "policy %s index %d: %v", policy, j, out)
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Monotonic, p)

	p, err = ParsePolicy("drift")
	require.NoError(t, err)
	assert.Equal(t, Drift, p)
	assert.Equal(t, "drift", p.String())

	_, err = ParsePolicy("sorted")
	assert.Error(t, err)
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(11), NewSeeded(11)
	for i := 0; i < 100; i++ {
		v := a.Float64()
		require.Equal(t, v, b.Float64())
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}
