package render

import "math"

// Displacement constants: per-axis oscillation frequency and amplitude.
const (
	displaceFreqX = 2.0
	displaceFreqY = 1.0
	displaceAmpX  = 0.1
	displaceAmpY  = 0.2
)

// Displace returns the cosmetic (dx, dy) offset for a vertex at position.
// A single noise sample at the position is modulated per axis by
// sin(wallClock * k * seed / 1000) * 0.5 + 0.5, so each instance breathes at
// its own rate. wallClockMs is milliseconds; the result depends only on the
// three inputs.
func Displace(position [3]float64, seed float32, wallClockMs float64) (float64, float64) {
	n := Simplex3(position[0], position[1], position[2])
	r := float64(seed)
	dx := n * (math.Sin(wallClockMs*displaceFreqX*r/1000.0)*0.5 + 0.5) * displaceAmpX
	dy := n * (math.Sin(wallClockMs*displaceFreqY*r/1000.0)*0.5 + 0.5) * displaceAmpY
	return dx, dy
}
