package jitter

import "fmt"

// Policy selects how Timestamps treats its raw output.
type Policy int

const (
	// Monotonic runs a running-max pass so the output never decreases.
	Monotonic Policy = iota
	// Drift keeps the raw jittered values.
	Drift
)

func (p Policy) String() string {
	switch p {
	case Monotonic:
		return "monotonic"
	case Drift:
		return "drift"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "monotonic":
		return Monotonic, nil
	case "drift":
		return Drift, nil
	}
	return 0, fmt.Errorf("unknown timestamp policy %q", s)
}

// Timestamps jitters the interior values of a sorted timestamp sequence.
// The first and last values are copied exactly. Each interior value draws
// r in [-1, 1): a negative r pulls it toward the already jittered previous
// value, a non-negative r pushes it toward the original next value.
//
// For sorted input each value stays within [out[i-1], ts[i+1]], so the raw
// output is already non-decreasing; the Monotonic pass only absorbs float
// rounding at the bounds.
func Timestamps(rng RNG, ts []float64, policy Policy) []float64 {
	out := make([]float64, len(ts))
	copy(out, ts)
	n := len(ts)
	for i := 1; i < n-1; i++ {
		r := rng.Float64()*2 - 1
		if r < 0 {
			out[i] = ts[i] + r*(ts[i]-out[i-1])
		} else {
			out[i] = ts[i] + r*(ts[i+1]-ts[i])
		}
	}
	if policy == Monotonic {
		for i := 1; i < n-1; i++ {
			out[i] = min(max(out[i], out[i-1]), ts[n-1])
		}
	}
	return out
}
