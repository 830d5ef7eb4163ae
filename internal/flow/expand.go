package flow

import (
	"errors"
	"log"
	"math"

	"migration-renderer/internal/jitter"
)

// Expander turns canonical trajectories into jittered instances.
type Expander struct {
	rng    jitter.RNG
	policy jitter.Policy
}

func NewExpander(rng jitter.RNG, policy jitter.Policy) *Expander {
	return &Expander{rng: rng, policy: policy}
}

// Result is the outcome of one expansion. Instances is read-only once
// returned; it is shared by every frame of the session.
type Result struct {
	Instances []Instance
	Rejected  []*DataShapeError
}

// RejectedIDs lists the ids of trajectories that failed validation.
func (r *Result) RejectedIDs() []ID {
	ids := make([]ID, len(r.Rejected))
	for i, e := range r.Rejected {
		ids[i] = e.ID
	}
	return ids
}

// Err joins every rejection, or returns nil when all trajectories were valid.
func (r *Result) Err() error {
	if len(r.Rejected) == 0 {
		return nil
	}
	errs := make([]error, len(r.Rejected))
	for i, e := range r.Rejected {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Expand builds Amount instances per valid trajectory, in input order.
// Malformed trajectories are skipped and reported in Result.Rejected.
//
// Per instance the RNG is consumed in a fixed order: two draws per waypoint
// (radius, angle), one per interior timestamp, then one for the instance
// seed. The same seed and input therefore always produce the same output.
func (e *Expander) Expand(trajectories []Trajectory) *Result {
	res := &Result{}
	total := 0
	for i := range trajectories {
		if err := Validate(&trajectories[i]); err == nil {
			total += trajectories[i].Amount
		}
	}
	res.Instances = make([]Instance, 0, total)

	for i := range trajectories {
		t := &trajectories[i]
		if err := Validate(t); err != nil {
			var dse *DataShapeError
			if errors.As(err, &dse) {
				res.Rejected = append(res.Rejected, dse)
			}
			log.Printf("rejecting trajectory %q: %v", t.ID, err)
			continue
		}
		for k := 0; k < t.Amount; k++ {
			res.Instances = append(res.Instances, e.instance(t, k))
		}
	}
	if len(res.Rejected) > 0 {
		log.Printf("expanded %d instances from %d trajectories, %d rejected", len(res.Instances), len(trajectories)-len(res.Rejected), len(res.Rejected))
	}
	return res
}

func (e *Expander) instance(t *Trajectory, k int) Instance {
	path := make([]Coord, len(t.Path))
	for j, c := range t.Path {
		lng, lat := jitter.Coordinate(e.rng, c[0], c[1], t.Radius)
		path[j] = Coord{lng, lat}
	}
	return Instance{
		TrajectoryID: t.ID,
		Index:        k,
		Path:         path,
		Timestamps:   jitter.Timestamps(e.rng, t.Timestamps, e.policy),
		Color:        t.Color,
		Radius:       t.Radius,
		Random:       unitFloat32(e.rng.Float64()),
	}
}

// unitFloat32 narrows v in [0,1) to float32 without rounding up to 1.
func unitFloat32(v float64) float32 {
	f := float32(v)
	if f >= 1 {
		return math.Nextafter32(1, 0)
	}
	return f
}
