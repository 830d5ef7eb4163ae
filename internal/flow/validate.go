package flow

import (
	"errors"
	"fmt"
	"math"
)

// MaxAmount bounds the instances expanded from a single trajectory.
const MaxAmount = 1 << 20

// ErrDataShape matches every DataShapeError via errors.Is.
var ErrDataShape = errors.New("malformed trajectory")

// DataShapeError rejects a single trajectory at expansion time. The rest of
// the dataset is still expanded.
type DataShapeError struct {
	ID     ID
	Reason string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("trajectory %q: %s", e.ID, e.Reason)
}

func (e *DataShapeError) Is(target error) bool { return target == ErrDataShape }

func shapeErr(id ID, format string, args ...any) *DataShapeError {
	return &DataShapeError{ID: id, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the structural invariants a trajectory must satisfy before
// it can be expanded.
func Validate(t *Trajectory) error {
	if len(t.Path) != len(t.Timestamps) {
		return shapeErr(t.ID, "path has %d waypoints but timestamps has %d", len(t.Path), len(t.Timestamps))
	}
	if len(t.Path) < 2 {
		return shapeErr(t.ID, "need at least 2 waypoints, got %d", len(t.Path))
	}
	if t.Amount < 0 {
		return shapeErr(t.ID, "negative amount %d", t.Amount)
	}
	if t.Amount > MaxAmount {
		return shapeErr(t.ID, "amount %d exceeds %d", t.Amount, MaxAmount)
	}
	if t.Radius < 0 || math.IsNaN(t.Radius) || math.IsInf(t.Radius, 0) {
		return shapeErr(t.ID, "invalid radius %v", t.Radius)
	}
	for i, c := range t.Path {
		if !finite(c[0]) || !finite(c[1]) {
			return shapeErr(t.ID, "waypoint %d is not finite", i)
		}
	}
	for i, ts := range t.Timestamps {
		if !finite(ts) {
			return shapeErr(t.ID, "timestamp %d is not finite", i)
		}
		if i > 0 && ts < t.Timestamps[i-1] {
			return shapeErr(t.ID, "timestamps decrease at index %d (%v < %v)", i, ts, t.Timestamps[i-1])
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
