package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a trajectory. Datasets use either strings or integers,
// both decode into the string form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("trajectory id must be a string or a number: %s", b)
	}
	*id = ID(n.String())
	return nil
}

// IDFromInt formats an integer id.
func IDFromInt(n int64) ID { return ID(strconv.FormatInt(n, 10)) }

// Coord is a (lng, lat) pair in degrees.
type Coord [2]float64

func (c Coord) Lng() float64 { return c[0] }
func (c Coord) Lat() float64 { return c[1] }

// Color is RGBA. Inputs may omit alpha.
type Color [4]uint8

// UnmarshalJSON accepts [r,g,b] or [r,g,b,a].
func (c *Color) UnmarshalJSON(b []byte) error {
	var vals []float64
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	col, err := ColorFromFloats(vals)
	if err != nil {
		return err
	}
	*c = col
	return nil
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([]int{int(c[0]), int(c[1]), int(c[2]), int(c[3])})
}

// ColorFromFloats builds a Color from 3 or 4 channel values in [0,255].
func ColorFromFloats(vals []float64) (Color, error) {
	if len(vals) != 3 && len(vals) != 4 {
		return Color{}, fmt.Errorf("color needs 3 or 4 channels, got %d", len(vals))
	}
	col := Color{0, 0, 0, 255}
	for i, v := range vals {
		if v < 0 || v > 255 || v != v {
			return Color{}, fmt.Errorf("color channel %d out of range: %v", i, v)
		}
		col[i] = uint8(v)
	}
	return col, nil
}

// Trajectory is one canonical flow as supplied by the dataset.
type Trajectory struct {
	ID         ID        `json:"id"`
	Path       []Coord   `json:"path"`
	Timestamps []float64 `json:"timestamps"`
	Amount     int       `json:"amount"`
	Radius     float64   `json:"radius"` // meters
	Color      Color     `json:"color"`
}

// Instance is one jittered individual expanded from a Trajectory.
// Instances are never mutated after expansion.
type Instance struct {
	TrajectoryID ID
	Index        int // position within the trajectory's Amount
	Path         []Coord
	Timestamps   []float64
	Color        Color
	Radius       float64
	Random       float32 // stable per-instance seed in [0,1)
}
