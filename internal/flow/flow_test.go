package flow

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migration-renderer/internal/jitter"
)

func sampleTrajectories() []Trajectory {
	return []Trajectory{
		{
			ID:         "monarch",
			Path:       []Coord{{-99.9, 19.4}, {-97.5, 25.8}, {-95.3, 29.7}, {-90.1, 35.1}},
			Timestamps: []float64{1000, 1040, 1100, 1300},
			Amount:     25,
			Radius:     20000,
			Color:      Color{255, 140, 0, 255},
		},
		{
			ID:         "7",
			Path:       []Coord{{10, 50}, {11, 51}},
			Timestamps: []float64{0, 60},
			Amount:     3,
			Radius:     500,
			Color:      Color{128, 93, 253, 255},
		},
	}
}

func TestExpandCount(t *testing.T) {
	trs := sampleTrajectories()
	res := NewExpander(jitter.NewSeeded(1), jitter.Monotonic).Expand(trs)
	require.NoError(t, res.Err())
	require.Len(t, res.Instances, 28)

	for _, in := range res.Instances {
		var src Trajectory
		for _, tr := range trs {
			if tr.ID == in.TrajectoryID {
				src = tr
			}
		}
		n := len(src.Path)
		require.Len(t, in.Path, n)
		require.Len(t, in.Timestamps, n)
		assert.Equal(t, src.Timestamps[0], in.Timestamps[0])
		assert.Equal(t, src.Timestamps[n-1], in.Timestamps[n-1])
		assert.Equal(t, src.Color, in.Color)
		assert.Equal(t, src.Radius, in.Radius)
		assert.GreaterOrEqual(t, in.Random, float32(0))
		assert.Less(t, in.Random, float32(1))
		for _, c := range in.Path {
			assert.GreaterOrEqual(t, c.Lat(), -90.0)
			assert.LessOrEqual(t, c.Lat(), 90.0)
			assert.GreaterOrEqual(t, c.Lng(), -180.0)
			assert.Less(t, c.Lng(), 180.0)
		}
	}
}

func TestExpandDeterministic(t *testing.T) {
	a := NewExpander(jitter.NewSeeded(1234), jitter.Monotonic).Expand(sampleTrajectories())
	b := NewExpander(jitter.NewSeeded(1234), jitter.Monotonic).Expand(sampleTrajectories())
	require.Equal(t, a, b)

	ja, err := json.Marshal(a.Instances)
	require.NoError(t, err)
	jb, err := json.Marshal(b.Instances)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)

	c := NewExpander(jitter.NewSeeded(4321), jitter.Monotonic).Expand(sampleTrajectories())
	assert.NotEqual(t, a.Instances[0].Path, c.Instances[0].Path)
}

func TestExpandZeroRadiusScenario(t *testing.T) {
	tr := Trajectory{
		ID:         "1",
		Path:       []Coord{{0, 0}, {1, 1}, {2, 2}},
		Timestamps: []float64{0, 10, 20},
		Amount:     1,
		Radius:     0,
	}
	res := NewExpander(jitter.NewSeeded(5), jitter.Monotonic).Expand([]Trajectory{tr})
	require.Len(t, res.Instances, 1)
	in := res.Instances[0]
	assert.Equal(t, tr.Path, in.Path)
	assert.Equal(t, 0.0, in.Timestamps[0])
	assert.Equal(t, 20.0, in.Timestamps[2])
	assert.GreaterOrEqual(t, in.Timestamps[1], 0.0)
	assert.LessOrEqual(t, in.Timestamps[1], 20.0)
}

func TestExpandSkipsAndReports(t *testing.T) {
	trs := sampleTrajectories()
	trs = append(trs,
		Trajectory{ID: "short", Path: []Coord{{0, 0}, {1, 1}}, Timestamps: []float64{0}, Amount: 2},
		Trajectory{ID: "neg", Path: []Coord{{0, 0}, {1, 1}}, Timestamps: []float64{0, 1}, Amount: -1},
		Trajectory{ID: "radius", Path: []Coord{{0, 0}, {1, 1}}, Timestamps: []float64{0, 1}, Amount: 1, Radius: -5},
	)
	res := NewExpander(jitter.NewSeeded(1), jitter.Monotonic).Expand(trs)
	assert.Len(t, res.Instances, 28)
	assert.Equal(t, []ID{"short", "neg", "radius"}, res.RejectedIDs())

	err := res.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataShape))
	var dse *DataShapeError
	require.True(t, errors.As(err, &dse))
	assert.Equal(t, ID("short"), dse.ID)
}

func TestExpandRejectsOversizedAmount(t *testing.T) {
	trs := sampleTrajectories()
	trs = append(trs,
		Trajectory{ID: "flood", Path: []Coord{{0, 0}, {1, 1}}, Timestamps: []float64{0, 1}, Amount: math.MaxInt},
		Trajectory{ID: "flood2", Path: []Coord{{0, 0}, {1, 1}}, Timestamps: []float64{0, 1}, Amount: math.MaxInt},
	)
	var res *Result
	require.NotPanics(t, func() {
		res = NewExpander(jitter.NewSeeded(1), jitter.Monotonic).Expand(trs)
	})
	assert.Len(t, res.Instances, 28)
	assert.Equal(t, []ID{"flood", "flood2"}, res.RejectedIDs())
}

func TestExpandZeroAmount(t *testing.T) {
	tr := sampleTrajectories()[1]
	tr.Amount = 0
	res := NewExpander(jitter.NewSeeded(1), jitter.Monotonic).Expand([]Trajectory{tr})
	assert.Empty(t, res.Instances)
	assert.NoError(t, res.Err())
}

func TestValidate(t *testing.T) {
	base := Trajectory{ID: "x", Path: []Coord{{0, 0}, {1, 1}, {2, 2}}, Timestamps: []float64{0, 5, 5}, Amount: 1}
	require.NoError(t, Validate(&base))

	cases := map[string]func(tr *Trajectory){
		"length mismatch": func(tr *Trajectory) { tr.Timestamps = tr.Timestamps[:2] },
		"single waypoint": func(tr *Trajectory) {
			tr.Path = tr.Path[:1]
			tr.Timestamps = tr.Timestamps[:1]
		},
		"negative amount":  func(tr *Trajectory) { tr.Amount = -3 },
		"huge amount":      func(tr *Trajectory) { tr.Amount = MaxAmount + 1 },
		"negative radius":  func(tr *Trajectory) { tr.Radius = -1 },
		"unsorted":         func(tr *Trajectory) { tr.Timestamps = []float64{0, 6, 5} },
		"non-finite coord": func(tr *Trajectory) { tr.Path = []Coord{{0, 0}, {math.NaN(), 1}, {2, 2}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tr := base
			tr.Path = append([]Coord(nil), base.Path...)
			tr.Timestamps = append([]float64(nil), base.Timestamps...)
			mutate(&tr)
			err := Validate(&tr)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDataShape)
		})
	}
}

func TestTrajectoryJSON(t *testing.T) {
	raw := `[
		{"id": 3, "path": [[0,0],[1,1]], "timestamps": [0, 10], "amount": 4, "radius": 100, "color": [1,2,3]},
		{"id": "b", "path": [[0,0],[1,1]], "timestamps": [0, 10], "amount": 1, "radius": 0, "color": [1,2,3,4]}
	]`
	var trs []Trajectory
	require.NoError(t, json.Unmarshal([]byte(raw), &trs))
	require.Len(t, trs, 2)
	assert.Equal(t, ID("3"), trs[0].ID)
	assert.Equal(t, Color{1, 2, 3, 255}, trs[0].Color)
	assert.Equal(t, ID("b"), trs[1].ID)
	assert.Equal(t, Color{1, 2, 3, 4}, trs[1].Color)

	var c Color
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`[1,2,300]`), &c))
}

func TestUnitFloat32(t *testing.T) {
	assert.Less(t, unitFloat32(0.99999999999), float32(1))
	assert.Equal(t, float32(0.5), unitFloat32(0.5))
}
