package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migration-renderer/internal/flow"
)

func TestAssembleGroupsByHeader(t *testing.T) {
	headers := []Header{
		{ID: "1", Amount: 2, RadiusM: 100, R: 255, G: 0, B: 0, A: 255},
		{ID: "2", Amount: 1, RadiusM: 0, R: 0, G: 0, B: 255, A: 128},
		{ID: "3", Amount: 1},
	}
	wps := []Waypoint{
		{TrajectoryID: "1", Seq: 0, Lng: 0, Lat: 0, Ts: 0},
		{TrajectoryID: "1", Seq: 1, Lng: 1, Lat: 1, Ts: 10},
		{TrajectoryID: "2", Seq: 3, Lng: 5, Lat: 5, Ts: 100},
		{TrajectoryID: "2", Seq: 7, Lng: 6, Lat: 6, Ts: 150},
	}
	trs, rejected := Assemble(headers, wps)
	assert.Empty(t, rejected)
	require.Len(t, trs, 3)

	assert.Equal(t, flow.Trajectory{
		ID:         "1",
		Path:       []flow.Coord{{0, 0}, {1, 1}},
		Timestamps: []float64{0, 10},
		Amount:     2,
		Radius:     100,
		Color:      flow.Color{255, 0, 0, 255},
	}, trs[0])
	assert.Equal(t, []float64{100, 150}, trs[1].Timestamps)
	assert.Equal(t, flow.Color{0, 0, 255, 128}, trs[1].Color)

	// No waypoints: kept so expansion reports it.
	assert.Empty(t, trs[2].Path)
	assert.Error(t, flow.Validate(&trs[2]))
}

func TestAssembleRejectsBadRowsOnly(t *testing.T) {
	headers := []Header{
		{ID: "good", Amount: 1, R: 10, G: 20, B: 30, A: 255},
		{ID: "bad", Amount: 1, R: 300, G: 0, B: 0, A: 255},
		{ID: "shuffled", Amount: 1, R: 1, G: 1, B: 1, A: 255},
	}
	wps := []Waypoint{
		{TrajectoryID: "bad", Seq: 0, Ts: 0},
		{TrajectoryID: "bad", Seq: 1, Ts: 1},
		{TrajectoryID: "ghost", Seq: 0, Ts: 0},
		{TrajectoryID: "good", Seq: 0, Lng: 1, Lat: 2, Ts: 0},
		{TrajectoryID: "good", Seq: 1, Lng: 3, Lat: 4, Ts: 5},
		{TrajectoryID: "shuffled", Seq: 2, Ts: 0},
		{TrajectoryID: "shuffled", Seq: 2, Ts: 1},
	}
	trs, rejected := Assemble(headers, wps)

	require.Len(t, trs, 1)
	assert.Equal(t, flow.ID("good"), trs[0].ID)
	assert.Equal(t, []flow.Coord{{1, 2}, {3, 4}}, trs[0].Path)

	require.Len(t, rejected, 2)
	assert.Equal(t, flow.ID("bad"), rejected[0].ID)
	assert.Contains(t, rejected[0].Reason, "out of range: 300")
	assert.Equal(t, flow.ID("shuffled"), rejected[1].ID)
	assert.ErrorIs(t, rejected[1], flow.ErrDataShape)
}
