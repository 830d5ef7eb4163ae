package attrib

import (
	"migration-renderer/internal/flow"
	"migration-renderer/internal/timeindex"
)

// PathFrame is the static geometry for the trail variant: every jittered
// path flattened into one vertex list, with per-vertex rebased timestamps.
// It does not depend on the query time and is built once per dataset.
type PathFrame struct {
	// StartIndices[i] is the first vertex of instance i; instance i spans
	// [StartIndices[i], StartIndices[i+1]).
	StartIndices []int
	Positions    []float64 // 2 per vertex
	Timestamps   []float64 // rebased per instance
	Randoms      []float32 // per instance
	FillColors   []uint8   // 4 per instance
}

// Vertices returns the total vertex count.
func (p *PathFrame) Vertices() int { return len(p.Timestamps) }

// Paths returns the number of instances.
func (p *PathFrame) Paths() int { return len(p.Randoms) }

// Segment returns the vertex range of instance i.
func (p *PathFrame) Segment(i int) (int, int) {
	return p.StartIndices[i], p.StartIndices[i+1]
}

// BuildPathFrame flattens the instance paths.
func BuildPathFrame(instances []flow.Instance) *PathFrame {
	total := 0
	for i := range instances {
		total += len(instances[i].Path)
	}
	p := &PathFrame{
		StartIndices: make([]int, 0, len(instances)+1),
		Positions:    make([]float64, 0, 2*total),
		Timestamps:   make([]float64, 0, total),
		Randoms:      make([]float32, 0, len(instances)),
		FillColors:   make([]uint8, 0, 4*len(instances)),
	}
	for i := range instances {
		in := &instances[i]
		p.StartIndices = append(p.StartIndices, len(p.Timestamps))
		for _, c := range in.Path {
			p.Positions = append(p.Positions, c[0], c[1])
		}
		p.Timestamps = append(p.Timestamps, timeindex.Rebase(nil, in.Timestamps)...)
		p.Randoms = append(p.Randoms, in.Random)
		p.FillColors = append(p.FillColors, in.Color[:]...)
	}
	p.StartIndices = append(p.StartIndices, len(p.Timestamps))
	return p
}
