package attrib

import (
	"fmt"
)

// ElementType is the scalar type of an attribute column.
type ElementType uint8

const (
	Float64 ElementType = iota
	Float32
	Uint8
)

func (t ElementType) String() string {
	switch t {
	case Float64:
		return "f64"
	case Float32:
		return "f32"
	case Uint8:
		return "u8"
	}
	return fmt.Sprintf("ElementType(%d)", int(t))
}

// Descriptor binds one attribute of the render contract to its column in a
// source S (a *Frame or a *PathFrame).
type Descriptor[S any] struct {
	Name   string // contract name, e.g. "nextPosition"
	Shader string // GPU-side attribute name
	Size   int    // elements per instance (or per vertex)
	Type   ElementType
	Slot   int
	Static bool // unchanged between recomputations
	// PerVertex columns advance once per path vertex instead of once per
	// instance.
	PerVertex bool
	Source    func(S) any
}

// Table is the fixed attribute layout, built once at initialization.
type Table[S any] struct {
	descs  []Descriptor[S]
	byName map[string]int
}

// NewTable checks that names and binding slots are unique.
func NewTable[S any](descs ...Descriptor[S]) (*Table[S], error) {
	t := &Table[S]{descs: descs, byName: make(map[string]int, len(descs))}
	slots := make(map[int]string, len(descs))
	for i, d := range descs {
		if d.Size <= 0 {
			return nil, fmt.Errorf("attribute %q: size must be positive", d.Name)
		}
		if d.Source == nil {
			return nil, fmt.Errorf("attribute %q: missing source", d.Name)
		}
		if _, dup := t.byName[d.Name]; dup {
			return nil, fmt.Errorf("attribute %q declared twice", d.Name)
		}
		if other, dup := slots[d.Slot]; dup {
			return nil, fmt.Errorf("attributes %q and %q share slot %d", other, d.Name, d.Slot)
		}
		t.byName[d.Name] = i
		slots[d.Slot] = d.Name
	}
	return t, nil
}

// Descriptors returns the table in slot declaration order.
func (t *Table[S]) Descriptors() []Descriptor[S] { return t.descs }

// Columns returns every column of src keyed by contract name.
func (t *Table[S]) Columns(src S) map[string]any {
	out := make(map[string]any, len(t.descs))
	for _, d := range t.descs {
		out[d.Name] = d.Source(src)
	}
	return out
}

// Check verifies that each column of src holds Size elements of the declared
// type per instance, or per vertex for PerVertex columns.
func (t *Table[S]) Check(src S, instances, vertices int) error {
	for _, d := range t.descs {
		count := instances
		if d.PerVertex {
			count = vertices
		}
		col := d.Source(src)
		n, typ, ok := columnInfo(col)
		if !ok {
			return fmt.Errorf("attribute %q: unsupported column type %T", d.Name, col)
		}
		if typ != d.Type {
			return fmt.Errorf("attribute %q: column is %s, declared %s", d.Name, typ, d.Type)
		}
		if n != count*d.Size {
			return fmt.Errorf("attribute %q: %d elements, want %d", d.Name, n, count*d.Size)
		}
	}
	return nil
}

func columnInfo(col any) (int, ElementType, bool) {
	switch c := col.(type) {
	case []float64:
		return len(c), Float64, true
	case []float32:
		return len(c), Float32, true
	case []uint8:
		return len(c), Uint8, true
	}
	return 0, 0, false
}

// InstanceTable is the attribute layout of the scatter variant.
func InstanceTable() *Table[*Frame] {
	t, err := NewTable(
		Descriptor[*Frame]{Name: "position", Shader: "instancePositions", Size: 2, Type: Float64, Slot: 0,
			Source: func(f *Frame) any { return f.Positions }},
		Descriptor[*Frame]{Name: "nextPosition", Shader: "instanceNextPositions", Size: 2, Type: Float64, Slot: 1,
			Source: func(f *Frame) any { return f.NextPositions }},
		Descriptor[*Frame]{Name: "timestamp", Shader: "instanceTimestamp", Size: 1, Type: Float64, Slot: 2,
			Source: func(f *Frame) any { return f.Timestamps }},
		Descriptor[*Frame]{Name: "nextTimestamp", Shader: "instanceNextTimestamp", Size: 1, Type: Float64, Slot: 3,
			Source: func(f *Frame) any { return f.NextTimestamps }},
		Descriptor[*Frame]{Name: "random", Shader: "instanceRandom", Size: 1, Type: Float32, Slot: 4, Static: true,
			Source: func(f *Frame) any { return f.Randoms }},
		Descriptor[*Frame]{Name: "fillColor", Shader: "instanceFillColors", Size: 4, Type: Uint8, Slot: 5, Static: true,
			Source: func(f *Frame) any { return f.FillColors }},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// PathTable is the attribute layout of the trail variant. Positions and
// timestamps are per vertex; random and color are per path.
func PathTable() *Table[*PathFrame] {
	t, err := NewTable(
		Descriptor[*PathFrame]{Name: "path", Shader: "positions", Size: 2, Type: Float64, Slot: 0, Static: true, PerVertex: true,
			Source: func(p *PathFrame) any { return p.Positions }},
		Descriptor[*PathFrame]{Name: "timestamps", Shader: "instanceTimestamps", Size: 1, Type: Float64, Slot: 1, Static: true, PerVertex: true,
			Source: func(p *PathFrame) any { return p.Timestamps }},
		Descriptor[*PathFrame]{Name: "random", Shader: "instanceRandoms", Size: 1, Type: Float32, Slot: 2, Static: true,
			Source: func(p *PathFrame) any { return p.Randoms }},
		Descriptor[*PathFrame]{Name: "color", Shader: "instanceColors", Size: 4, Type: Uint8, Slot: 3, Static: true,
			Source: func(p *PathFrame) any { return p.FillColors }},
	)
	if err != nil {
		panic(err)
	}
	return t
}
