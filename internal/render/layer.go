package render

import (
	"fmt"

	"migration-renderer/internal/attrib"
	"migration-renderer/internal/flow"
	"migration-renderer/internal/timeindex"
)

// AttributeInfo is the backend-facing summary of one attribute binding.
type AttributeInfo struct {
	Name      string `json:"name"`
	Shader    string `json:"shader"`
	Size      int    `json:"size"`
	Type      string `json:"type"`
	Slot      int    `json:"slot"`
	Static    bool   `json:"static"`
	PerVertex bool   `json:"perVertex,omitempty"`
}

// Layer is a renderable set of instances. A backend binds the declared
// attributes, feeds it the uniforms each frame and splices the shader
// extensions into its own program.
type Layer interface {
	Name() string
	DeclareAttributes() []AttributeInfo
	BuildUniforms(s State) Uniforms
	ShaderExtensions() ShaderProgram

	// Prepare brings the attribute columns up to date for queryTime and
	// reports whether they changed.
	Prepare(queryTime float64) (generation uint64, changed bool)
	// Columns returns the current attribute columns keyed by name.
	Columns() map[string]any
	// Count is the number of instances drawn.
	Count() int
}

// Props are the user-tunable layer settings.
type Props struct {
	TrailLength float64
	Duration    float64
	FadeTrail   bool
	Opacity     float64
	// BaseSize is the vertex size before the per-instance random scale.
	BaseSize float64
}

// DefaultProps mirrors DefaultUniforms.
func DefaultProps() Props {
	return Props{
		TrailLength: DefaultTrailLength,
		Duration:    DefaultDuration,
		FadeTrail:   true,
		Opacity:     DefaultOpacity,
		BaseSize:    2,
	}
}

func (p Props) uniforms(s State) Uniforms {
	return Uniforms{
		CurrentTime:   s.QueryTime,
		TrailLength:   p.TrailLength,
		Duration:      p.Duration,
		FadeTrail:     p.FadeTrail,
		WallClockTime: s.WallClockTime,
		Opacity:       p.Opacity,
	}
}

func describe[S any](t *attrib.Table[S]) []AttributeInfo {
	descs := t.Descriptors()
	out := make([]AttributeInfo, len(descs))
	for i, d := range descs {
		out[i] = AttributeInfo{
			Name:      d.Name,
			Shader:    d.Shader,
			Size:      d.Size,
			Type:      d.Type.String(),
			Slot:      d.Slot,
			Static:    d.Static,
			PerVertex: d.PerVertex,
		}
	}
	return out
}

// MigrationLayer draws every instance as a point moving between its
// bracketing waypoints.
type MigrationLayer struct {
	props   Props
	buf     *attrib.Buffer
	table   *attrib.Table[*attrib.Frame]
	program ShaderProgram
}

var _ Layer = (*MigrationLayer)(nil)

// NewMigrationLayer panics if buf's frames do not match the instance
// attribute layout.
func NewMigrationLayer(buf *attrib.Buffer, props Props) *MigrationLayer {
	table := attrib.InstanceTable()
	if err := buf.CheckLayout(table); err != nil {
		panic(fmt.Sprintf("migration layer: %v", err))
	}
	return &MigrationLayer{
		props:   props,
		buf:     buf,
		table:   table,
		program: ScatterProgram(),
	}
}

func (l *MigrationLayer) Name() string                       { return "migration" }
func (l *MigrationLayer) DeclareAttributes() []AttributeInfo { return describe(l.table) }
func (l *MigrationLayer) BuildUniforms(s State) Uniforms     { return l.props.uniforms(s) }
func (l *MigrationLayer) ShaderExtensions() ShaderProgram    { return l.program }
func (l *MigrationLayer) Count() int                         { return l.buf.Len() }

func (l *MigrationLayer) Prepare(queryTime float64) (uint64, bool) {
	f, changed := l.buf.Update(queryTime)
	return f.Generation, changed
}

func (l *MigrationLayer) Columns() map[string]any {
	f := l.buf.Current()
	if f == nil {
		return nil
	}
	return l.table.Columns(f)
}

// Sample runs instance i of the current frame through the vertex stage and
// returns the resulting vertex. It is the CPU reference for what a backend
// must produce.
func (l *MigrationLayer) Sample(i int, u Uniforms) (Vertex, error) {
	f := l.buf.Current()
	if f == nil {
		return Vertex{}, fmt.Errorf("no frame computed yet")
	}
	if i < 0 || i >= f.Len() {
		return Vertex{}, fmt.Errorf("instance %d out of range [0,%d)", i, f.Len())
	}
	x, y := f.Position(i)
	nx, ny := f.NextPosition(i)
	v := Vertex{
		Position:      [3]float64{x, y, 0},
		NextPosition:  [3]float64{nx, ny, 0},
		Timestamp:     f.Timestamps[i],
		NextTimestamp: f.NextTimestamps[i],
		Random:        f.Randoms[i],
		Size:          l.props.BaseSize,
	}
	l.program.RunVertex(&v, u)
	return v, nil
}

// Phase returns where instance i currently sits on its timeline.
func (l *MigrationLayer) Phase(i int) timeindex.Phase {
	f := l.buf.Current()
	if f == nil {
		return timeindex.PhaseBefore
	}
	return f.Phases[i]
}

// Degenerate is the number of instances of the current frame sitting on a
// zero-length time segment.
func (l *MigrationLayer) Degenerate() int {
	if f := l.buf.Current(); f != nil {
		return f.Degenerate
	}
	return 0
}

// TrailLayer draws every instance's whole jittered path and lets the
// fragment stage cut out the part inside the trail window.
type TrailLayer struct {
	props   Props
	paths   *attrib.PathFrame
	table   *attrib.Table[*attrib.PathFrame]
	program ShaderProgram
}

var _ Layer = (*TrailLayer)(nil)

func NewTrailLayer(instances []flow.Instance, props Props) *TrailLayer {
	paths := attrib.BuildPathFrame(instances)
	table := attrib.PathTable()
	if err := table.Check(paths, paths.Paths(), paths.Vertices()); err != nil {
		panic(fmt.Sprintf("trail layer: %v", err))
	}
	return &TrailLayer{
		props:   props,
		paths:   paths,
		table:   table,
		program: TrailProgram(),
	}
}

func (l *TrailLayer) Name() string                       { return "trail" }
func (l *TrailLayer) DeclareAttributes() []AttributeInfo { return describe(l.table) }
func (l *TrailLayer) BuildUniforms(s State) Uniforms     { return l.props.uniforms(s) }
func (l *TrailLayer) ShaderExtensions() ShaderProgram    { return l.program }
func (l *TrailLayer) Count() int                         { return l.paths.Paths() }

// Prepare never changes the columns: the path geometry is static and the
// time window lives entirely in the uniforms.
func (l *TrailLayer) Prepare(float64) (uint64, bool) { return 1, false }

func (l *TrailLayer) Columns() map[string]any { return l.table.Columns(l.paths) }

// Shade evaluates the full pipeline for the point pct (0..1) of the way
// along segment seg of path i and returns the displaced vertex and the
// fragment alpha; keep is false when the fragment is discarded.
func (l *TrailLayer) Shade(i, seg int, pct float64, u Uniforms) (v Vertex, alpha float64, keep bool, err error) {
	if i < 0 || i >= l.paths.Paths() {
		return Vertex{}, 0, false, fmt.Errorf("path %d out of range [0,%d)", i, l.paths.Paths())
	}
	lo, hi := l.paths.Segment(i)
	a := lo + seg
	if seg < 0 || a+1 >= hi {
		return Vertex{}, 0, false, fmt.Errorf("segment %d out of range for path %d", seg, i)
	}
	pos := l.paths.Positions
	ts := l.paths.Timestamps
	v = Vertex{
		Position:       [3]float64{pos[2*a], pos[2*a+1], 0},
		NextPosition:   [3]float64{pos[2*a+2], pos[2*a+3], 0},
		Timestamp:      ts[a],
		NextTimestamp:  ts[a+1],
		Random:         l.paths.Randoms[i],
		Size:           l.props.BaseSize,
		PathPercentage: pct,
	}
	l.program.RunVertex(&v, u)

	c := l.paths.FillColors[4*i : 4*i+4]
	f := Fragment{
		VTime: v.VTime,
		Color: [4]float64{float64(c[0]) / 255, float64(c[1]) / 255, float64(c[2]) / 255, float64(c[3]) / 255},
	}
	if !l.program.RunFragment(&f, u) {
		return v, 0, false, nil
	}
	return v, f.Color[3], true, nil
}
