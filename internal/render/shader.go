package render

// Vertex carries one vertex through the vertex stage. Inputs are the
// attributes of its instance; Position and Size are updated in place.
type Vertex struct {
	Position      [3]float64
	NextPosition  [3]float64
	Timestamp     float64
	NextTimestamp float64
	Random        float32
	Size          float64

	// Trail variant only: how far along its segment the vertex sits.
	PathPercentage float64
	// VTime is the interpolated path time handed to the fragment stage.
	VTime float64
}

// Fragment carries one fragment through the fragment stage.
type Fragment struct {
	VTime float64
	Color [4]float64 // RGBA in [0,1]
}

// ShaderProgram is the set of named extension points a backend composes
// into its own vertex and fragment stages. Nil hooks are skipped.
type ShaderProgram struct {
	Name string

	VertexPrologue func(v *Vertex, u Uniforms)
	VertexEpilogue func(v *Vertex, u Uniforms)
	// FragmentPrologue returns false to discard the fragment.
	FragmentPrologue func(f *Fragment, u Uniforms) bool
	ColorFilter      func(f *Fragment, u Uniforms)
}

// RunVertex applies the vertex hooks in order.
func (p ShaderProgram) RunVertex(v *Vertex, u Uniforms) {
	if p.VertexPrologue != nil {
		p.VertexPrologue(v, u)
	}
	if p.VertexEpilogue != nil {
		p.VertexEpilogue(v, u)
	}
}

// RunFragment applies the fragment hooks and reports whether the fragment
// is kept.
func (p ShaderProgram) RunFragment(f *Fragment, u Uniforms) bool {
	if p.FragmentPrologue != nil && !p.FragmentPrologue(f, u) {
		return false
	}
	if p.ColorFilter != nil {
		p.ColorFilter(f, u)
	}
	return true
}

// MixFraction is the vertex-stage interpolation factor between an
// instance's two waypoints. A zero-length time segment yields 0.
func MixFraction(currentTime, ts, nextTs float64) float64 {
	span := nextTs - ts
	if span == 0 {
		return 0
	}
	return (currentTime - ts) / span
}

func mix3(a, b [3]float64, t float64) [3]float64 {
	return [3]float64{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

func scaleSize(v *Vertex, _ Uniforms) { v.Size *= float64(v.Random) }

func displaceVertex(v *Vertex, u Uniforms) {
	dx, dy := Displace(v.Position, v.Random, u.WallClockTime)
	v.Position[0] += dx
	v.Position[1] += dy
}

func applyOpacity(f *Fragment, u Uniforms) { f.Color[3] *= u.Opacity }

// ScatterProgram moves each instance point between its two waypoints by
// the current time, then adds the procedural displacement.
func ScatterProgram() ShaderProgram {
	return ShaderProgram{
		Name:           "migration-scatter",
		VertexPrologue: scaleSize,
		VertexEpilogue: func(v *Vertex, u Uniforms) {
			v.Position = mix3(v.Position, v.NextPosition, MixFraction(u.CurrentTime, v.Timestamp, v.NextTimestamp))
			v.VTime = u.CurrentTime
			displaceVertex(v, u)
		},
		ColorFilter: applyOpacity,
	}
}

// TrailProgram draws path segments with a time-windowed fading trail.
func TrailProgram() ShaderProgram {
	return ShaderProgram{
		Name:           "migration-trail",
		VertexPrologue: scaleSize,
		VertexEpilogue: func(v *Vertex, u Uniforms) {
			v.Position = mix3(v.Position, v.NextPosition, v.PathPercentage)
			v.VTime = PathTime(v.Timestamp, v.NextTimestamp, v.PathPercentage)
			displaceVertex(v, u)
		},
		FragmentPrologue: func(f *Fragment, u Uniforms) bool {
			return Visible(f.VTime, u.CurrentTime, u.TrailLength, u.FadeTrail)
		},
		ColorFilter: func(f *Fragment, u Uniforms) {
			if u.FadeTrail {
				f.Color[3] *= Alpha(f.VTime, u.CurrentTime, u.TrailLength)
			}
			applyOpacity(f, u)
		},
	}
}
