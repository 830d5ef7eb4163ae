// Package render holds the numeric contract shared with the GPU backend:
// global uniforms, the trail fade model, procedural displacement and the
// layer/shader abstractions that tie them to the attribute tables.
package render

// Defaults for the global uniforms.
const (
	DefaultTrailLength = 120.0
	DefaultDuration    = 2050.0
	DefaultOpacity     = 0.8
)

// Uniforms are the per-frame global values handed to the render backend.
type Uniforms struct {
	CurrentTime   float64 `json:"currentTime"`
	TrailLength   float64 `json:"trailLength"`
	Duration      float64 `json:"duration"`
	FadeTrail     bool    `json:"fadeTrail"`
	WallClockTime float64 `json:"wallClockTime"` // monotonic milliseconds
	Opacity       float64 `json:"opacity"`
}

// DefaultUniforms returns the default uniform set at time 0.
func DefaultUniforms() Uniforms {
	return Uniforms{
		TrailLength: DefaultTrailLength,
		Duration:    DefaultDuration,
		FadeTrail:   true,
		Opacity:     DefaultOpacity,
	}
}

// State is what a layer needs to build its uniforms for a frame.
type State struct {
	QueryTime     float64
	WallClockTime float64
}
