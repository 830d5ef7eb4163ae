package render

// PathTime is the timestamp at a point pct (0..1) of the way along a path
// segment whose endpoints carry ts and nextTs. The trail variant feeds it to
// the fragment stage as vTime.
func PathTime(ts, nextTs, pct float64) float64 {
	return ts + (nextTs-ts)*pct
}

// Visible reports whether a fragment with path time vTime survives the
// discard rule: it must have started (vTime >= 1, timestamp 0 means
// inactive), must not lie ahead of currentTime, and with fadeTrail it must
// still be within trailLength of currentTime.
func Visible(vTime, currentTime, trailLength float64, fadeTrail bool) bool {
	if vTime < 1 || vTime > currentTime {
		return false
	}
	if fadeTrail && vTime < currentTime-trailLength {
		return false
	}
	return true
}

// Alpha is the trail fade factor, 1 at currentTime falling linearly to 0 at
// the tail of the trail. While currentTime is shorter than the trail the
// tail is time 0 instead. The result is clamped to [0,1], which is what the
// framebuffer does with the shader's output.
func Alpha(vTime, currentTime, trailLength float64) float64 {
	var a float64
	if currentTime < trailLength {
		if currentTime <= 0 {
			return 0
		}
		a = 1 - (currentTime-vTime)/currentTime
	} else {
		if trailLength <= 0 {
			return 0
		}
		a = 1 - (currentTime-vTime)/trailLength
	}
	return clamp01(a)
}

// FragmentAlpha combines the discard rule and the fade for one fragment.
// keep is false when the fragment is discarded. Without fadeTrail the alpha
// is left at full opacity.
func FragmentAlpha(vTime float64, u Uniforms) (alpha float64, keep bool) {
	if !Visible(vTime, u.CurrentTime, u.TrailLength, u.FadeTrail) {
		return 0, false
	}
	if !u.FadeTrail {
		return 1, true
	}
	return Alpha(vTime, u.CurrentTime, u.TrailLength), true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
