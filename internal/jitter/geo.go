package jitter

import (
	"math"
)

// EarthRadiusMeters is the sphere radius used by the displacement approximation.
const EarthRadiusMeters = 6371000.0

// Coordinate returns a random point within radiusMeters of (lng, lat).
//
// The displacement is applied directly to the angular coordinates
// (dLat = r/R*sin(theta), dLng = r/R*cos(theta)). This is a planar
// approximation: it ignores the cos(lat) shrink of longitude degrees and is
// only meaningful for radii that are small compared to the Earth. Two values
// are always drawn from rng, in the order radius then angle.
func Coordinate(rng RNG, lng, lat, radiusMeters float64) (float64, float64) {
	r := rng.Float64() * radiusMeters
	theta := rng.Float64() * 2 * math.Pi
	if r == 0 {
		return Normalize(lng, lat)
	}

	latRad := lat * (math.Pi / 180)
	lngRad := lng * (math.Pi / 180)

	newLat := (latRad + (r/EarthRadiusMeters)*math.Sin(theta)) * (180 / math.Pi)
	newLng := (lngRad + (r/EarthRadiusMeters)*math.Cos(theta)) * (180 / math.Pi)

	return wrapLng(newLng), clampLat(newLat)
}

// Normalize returns the coordinate unchanged when it is already in range,
// otherwise latitude is clamped to [-90, 90] and longitude wrapped into
// [-180, 180).
func Normalize(lng, lat float64) (float64, float64) {
	if lng < -180 || lng >= 180 {
		lng = wrapLng(lng)
	}
	return lng, clampLat(lat)
}

func clampLat(lat float64) float64 {
	return math.Min(math.Max(lat, -90), 90)
}

func wrapLng(lng float64) float64 {
	m := math.Mod(lng+180, 360)
	if m < 0 {
		m += 360
	}
	// m+360 can round up to exactly 360 for tiny negative m.
	if m >= 360 {
		m = 0
	}
	return m - 180
}
