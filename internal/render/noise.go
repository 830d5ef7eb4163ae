package render

import "math"

// Simplex3 is 3D simplex noise following the Ashima Arts construction
// (webgl-noise, MIT): mod-289 permutation polynomial, 7x7 gradient ring
// mapped onto an octahedron, 0.6 kernel radius and a final factor of 42.
// The output is roughly in [-1, 1].
func Simplex3(x, y, z float64) float64 {
	const (
		cx = 1.0 / 6.0
		cy = 1.0 / 3.0
	)

	// First corner.
	s := (x + y + z) * cy
	ix, iy, iz := math.Floor(x+s), math.Floor(y+s), math.Floor(z+s)
	t := (ix + iy + iz) * cx
	x0 := [3]float64{x - ix + t, y - iy + t, z - iz + t}

	// Other corners.
	gx, gy, gz := step(x0[1], x0[0]), step(x0[2], x0[1]), step(x0[0], x0[2])
	lx, ly, lz := 1-gx, 1-gy, 1-gz
	i1 := [3]float64{math.Min(gx, lz), math.Min(gy, lx), math.Min(gz, ly)}
	i2 := [3]float64{math.Max(gx, lz), math.Max(gy, lx), math.Max(gz, ly)}

	var corners [4][3]float64
	for k := 0; k < 3; k++ {
		corners[0][k] = x0[k]
		corners[1][k] = x0[k] - i1[k] + cx
		corners[2][k] = x0[k] - i2[k] + cy
		corners[3][k] = x0[k] - 0.5
	}

	// Permutations.
	ix, iy, iz = mod289(ix), mod289(iy), mod289(iz)
	offX := [4]float64{0, i1[0], i2[0], 1}
	offY := [4]float64{0, i1[1], i2[1], 1}
	offZ := [4]float64{0, i1[2], i2[2], 1}

	// Gradients: 7x7 points over a square, mapped onto an octahedron.
	const n = 0.142857142857 // 1/7
	nsx, nsy, nsz := n*2.0, n*0.5-1.0, n

	var sum float64
	for k := 0; k < 4; k++ {
		p := permute(permute(permute(iz+offZ[k])+iy+offY[k]) + ix + offX[k])

		j := p - 49.0*math.Floor(p*nsz*nsz)
		xs := math.Floor(j * nsz)
		ys := math.Floor(j - 7.0*xs)

		gxk := xs*nsx + nsy
		gyk := ys*nsx + nsy
		h := 1.0 - math.Abs(gxk) - math.Abs(gyk)

		sh := 0.0
		if h <= 0 {
			sh = -1
		}
		gxk += (math.Floor(gxk)*2.0 + 1.0) * sh
		gyk += (math.Floor(gyk)*2.0 + 1.0) * sh

		g := [3]float64{gxk, gyk, h}
		norm := taylorInvSqrt(dot3(g, g))
		g[0], g[1], g[2] = g[0]*norm, g[1]*norm, g[2]*norm

		c := corners[k]
		m := math.Max(0.6-dot3(c, c), 0)
		m *= m
		sum += m * m * dot3(g, c)
	}
	return 42.0 * sum
}

func mod289(x float64) float64 { return x - math.Floor(x*(1.0/289.0))*289.0 }

func permute(x float64) float64 { return mod289((x*34.0 + 1.0) * x) }

func taylorInvSqrt(r float64) float64 { return 1.79284291400159 - 0.85373472095314*r }

// step matches GLSL step(edge, x).
func step(edge, x float64) float64 {
	if x < edge {
		return 0
	}
	return 1
}

func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
