package deorbit

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 1 / deg2rad
)

// norm returns the norm of a given vector which is supposed to be 3x1.
func norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// cross performs the cross product of two 3x1 vectors.
func cross(a, b []float64) []float64 {
	return []float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}

// Spherical2Cartesian returns the Cartesian coordinates of the provided spherical vector [r, θ, φ].
// θ is the elevation from the XY plane (i.e. a latitude, not a colatitude) and φ the azimuth from X.
func Spherical2Cartesian(a []float64) (b []float64) {
	b = make([]float64, 3)
	sθ, cθ := math.Sincos(a[1])
	sφ, cφ := math.Sincos(a[2])
	b[0] = a[0] * cθ * cφ
	b[1] = a[0] * cθ * sφ
	b[2] = a[0] * sθ
	return
}

// Cartesian2Spherical returns the provided Cartesian coordinates vector in spherical [r, θ, φ],
// with the same elevation convention as Spherical2Cartesian.
func Cartesian2Spherical(a []float64) (b []float64) {
	b = make([]float64, 3)
	if scalar.EqualWithinAbs(norm(a), 0, 1e-12) {
		return []float64{0, 0, 0}
	}
	b[0] = norm(a)
	b[1] = math.Asin(math.Max(-1, math.Min(1, a[2]/b[0])))
	b[2] = math.Atan2(a[1], a[0])
	return
}

// vKepler returns the circular velocity at radius r.
func vKepler(r, mu float64) float64 {
	return math.Sqrt(mu / r)
}

// isFinite returns whether none of the values is a NaN or an infinity.
func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
