package deorbit

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// R1 rotation about the 1st axis (frame rotation: use R1(-x) to rotate a vector by x).
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat.Matrix, v []float64) (o []float64) {
	vVec := mat.NewVecDense(len(v), v)
	var rVec mat.VecDense
	rVec.MulVec(m, vVec)
	return []float64{rVec.AtVec(0), rVec.AtVec(1), rVec.AtVec(2)}
}

// InclinedPosition returns the spherical coordinates [r, θ, φ] of a point of a circular orbit
// of radius r and inclination i (radians), located at the angle u from the ascending node.
func InclinedPosition(r, u, i float64) []float64 {
	equatorial := Spherical2Cartesian([]float64{r, 0, u})
	return Cartesian2Spherical(MxV33(R1(-i), equatorial))
}
