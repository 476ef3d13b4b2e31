// Package geometry parametrizes families of B-spline patches through
// reference axes and design variables, and differentiates the control
// points with respect to those variables.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/spatial/r3"
)

// Dual3 is a 3-vector of dual numbers. The Emag parts carry the tangent
// of the vector with respect to the single design variable currently
// seeded.
type Dual3 [3]dual.Number

func dualVec(v r3.Vec) Dual3 {
	return Dual3{{Real: v.X}, {Real: v.Y}, {Real: v.Z}}
}

// Real drops the tangent parts.
func (a Dual3) Real() r3.Vec {
	return r3.Vec{X: a[0].Real, Y: a[1].Real, Z: a[2].Real}
}

// D3 returns the tangent parts as a plain vector.
func (a Dual3) D3() r3.Vec {
	return r3.Vec{X: a[0].Emag, Y: a[1].Emag, Z: a[2].Emag}
}

func (a Dual3) Add(b Dual3) Dual3 {
	return Dual3{dual.Add(a[0], b[0]), dual.Add(a[1], b[1]), dual.Add(a[2], b[2])}
}

func (a Dual3) Sub(b Dual3) Dual3 {
	return Dual3{dual.Sub(a[0], b[0]), dual.Sub(a[1], b[1]), dual.Sub(a[2], b[2])}
}

// ScaleBy multiplies every component by the dual scalar s.
func (a Dual3) ScaleBy(s dual.Number) Dual3 {
	return Dual3{dual.Mul(s, a[0]), dual.Mul(s, a[1]), dual.Mul(s, a[2])}
}

// AxpyReal adds f*v, where f is dual and v is a constant vector.
func (a Dual3) AxpyReal(f dual.Number, v r3.Vec) Dual3 {
	return Dual3{
		dual.Add(a[0], dual.Scale(v.X, f)),
		dual.Add(a[1], dual.Scale(v.Y, f)),
		dual.Add(a[2], dual.Scale(v.Z, f)),
	}
}

// lerp3 interpolates between a and b with dual parameter w in [0,1].
func lerp3(a, b Dual3, w dual.Number) Dual3 {
	one := dual.Number{Real: 1}
	return a.ScaleBy(dual.Sub(one, w)).Add(b.ScaleBy(w))
}

// mat3 is a 3x3 matrix of dual numbers.
type mat3 [3][3]dual.Number

func (m mat3) MulVec(v Dual3) Dual3 {
	var out Dual3
	for i := 0; i < 3; i++ {
		s := dual.Mul(m[i][0], v[0])
		s = dual.Add(s, dual.Mul(m[i][1], v[1]))
		s = dual.Add(s, dual.Mul(m[i][2], v[2]))
		out[i] = s
	}
	return out
}

func (m mat3) T() mat3 {
	var out mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

func (m mat3) mul(n mat3) mat3 {
	var out mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s := dual.Mul(m[i][0], n[0][j])
			s = dual.Add(s, dual.Mul(m[i][1], n[1][j]))
			s = dual.Add(s, dual.Mul(m[i][2], n[2][j]))
			out[i][j] = s
		}
	}
	return out
}

const degToRad = math.Pi / 180

// sincosDeg evaluates sin and cos of an angle given in degrees.
func sincosDeg(deg dual.Number) (sin, cos dual.Number) {
	rad := dual.Scale(degToRad, deg)
	return dual.Sin(rad), dual.Cos(rad)
}

// rotX is the right-handed rotation about the x axis by deg degrees.
func rotX(deg dual.Number) mat3 {
	s, c := sincosDeg(deg)
	one := dual.Number{Real: 1}
	return mat3{
		{one, {}, {}},
		{{}, c, dual.Scale(-1, s)},
		{{}, s, c},
	}
}

func rotY(deg dual.Number) mat3 {
	s, c := sincosDeg(deg)
	one := dual.Number{Real: 1}
	return mat3{
		{c, {}, s},
		{{}, one, {}},
		{dual.Scale(-1, s), {}, c},
	}
}

func rotZ(deg dual.Number) mat3 {
	s, c := sincosDeg(deg)
	one := dual.Number{Real: 1}
	return mat3{
		{c, dual.Scale(-1, s), {}},
		{s, c, {}},
		{{}, {}, one},
	}
}

// rotGlobalToLocal composes the frame rotation for angles (x,y,z) in
// degrees, applied in z, then x, then y order.
func rotGlobalToLocal(x, y, z dual.Number) mat3 {
	return rotY(y).mul(rotX(x)).mul(rotZ(z))
}
