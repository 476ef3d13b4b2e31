// Package bspline implements the tensor-product B-spline surfaces and
// curves that back the multi-patch geometry model: basis evaluation,
// derivatives, normals, point projection and in-place knot replacement.
package bspline

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Curve is a 3-D B-spline curve of order K (degree K-1).
type Curve struct {
	K   int
	T   KnotVec
	Ctl []r3.Vec
}

// NewCurve creates a curve from its control points, order and knot vector.
func NewCurve(ctl []r3.Vec, k int, t KnotVec) (*Curve, error) {
	if k < 2 {
		return nil, fmt.Errorf("curve order must be at least 2, got %d", k)
	}
	if len(ctl) < k {
		return nil, fmt.Errorf("curve needs at least %d control points for order %d, got %d", k, k, len(ctl))
	}
	if err := t.Validate(len(ctl), k); err != nil {
		return nil, err
	}
	return &Curve{K: k, T: t.Clone(), Ctl: append([]r3.Vec(nil), ctl...)}, nil
}

// Eval evaluates the curve at parameter u in [0,1].
func (c *Curve) Eval(u float64) r3.Vec {
	p := c.K - 1
	span := c.T.Span(p, u)
	N := c.T.BasisFuns(span, p, u)
	var pt r3.Vec
	for j := 0; j <= p; j++ {
		pt = r3.Add(pt, r3.Scale(N[j], c.Ctl[span-p+j]))
	}
	return pt
}

// Deriv evaluates the first derivative of the curve at u.
func (c *Curve) Deriv(u float64) r3.Vec {
	p := c.K - 1
	span := c.T.Span(p, u)
	_, d := c.T.BasisDerivs(span, p, u)
	var dv r3.Vec
	for j := 0; j <= p; j++ {
		dv = r3.Add(dv, r3.Scale(d[j], c.Ctl[span-p+j]))
	}
	return dv
}

const (
	projectSamples = 64
	projectIters   = 40
	projectTol     = 1e-12
)

// ProjectPoint finds the parameter of the closest point on the curve to p
// by coarse sampling followed by Newton refinement on the stationarity
// condition (C(u)-p)·C'(u) = 0. It returns the parameter, the vector from
// the closest point to p, and whether the iteration converged.
func (c *Curve) ProjectPoint(p r3.Vec) (u float64, d r3.Vec, ok bool) {
	best, bestDist := 0.0, 0.0
	for i := 0; i <= projectSamples; i++ {
		t := float64(i) / projectSamples
		dist := r3.Norm2(r3.Sub(p, c.Eval(t)))
		if i == 0 || dist < bestDist {
			best, bestDist = t, dist
		}
	}
	u = best
	for iter := 0; iter < projectIters; iter++ {
		r := r3.Sub(c.Eval(u), p)
		du := c.Deriv(u)
		f := r3.Dot(r, du)
		// Gauss-Newton on f(u); second derivative term dropped.
		fp := r3.Dot(du, du)
		if fp == 0 {
			break
		}
		nu := u - f/fp
		if nu < 0 {
			nu = 0
		} else if nu > 1 {
			nu = 1
		}
		moved := (nu - u) * (nu - u)
		u = nu
		if moved < projectTol {
			d = r3.Sub(p, c.Eval(u))
			return u, d, true
		}
	}
	d = r3.Sub(p, c.Eval(u))
	return u, d, false
}
