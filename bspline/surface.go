package bspline

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Edge numbering convention for a tensor-product patch:
//
//	0 = v-min, 1 = v-max (both run along u)
//	2 = u-min, 3 = u-max (both run along v)
const (
	EdgeVMin = 0
	EdgeVMax = 1
	EdgeUMin = 2
	EdgeUMax = 3
)

// Surface is a tensor-product B-spline surface patch with a control net of
// Nctlu x Nctlv points, orders Ku, Kv and clamped knot vectors Tu, Tv over
// the parametric square [0,1]^2.
type Surface struct {
	Ku, Kv int
	Tu, Tv KnotVec
	Ctl    [][]r3.Vec // [Nctlu][Nctlv]

	// Updated marks control cells rewritten by the last model update.
	Updated [][]bool
}

// NewSurface creates a surface from its control net, orders and knots.
func NewSurface(ctl [][]r3.Vec, ku, kv int, tu, tv KnotVec) (*Surface, error) {
	nu := len(ctl)
	if nu == 0 {
		return nil, fmt.Errorf("empty control net")
	}
	nv := len(ctl[0])
	for i := range ctl {
		if len(ctl[i]) != nv {
			return nil, fmt.Errorf("ragged control net: row %d has %d points, want %d", i, len(ctl[i]), nv)
		}
	}
	if ku < 2 || kv < 2 {
		return nil, fmt.Errorf("surface orders must be at least 2, got ku=%d kv=%d", ku, kv)
	}
	if nu < ku || nv < kv {
		return nil, fmt.Errorf("control net %dx%d too small for orders %dx%d", nu, nv, ku, kv)
	}
	if err := tu.Validate(nu, ku); err != nil {
		return nil, fmt.Errorf("u knots: %v", err)
	}
	if err := tv.Validate(nv, kv); err != nil {
		return nil, fmt.Errorf("v knots: %v", err)
	}
	s := &Surface{Ku: ku, Kv: kv, Tu: tu.Clone(), Tv: tv.Clone()}
	s.Ctl = make([][]r3.Vec, nu)
	s.Updated = make([][]bool, nu)
	for i := range ctl {
		s.Ctl[i] = append([]r3.Vec(nil), ctl[i]...)
		s.Updated[i] = make([]bool, nv)
	}
	return s, nil
}

// NewUniformSurface creates a surface over uniform clamped knots.
func NewUniformSurface(ctl [][]r3.Vec, ku, kv int) (*Surface, error) {
	if len(ctl) == 0 || len(ctl[0]) == 0 {
		return nil, fmt.Errorf("empty control net")
	}
	return NewSurface(ctl, ku, kv, UniformKnots(len(ctl), ku), UniformKnots(len(ctl[0]), kv))
}

// NumCtl returns the control net dimensions (Nctlu, Nctlv).
func (s *Surface) NumCtl() (nu, nv int) {
	return len(s.Ctl), len(s.Ctl[0])
}

// Eval evaluates the surface at (u,v) in [0,1]^2.
func (s *Surface) Eval(u, v float64) r3.Vec {
	pu, pv := s.Ku-1, s.Kv-1
	su := s.Tu.Span(pu, u)
	sv := s.Tv.Span(pv, v)
	Nu := s.Tu.BasisFuns(su, pu, u)
	Nv := s.Tv.BasisFuns(sv, pv, v)
	var pt r3.Vec
	for a := 0; a <= pu; a++ {
		var row r3.Vec
		for b := 0; b <= pv; b++ {
			row = r3.Add(row, r3.Scale(Nv[b], s.Ctl[su-pu+a][sv-pv+b]))
		}
		pt = r3.Add(pt, r3.Scale(Nu[a], row))
	}
	return pt
}

// Derivs evaluates the surface point and its first partial derivatives.
func (s *Surface) Derivs(u, v float64) (pt, du, dv r3.Vec) {
	pu, pv := s.Ku-1, s.Kv-1
	su := s.Tu.Span(pu, u)
	sv := s.Tv.Span(pv, v)
	Nu, Du := s.Tu.BasisDerivs(su, pu, u)
	Nv, Dv := s.Tv.BasisDerivs(sv, pv, v)
	for a := 0; a <= pu; a++ {
		var row, rowD r3.Vec
		for b := 0; b <= pv; b++ {
			p := s.Ctl[su-pu+a][sv-pv+b]
			row = r3.Add(row, r3.Scale(Nv[b], p))
			rowD = r3.Add(rowD, r3.Scale(Dv[b], p))
		}
		pt = r3.Add(pt, r3.Scale(Nu[a], row))
		du = r3.Add(du, r3.Scale(Du[a], row))
		dv = r3.Add(dv, r3.Scale(Nu[a], rowD))
	}
	return pt, du, dv
}

// Normal evaluates the unit surface normal at (u,v).
func (s *Surface) Normal(u, v float64) r3.Vec {
	_, du, dv := s.Derivs(u, v)
	return r3.Unit(r3.Cross(du, dv))
}

// CtlNormal evaluates the unit surface normal at the Greville parameters
// of control cell (i,j), the parametric location the cell most influences.
func (s *Surface) CtlNormal(i, j int) r3.Vec {
	u := s.Tu.Greville(i, s.Ku-1)
	v := s.Tv.Greville(j, s.Kv-1)
	return s.Normal(u, v)
}

// EvalEdge evaluates the boundary curve of the given edge at parameter t.
func (s *Surface) EvalEdge(edge int, t float64) r3.Vec {
	switch edge {
	case EdgeVMin:
		return s.Eval(t, 0)
	case EdgeVMax:
		return s.Eval(t, 1)
	case EdgeUMin:
		return s.Eval(0, t)
	case EdgeUMax:
		return s.Eval(1, t)
	}
	panic(fmt.Sprintf("invalid edge %d", edge))
}

// EdgeCtlCount returns the number of control points along the given edge.
func (s *Surface) EdgeCtlCount(edge int) int {
	nu, nv := s.NumCtl()
	if edge == EdgeVMin || edge == EdgeVMax {
		return nu
	}
	return nv
}

// SetKnots replaces both knot vectors in place. The replacement must
// preserve the control counts and orders; derived quantities are
// reevaluated lazily so no further recomputation is needed.
func (s *Surface) SetKnots(tu, tv KnotVec) error {
	nu, nv := s.NumCtl()
	if err := tu.Validate(nu, s.Ku); err != nil {
		return fmt.Errorf("u knots: %v", err)
	}
	if err := tv.Validate(nv, s.Kv); err != nil {
		return fmt.Errorf("v knots: %v", err)
	}
	s.Tu = tu.Clone()
	s.Tv = tv.Clone()
	return nil
}

// ProjectPoint finds the parametric location of the closest point on the
// surface to p: coarse grid sampling followed by Gauss-Newton refinement.
// It returns the parameters, the remaining distance, and whether the
// refinement converged.
func (s *Surface) ProjectPoint(p r3.Vec) (u, v, dist float64, ok bool) {
	const grid = 16
	best := 0.0
	for i := 0; i <= grid; i++ {
		for j := 0; j <= grid; j++ {
			uu, vv := float64(i)/grid, float64(j)/grid
			d := r3.Norm2(r3.Sub(p, s.Eval(uu, vv)))
			if (i == 0 && j == 0) || d < best {
				u, v, best = uu, vv, d
			}
		}
	}
	for iter := 0; iter < projectIters; iter++ {
		pt, du, dv := s.Derivs(u, v)
		r := r3.Sub(pt, p)
		// Normal equations of the 2-var Gauss-Newton step.
		a11, a12, a22 := r3.Dot(du, du), r3.Dot(du, dv), r3.Dot(dv, dv)
		b1, b2 := r3.Dot(r, du), r3.Dot(r, dv)
		det := a11*a22 - a12*a12
		if det == 0 {
			break
		}
		su := (a22*b1 - a12*b2) / det
		sv := (a11*b2 - a12*b1) / det
		nu, nv := clamp01(u-su), clamp01(v-sv)
		moved := (nu-u)*(nu-u) + (nv-v)*(nv-v)
		u, v = nu, nv
		if moved < projectTol {
			return u, v, r3.Norm(r3.Sub(p, s.Eval(u, v))), true
		}
	}
	return u, v, r3.Norm(r3.Sub(p, s.Eval(u, v))), false
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
