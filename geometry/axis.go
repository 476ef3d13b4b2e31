package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/spatial/r3"
)

// ConType selects how a child axis follows its parent.
type ConType int

const (
	// ConNone groups the axes without constraining the child.
	ConNone ConType = iota
	// ConFull slaves both anchors of a two-section child to the
	// parent's deformation.
	ConFull
)

// Axis is a piecewise-linear reference axis. Sections carry a position,
// a rotation (degrees about x, y, z) and a scale; all section values are
// dual numbers so a seeded design variable propagates its tangent
// through every quantity derived from the axis.
//
// Control points attach to the axis at a frozen parameter s, storing
// their offset in the local section frame. Design variable functions
// mutate X, Rot and Scale; Base is restored from the attach-time
// snapshot before every update.
type Axis struct {
	Name string

	// S holds the frozen chord-length parameter of each section.
	S []float64

	Base  []Dual3
	X     []Dual3
	Rot   [][3]dual.Number
	Scale []dual.Number

	base0  []r3.Vec
	rot0   [][3]float64
	scale0 []float64

	parent  *Axis
	conType ConType
	// chainS and chainD place the child's anchors on the parent:
	// parameter along the parent and offset in the parent's local frame.
	chainS []float64
	chainD []r3.Vec
}

// NewAxis builds an axis through the given anchors with per-section
// rotations in degrees. Section parameters are assigned by chord length
// and never change afterwards.
func NewAxis(name string, anchors []r3.Vec, rot [][3]float64) (*Axis, error) {
	if len(anchors) < 2 {
		return nil, fmt.Errorf("axis %q: need at least 2 anchors, got %d", name, len(anchors))
	}
	if len(rot) != len(anchors) {
		return nil, fmt.Errorf("axis %q: %d rotations for %d anchors", name, len(rot), len(anchors))
	}
	s, err := chordParams(anchors)
	if err != nil {
		return nil, fmt.Errorf("axis %q: %v", name, err)
	}
	a := &Axis{
		Name:   name,
		S:      s,
		base0:  append([]r3.Vec(nil), anchors...),
		rot0:   append([][3]float64(nil), rot...),
		scale0: make([]float64, len(anchors)),
	}
	for i := range a.scale0 {
		a.scale0[i] = 1
	}
	a.Reset()
	return a, nil
}

func chordParams(pts []r3.Vec) ([]float64, error) {
	s := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		d := r3.Norm(r3.Sub(pts[i], pts[i-1]))
		if d == 0 {
			return nil, fmt.Errorf("anchors %d and %d coincide", i-1, i)
		}
		s[i] = s[i-1] + d
	}
	total := s[len(s)-1]
	for i := range s {
		s[i] /= total
	}
	return s, nil
}

// NumSections returns the number of axis sections.
func (a *Axis) NumSections() int { return len(a.S) }

// SetSpacing replaces the chord-length section parameters with an
// explicit spacing. Must be called before any point is attached, since
// attachments freeze their parameter.
func (a *Axis) SetSpacing(spacing []float64) error {
	if len(spacing) != len(a.S) {
		return fmt.Errorf("axis %q: %d spacing values for %d sections", a.Name, len(spacing), len(a.S))
	}
	if spacing[0] != 0 || spacing[len(spacing)-1] != 1 {
		return fmt.Errorf("axis %q: spacing must run from 0 to 1", a.Name)
	}
	for i := 1; i < len(spacing); i++ {
		if spacing[i] <= spacing[i-1] {
			return fmt.Errorf("axis %q: spacing not increasing at %d", a.Name, i)
		}
	}
	copy(a.S, spacing)
	return nil
}

// Reset restores every section value to its attach-time state and clears
// the design variable offsets.
func (a *Axis) Reset() {
	n := len(a.S)
	a.Base = make([]Dual3, n)
	a.X = make([]Dual3, n)
	a.Rot = make([][3]dual.Number, n)
	a.Scale = make([]dual.Number, n)
	for i := 0; i < n; i++ {
		a.Base[i] = dualVec(a.base0[i])
		a.Rot[i] = [3]dual.Number{
			{Real: a.rot0[i][0]},
			{Real: a.rot0[i][1]},
			{Real: a.rot0[i][2]},
		}
		a.Scale[i] = dual.Number{Real: a.scale0[i]}
	}
}

// section locates the segment containing s and the interpolation weight
// within it. s outside [0,1] clamps to the end sections.
func (a *Axis) section(s float64) (seg int, w dual.Number) {
	if s <= a.S[0] {
		return 0, dual.Number{}
	}
	last := len(a.S) - 1
	if s >= a.S[last] {
		return last - 1, dual.Number{Real: 1}
	}
	for seg = 0; seg < last-1; seg++ {
		if s < a.S[seg+1] {
			break
		}
	}
	w = dual.Number{Real: (s - a.S[seg]) / (a.S[seg+1] - a.S[seg])}
	return seg, w
}

// PosAt evaluates the deformed axis position at parameter s.
func (a *Axis) PosAt(s float64) Dual3 {
	seg, w := a.section(s)
	p0 := a.Base[seg].Add(a.X[seg])
	p1 := a.Base[seg+1].Add(a.X[seg+1])
	return lerp3(p0, p1, w)
}

// ScaleAt evaluates the section scale at parameter s.
func (a *Axis) ScaleAt(s float64) dual.Number {
	seg, w := a.section(s)
	one := dual.Number{Real: 1}
	return dual.Add(dual.Mul(dual.Sub(one, w), a.Scale[seg]), dual.Mul(w, a.Scale[seg+1]))
}

func (a *Axis) rotAt(s float64) [3]dual.Number {
	seg, w := a.section(s)
	one := dual.Number{Real: 1}
	var out [3]dual.Number
	for k := 0; k < 3; k++ {
		out[k] = dual.Add(dual.Mul(dual.Sub(one, w), a.Rot[seg][k]), dual.Mul(w, a.Rot[seg+1][k]))
	}
	return out
}

// RotGlobalToLocal returns the rotation taking global coordinates into
// the local section frame at parameter s.
func (a *Axis) RotGlobalToLocal(s float64) mat3 {
	r := a.rotAt(s)
	return rotGlobalToLocal(r[0], r[1], r[2])
}

// RotLocalToGlobal is the inverse frame rotation at parameter s.
func (a *Axis) RotLocalToGlobal(s float64) mat3 {
	return a.RotGlobalToLocal(s).T()
}

// ProjectPoint finds the parameter of the undeformed axis polyline
// closest to p and the local-frame offset of p at that parameter.
func (a *Axis) ProjectPoint(p r3.Vec) (s float64, d r3.Vec) {
	best := -1.0
	for seg := 0; seg < len(a.S)-1; seg++ {
		p0, p1 := a.base0[seg], a.base0[seg+1]
		v := r3.Sub(p1, p0)
		t := r3.Dot(r3.Sub(p, p0), v) / r3.Norm2(v)
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		q := r3.Add(p0, r3.Scale(t, v))
		dist := r3.Norm(r3.Sub(p, q))
		if best < 0 || dist < best {
			best = dist
			s = a.S[seg] + t*(a.S[seg+1]-a.S[seg])
		}
	}
	pos := a.PosAt(s).Real()
	d = realMulVec(a.RotGlobalToLocal(s), r3.Sub(p, pos))
	return s, d
}

func realMulVec(m mat3, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0].Real*v.X + m[0][1].Real*v.Y + m[0][2].Real*v.Z,
		Y: m[1][0].Real*v.X + m[1][1].Real*v.Y + m[1][2].Real*v.Z,
		Z: m[2][0].Real*v.X + m[2][1].Real*v.Y + m[2][2].Real*v.Z,
	}
}

// resampleAnchors converts the given sample points to nOut section
// points. Fewer sections come from a least-squares fit over
// piecewise-linear hat functions with the end points pinned; more
// sections come from linear interpolation along the sampled polyline.
func resampleAnchors(samples []r3.Vec, nOut int) ([]r3.Vec, error) {
	nIn := len(samples)
	if nOut < 2 {
		return nil, fmt.Errorf("need at least 2 sections, got %d", nOut)
	}
	if nOut == nIn {
		return append([]r3.Vec(nil), samples...), nil
	}
	sIn, err := chordParams(samples)
	if err != nil {
		return nil, err
	}
	if nOut > nIn {
		out := make([]r3.Vec, nOut)
		seg := 0
		for r := range out {
			u := float64(r) / float64(nOut-1)
			for seg < nIn-2 && u >= sIn[seg+1] {
				seg++
			}
			w := (u - sIn[seg]) / (sIn[seg+1] - sIn[seg])
			out[r] = r3.Add(r3.Scale(1-w, samples[seg]), r3.Scale(w, samples[seg+1]))
		}
		return out, nil
	}
	// Design matrix of hat functions on a uniform output grid.
	A := mat.NewDense(nIn, nOut, nil)
	for r := 0; r < nIn; r++ {
		u := sIn[r] * float64(nOut-1)
		seg := int(u)
		if seg > nOut-2 {
			seg = nOut - 2
		}
		w := u - float64(seg)
		A.Set(r, seg, 1-w)
		A.Set(r, seg+1, w)
	}
	var qr mat.QR
	qr.Factorize(A)
	b := mat.NewDense(nIn, 3, nil)
	for r, p := range samples {
		b.Set(r, 0, p.X)
		b.Set(r, 1, p.Y)
		b.Set(r, 2, p.Z)
	}
	var x mat.Dense
	if err := qr.SolveTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("section fit: %v", err)
	}
	out := make([]r3.Vec, nOut)
	for r := range out {
		out[r] = r3.Vec{X: x.At(r, 0), Y: x.At(r, 1), Z: x.At(r, 2)}
	}
	// Pin the ends to the sampled ends.
	out[0] = samples[0]
	out[nOut-1] = samples[nIn-1]
	return out, nil
}
