package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/num/dual"
)

// seed identifies the single scalar design variable component carrying
// a unit tangent during an update sweep. A negative kind means no seed.
type seed struct {
	global int // index into m.globals, -1 for none
	comp   int
}

var noSeed = seed{global: -1}

// updateCoef recomputes every global DOF from the registered baseline:
// axes are reset to their attach-time state, global variables applied,
// chained axes propagated, attachments re-evaluated and local offsets
// added. Running it twice with unchanged variables gives identical
// results.
func (m *Model) updateCoef(sd seed) ([]Dual3, error) {
	if err := m.ensureIndex(); err != nil {
		return nil, err
	}
	out := make([]Dual3, len(m.coef0))
	for n, p := range m.coef0 {
		out[n] = dualVec(p)
	}
	for n := range m.touched {
		m.touched[n] = false
	}

	for _, a := range m.axes {
		a.Reset()
	}
	for gi, v := range m.globals {
		vals := make([]dual.Number, len(v.Value))
		for k := range vals {
			vals[k].Real = v.Value[k]
			if sd.global == gi && sd.comp == k {
				vals[k].Emag = 1
			}
		}
		v.Fn.Apply(vals, m.axisFor)
	}

	// Chained children ride the deformed parent. Registration order
	// resolves multi-level chains as long as parents are chained first.
	for _, ch := range m.chains {
		c := ch.child
		p := c.parent
		for k := 0; k < 2; k++ {
			s := c.chainS[k]
			pos := p.PosAt(s)
			off := p.RotLocalToGlobal(s).MulVec(dualVec(c.chainD[k])).ScaleBy(p.ScaleAt(s))
			c.Base[k] = pos.Add(off)
		}
	}

	for ai, a := range m.axes {
		for _, l := range m.links[ai] {
			pos := a.PosAt(l.S)
			off := a.RotLocalToGlobal(l.S).MulVec(dualVec(l.D)).ScaleBy(a.ScaleAt(l.S))
			out[l.Coef] = pos.Add(off)
			m.touched[l.Coef] = true
		}
	}

	for _, v := range m.locals {
		for k, n := range v.CoefList {
			val := dual.Number{Real: v.Value[k]}
			out[n] = out[n].AxpyReal(val, v.normals[k])
			m.touched[n] = true
		}
	}
	return out, nil
}

// Update recomputes the patch control points from the current design
// variable values and scatters them, masters and aliases alike, back
// into the surfaces. Repeated calls with unchanged variables are
// idempotent.
func (m *Model) Update() error {
	out, err := m.updateCoef(noSeed)
	if err != nil {
		return err
	}
	for n := range out {
		p := out[n].Real()
		m.Coef[n] = p
		for _, ref := range m.Idx.Entries[n].Aliases {
			s := m.Surfs[ref.Patch]
			s.Ctl[ref.I][ref.J] = p
			if m.touched[n] {
				s.Updated[ref.I][ref.J] = true
			}
		}
	}
	return nil
}

// SetGlobalVar assigns new values to a registered global variable.
func (m *Model) SetGlobalVar(name string, value []float64) error {
	v, ok := m.GlobalVarByName(name)
	if !ok {
		return fmt.Errorf("model: unknown global variable %q", name)
	}
	if len(value) != len(v.Value) {
		return fmt.Errorf("model: variable %q has %d values, got %d", name, len(v.Value), len(value))
	}
	copy(v.Value, value)
	return nil
}
