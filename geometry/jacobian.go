package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Jacobian differentiates every control point coordinate with respect to
// every design variable component. Rows are ordered (x,y,z) per global
// DOF; columns run over global variables first, then local variables, in
// registration order. Global columns come from one dual-seeded update
// sweep each; local columns are the frozen normals.
func (m *Model) Jacobian() (*mat.Dense, error) {
	if err := m.ensureIndex(); err != nil {
		return nil, err
	}
	cols := m.NumVarComponents()
	if cols == 0 {
		return nil, fmt.Errorf("model: no design variables registered")
	}
	J := mat.NewDense(3*m.Idx.NumDOF(), cols, nil)

	col := 0
	for gi, v := range m.globals {
		for k := range v.Value {
			out, err := m.updateCoef(seed{global: gi, comp: k})
			if err != nil {
				return nil, err
			}
			for n := range out {
				d := out[n].D3()
				J.Set(3*n, col, d.X)
				J.Set(3*n+1, col, d.Y)
				J.Set(3*n+2, col, d.Z)
			}
			col++
		}
	}
	for _, v := range m.locals {
		for k, n := range v.CoefList {
			nrm := v.normals[k]
			J.Set(3*n, col, nrm.X)
			J.Set(3*n+1, col, nrm.Y)
			J.Set(3*n+2, col, nrm.Z)
			col++
		}
	}
	return J, nil
}
