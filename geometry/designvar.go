package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/spatial/r3"
)

// Updater applies the values of one global design variable to the
// reference axes. Implementations work in dual arithmetic so the seeded
// tangent of a value flows into the axis fields.
type Updater interface {
	Apply(vals []dual.Number, axes map[string]*Axis)
}

// UpdateFunc adapts a plain function to the Updater interface.
type UpdateFunc func(vals []dual.Number, axes map[string]*Axis)

func (f UpdateFunc) Apply(vals []dual.Number, axes map[string]*Axis) { f(vals, axes) }

// GlobalVar is a design variable acting on the reference axes through a
// user function.
type GlobalVar struct {
	Name         string
	Value        []float64
	Lower, Upper []float64
	Fn           Updater
}

func newGlobalVar(name string, value, lower, upper []float64, fn Updater) (*GlobalVar, error) {
	if fn == nil {
		return nil, fmt.Errorf("global variable %q: nil update function", name)
	}
	if len(value) == 0 {
		return nil, fmt.Errorf("global variable %q: empty value", name)
	}
	if lower != nil && len(lower) != len(value) {
		return nil, fmt.Errorf("global variable %q: %d lower bounds for %d values", name, len(lower), len(value))
	}
	if upper != nil && len(upper) != len(value) {
		return nil, fmt.Errorf("global variable %q: %d upper bounds for %d values", name, len(upper), len(value))
	}
	return &GlobalVar{
		Name:  name,
		Value: append([]float64(nil), value...),
		Lower: append([]float64(nil), lower...),
		Upper: append([]float64(nil), upper...),
		Fn:    fn,
	}, nil
}

// LocalVar is a design variable displacing individual control points of
// one patch along their surface normal. One value per affected point.
type LocalVar struct {
	Name         string
	Value        []float64
	Lower, Upper float64
	Patch        int
	// CoefList holds the global DOF index of each affected point;
	// GridIndex the corresponding (i,j) cell on the patch.
	CoefList  []int
	GridIndex [][2]int

	// normals are frozen at registration so the displacement direction
	// does not drift as the variable moves.
	normals []r3.Vec
}

// NumValues returns the number of scalar values the variable carries.
func (v *LocalVar) NumValues() int { return len(v.Value) }
