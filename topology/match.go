package topology

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aeroshape/parageo/bspline"
)

// Samples taken along each boundary curve for the coincidence test.
const matchSamples = 8

// MatchEdges tests edge ea of patch a against edge eb of patch b for
// geometric coincidence within tol. direction is +1 when the edges
// coincide traversed the same way, -1 when one must be reversed.
func MatchEdges(a, b *bspline.Surface, ea, eb int, tol float64) (coincident bool, direction int) {
	var pa, pbFwd, pbRev [matchSamples + 1]r3.Vec
	for i := 0; i <= matchSamples; i++ {
		t := float64(i) / matchSamples
		pa[i] = a.EvalEdge(ea, t)
		pbFwd[i] = b.EvalEdge(eb, t)
		pbRev[i] = b.EvalEdge(eb, 1-t)
	}
	if maxDist(pa[:], pbFwd[:]) <= tol {
		return true, 1
	}
	if maxDist(pa[:], pbRev[:]) <= tol {
		return true, -1
	}
	return false, 0
}

func maxDist(a, b []r3.Vec) float64 {
	max := 0.0
	for i := range a {
		if d := r3.Norm(r3.Sub(a[i], b[i])); d > max {
			max = d
		}
	}
	return max
}
