package bspline

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"
)

// KnotVec is a nondecreasing knot vector over [0,1].
type KnotVec []float64

// Clone returns a copy of the knot vector.
func (t KnotVec) Clone() KnotVec {
	return append(KnotVec(nil), t...)
}

// UniformKnots builds a clamped, uniformly spaced knot vector for n control
// points with order k (degree k-1), normalized to [0,1].
func UniformKnots(n, k int) KnotVec {
	t := make(KnotVec, n+k)
	for i := 0; i < k; i++ {
		t[i] = 0
		t[n+k-1-i] = 1
	}
	span := float64(n - k + 1)
	for i := k; i < n; i++ {
		t[i] = float64(i-k+1) / span
	}
	return t
}

// Validate checks that t has the length required for n control points of
// order k and is nondecreasing.
func (t KnotVec) Validate(n, k int) error {
	if len(t) != n+k {
		return fmt.Errorf("knot vector length %d does not match n+k=%d", len(t), n+k)
	}
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			return fmt.Errorf("knot vector is decreasing at index %d: %g > %g", i, t[i-1], t[i])
		}
	}
	return nil
}

// Span locates the knot span index for parameter u at degree p, so that
// t[span] <= u < t[span+1] (with the usual clamping at the right end).
// Binary search per algorithm 2.1 of Piegl & Tiller.
func (t KnotVec) Span(p int, u float64) int {
	n := len(t) - p - 2
	if u >= t[n+1] {
		return n
	}
	if u <= t[p] {
		return p
	}
	lo, hi := p, n+1
	mid := (lo + hi) / 2
	for u < t[mid] || u >= t[mid+1] {
		if u < t[mid] {
			hi = mid
		} else {
			lo = mid
		}
		mid = (lo + hi) / 2
	}
	return mid
}

// BasisFuns evaluates the p+1 nonvanishing basis functions
// N[span-p..span] at u (algorithm 2.2 of Piegl & Tiller).
func (t KnotVec) BasisFuns(span, p int, u float64) []float64 {
	N := make([]float64, p+1)
	left := make([]float64, p+1)
	right := make([]float64, p+1)
	N[0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - t[span+1-j]
		right[j] = t[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			den := right[r+1] + left[j-r]
			temp := 0.0
			if den != 0 {
				temp = N[r] / den
			}
			N[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		N[j] = saved
	}
	return N
}

// BasisDerivs evaluates the nonvanishing basis functions and their first
// derivatives at u. The derivative of N[i,p] is assembled from the degree
// p-1 functions on the same span.
func (t KnotVec) BasisDerivs(span, p int, u float64) (n, d []float64) {
	n = t.BasisFuns(span, p, u)
	d = make([]float64, p+1)
	if p == 0 {
		return n, d
	}
	lower := t.BasisFuns(span, p-1, u)
	for j := 0; j <= p; j++ {
		i := span - p + j
		var left, right float64
		if j > 0 {
			if den := t[i+p] - t[i]; den > 0 {
				left = lower[j-1] / den
			}
		}
		if j < p {
			if den := t[i+p+1] - t[i+1]; den > 0 {
				right = lower[j] / den
			}
		}
		d[j] = float64(p) * (left - right)
	}
	return n, d
}

// Greville returns the Greville abscissa of control point i at degree p,
// the average of knots t[i+1..i+p].
func (t KnotVec) Greville(i, p int) float64 {
	sum := 0.0
	for j := 1; j <= p; j++ {
		sum += t[i+j]
	}
	return sum / float64(p)
}

// IsSymmetric reports whether the knot vector is invariant under u -> 1-u,
// i.e. t[k] + t[len-1-k] == 1 for every k, within tol.
func (t KnotVec) IsSymmetric(tol float64) bool {
	for k := 0; k < len(t); k++ {
		if !scalar.EqualWithinAbs(t[k]+t[len(t)-1-k], 1, tol) {
			return false
		}
	}
	return true
}
