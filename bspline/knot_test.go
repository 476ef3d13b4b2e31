package bspline

import (
	"math"
	"testing"
)

func TestUniformKnots(t *testing.T) {
	tv := UniformKnots(6, 4)
	if len(tv) != 10 {
		t.Fatalf("expected 10 knots, got %d", len(tv))
	}
	// Clamped ends
	for i := 0; i < 4; i++ {
		if tv[i] != 0 {
			t.Errorf("knot %d: expected 0, got %g", i, tv[i])
		}
		if tv[9-i] != 1 {
			t.Errorf("knot %d: expected 1, got %g", 9-i, tv[9-i])
		}
	}
	// Interior spacing
	if math.Abs(tv[4]-1.0/3.0) > 1e-14 || math.Abs(tv[5]-2.0/3.0) > 1e-14 {
		t.Errorf("interior knots wrong: %v", tv)
	}
	if err := tv.Validate(6, 4); err != nil {
		t.Errorf("uniform knots failed validation: %v", err)
	}
}

func TestBasisPartitionOfUnity(t *testing.T) {
	tv := UniformKnots(7, 4)
	p := 3
	for _, u := range []float64{0, 0.1, 0.25, 0.5, 0.77, 1} {
		span := tv.Span(p, u)
		N := tv.BasisFuns(span, p, u)
		sum := 0.0
		for _, n := range N {
			if n < -1e-14 {
				t.Errorf("u=%g: negative basis value %g", u, n)
			}
			sum += n
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("u=%g: basis functions sum to %g, want 1", u, sum)
		}
	}
}

func TestBasisDerivsSumToZero(t *testing.T) {
	tv := UniformKnots(8, 4)
	p := 3
	for _, u := range []float64{0.05, 0.35, 0.5, 0.9} {
		span := tv.Span(p, u)
		n1, d := tv.BasisDerivs(span, p, u)
		n2 := tv.BasisFuns(span, p, u)
		sum := 0.0
		for j := range d {
			sum += d[j]
			if math.Abs(n1[j]-n2[j]) > 1e-14 {
				t.Errorf("u=%g: basis value mismatch at %d", u, j)
			}
		}
		if math.Abs(sum) > 1e-11 {
			t.Errorf("u=%g: derivative sum %g, want 0", u, sum)
		}
	}
}

func TestBasisDerivsAgainstFiniteDifference(t *testing.T) {
	tv := UniformKnots(8, 4)
	p := 3
	h := 1e-7
	for _, u := range []float64{0.21, 0.5, 0.83} {
		span := tv.Span(p, u)
		_, d := tv.BasisDerivs(span, p, u)
		np := tv.BasisFuns(span, p, u+h)
		nm := tv.BasisFuns(span, p, u-h)
		for j := range d {
			fd := (np[j] - nm[j]) / (2 * h)
			if math.Abs(fd-d[j]) > 1e-5 {
				t.Errorf("u=%g basis %d: derivative %g, finite difference %g", u, j, d[j], fd)
			}
		}
	}
}

func TestIsSymmetric(t *testing.T) {
	if !UniformKnots(7, 4).IsSymmetric(1e-12) {
		t.Error("uniform clamped knots should be symmetric")
	}
	skew := KnotVec{0, 0, 0, 0.2, 0.9, 1, 1, 1}
	if skew.IsSymmetric(1e-12) {
		t.Error("skewed knots reported symmetric")
	}
}

func TestGreville(t *testing.T) {
	tv := UniformKnots(6, 4)
	if g := tv.Greville(0, 3); g != 0 {
		t.Errorf("first Greville abscissa: got %g, want 0", g)
	}
	if g := tv.Greville(5, 3); g != 1 {
		t.Errorf("last Greville abscissa: got %g, want 1", g)
	}
	for i := 1; i < 5; i++ {
		if g := tv.Greville(i, 3); g <= tv.Greville(i-1, 3) || g >= 1 {
			t.Errorf("Greville abscissae not increasing at %d", i)
		}
	}
}
