package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/dual"
	"gonum.org/v1/gonum/spatial/r3"
)

func zAxis(t *testing.T, x, y float64) *Axis {
	t.Helper()
	a, err := NewAxis("test", []r3.Vec{{X: x, Y: y, Z: -1}, {X: x, Y: y, Z: 1}},
		[][3]float64{{}, {}})
	if err != nil {
		t.Fatalf("NewAxis: %v", err)
	}
	return a
}

func TestAxisChordParams(t *testing.T) {
	a, err := NewAxis("kinked", []r3.Vec{{}, {X: 3}, {X: 3, Y: 1}},
		[][3]float64{{}, {}, {}})
	if err != nil {
		t.Fatalf("NewAxis: %v", err)
	}
	want := []float64{0, 0.75, 1}
	for i := range want {
		if math.Abs(a.S[i]-want[i]) > 1e-15 {
			t.Errorf("S[%d] = %v, want %v", i, a.S[i], want[i])
		}
	}
}

func TestAxisRejectsBadInput(t *testing.T) {
	if _, err := NewAxis("one", []r3.Vec{{}}, [][3]float64{{}}); err == nil {
		t.Error("single anchor accepted")
	}
	if _, err := NewAxis("dup", []r3.Vec{{}, {}}, [][3]float64{{}, {}}); err == nil {
		t.Error("coincident anchors accepted")
	}
	if _, err := NewAxis("rot", []r3.Vec{{}, {X: 1}}, [][3]float64{{}}); err == nil {
		t.Error("rotation count mismatch accepted")
	}
}

func TestAxisPosAtInterpolates(t *testing.T) {
	a := zAxis(t, 0, 0)
	got := a.PosAt(0.25).Real()
	if math.Abs(got.Z+0.5) > 1e-15 || got.X != 0 || got.Y != 0 {
		t.Errorf("PosAt(0.25) = %v, want (0,0,-0.5)", got)
	}
	// Out-of-range parameters clamp to the end sections.
	if got := a.PosAt(-1).Real(); got != (r3.Vec{Z: -1}) {
		t.Errorf("PosAt(-1) = %v", got)
	}
	if got := a.PosAt(2).Real(); got != (r3.Vec{Z: 1}) {
		t.Errorf("PosAt(2) = %v", got)
	}
}

func TestAxisProjectPoint(t *testing.T) {
	a := zAxis(t, 0.5, 0.5)
	s, d := a.ProjectPoint(r3.Vec{X: 1, Y: 0.5})
	if math.Abs(s-0.5) > 1e-15 {
		t.Errorf("s = %v, want 0.5", s)
	}
	if math.Abs(d.X-0.5) > 1e-14 || math.Abs(d.Y) > 1e-14 || math.Abs(d.Z) > 1e-14 {
		t.Errorf("d = %v, want (0.5,0,0)", d)
	}
	// Beyond the end the parameter clamps to the end of the polyline.
	s, _ = a.ProjectPoint(r3.Vec{X: 0.5, Y: 0.5, Z: 5})
	if s != 1 {
		t.Errorf("s = %v, want 1", s)
	}
}

func TestAxisScaleAt(t *testing.T) {
	a := zAxis(t, 0, 0)
	a.Scale[1] = dual.Number{Real: 3}
	got := a.ScaleAt(0.5)
	if math.Abs(got.Real-2) > 1e-15 {
		t.Errorf("ScaleAt(0.5) = %v, want 2", got.Real)
	}
}

func TestAxisResetRestoresState(t *testing.T) {
	a := zAxis(t, 0, 0)
	a.X[0] = dualVec(r3.Vec{X: 9})
	a.Rot[1][2] = dual.Number{Real: 45}
	a.Scale[0] = dual.Number{Real: 7}
	a.Reset()
	if a.X[0].Real() != (r3.Vec{}) {
		t.Errorf("X not cleared: %v", a.X[0].Real())
	}
	if a.Rot[1][2].Real != 0 {
		t.Errorf("Rot not restored: %v", a.Rot[1][2].Real)
	}
	if a.Scale[0].Real != 1 {
		t.Errorf("Scale not restored: %v", a.Scale[0].Real)
	}
}

func TestResampleAnchorsReduceOnLine(t *testing.T) {
	samples := make([]r3.Vec, 9)
	for i := range samples {
		samples[i] = r3.Vec{X: float64(i), Y: 2 * float64(i)}
	}
	out, err := resampleAnchors(samples, 3)
	if err != nil {
		t.Fatalf("resampleAnchors: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d sections, want 3", len(out))
	}
	// A straight line reduces without residual: the middle section sits
	// on the line and the ends interpolate.
	if out[0] != samples[0] || out[2] != samples[8] {
		t.Errorf("ends not interpolated: %v %v", out[0], out[2])
	}
	if math.Abs(out[1].Y-2*out[1].X) > 1e-10 {
		t.Errorf("middle section off the line: %v", out[1])
	}
	if math.Abs(out[1].X-4) > 1e-10 {
		t.Errorf("middle section X = %v, want 4", out[1].X)
	}
}

func TestResampleAnchorsUpsample(t *testing.T) {
	samples := []r3.Vec{{}, {X: 2}}
	out, err := resampleAnchors(samples, 5)
	if err != nil {
		t.Fatalf("resampleAnchors: %v", err)
	}
	for r := 0; r < 5; r++ {
		want := 2 * float64(r) / 4
		if math.Abs(out[r].X-want) > 1e-14 || out[r].Y != 0 {
			t.Errorf("section %d = %v, want X=%v", r, out[r], want)
		}
	}
}

func TestResampleAnchorsRejectsSingleSection(t *testing.T) {
	samples := []r3.Vec{{}, {X: 1}, {X: 2}}
	if _, err := resampleAnchors(samples, 1); err == nil {
		t.Error("single section accepted")
	}
}

func TestSetSpacing(t *testing.T) {
	a, err := NewAxis("spaced", []r3.Vec{{}, {X: 1}, {X: 2}},
		[][3]float64{{}, {}, {}})
	if err != nil {
		t.Fatalf("NewAxis: %v", err)
	}
	if err := a.SetSpacing([]float64{0, 0.9, 1}); err != nil {
		t.Fatalf("SetSpacing: %v", err)
	}
	// The midpoint parameter now falls in the stretched first segment.
	got := a.PosAt(0.45).Real()
	if math.Abs(got.X-0.5) > 1e-14 {
		t.Errorf("PosAt(0.45) = %v, want X=0.5", got)
	}
	if err := a.SetSpacing([]float64{0, 1}); err == nil {
		t.Error("short spacing accepted")
	}
	if err := a.SetSpacing([]float64{0, 0.5, 0.9}); err == nil {
		t.Error("spacing not ending at 1 accepted")
	}
	if err := a.SetSpacing([]float64{0, 0.9, 0.5}); err == nil {
		t.Error("decreasing spacing accepted")
	}
}
