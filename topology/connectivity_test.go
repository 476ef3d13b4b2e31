package topology

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aeroshape/parageo/bspline"
)

// planeGrid builds an nu x nv control net spanning [x0,x0+w] x [y0,y0+h]
// in the z=0 plane.
func planeGrid(nu, nv int, x0, y0, w, h float64) [][]r3.Vec {
	ctl := make([][]r3.Vec, nu)
	for i := range ctl {
		ctl[i] = make([]r3.Vec, nv)
		for j := range ctl[i] {
			ctl[i][j] = r3.Vec{
				X: x0 + w*float64(i)/float64(nu-1),
				Y: y0 + h*float64(j)/float64(nv-1),
			}
		}
	}
	return ctl
}

func mustSurface(t *testing.T, ku, kv int, ctl [][]r3.Vec) *bspline.Surface {
	t.Helper()
	s, err := bspline.NewUniformSurface(ctl, ku, kv)
	if err != nil {
		t.Fatalf("NewUniformSurface: %v", err)
	}
	return s
}

// twoPatch returns two 6x4 patches stacked in y, sharing the boundary
// y=1: patch 0 edge 1 against patch 1 edge 0, same orientation.
func twoPatch(t *testing.T) []*bspline.Surface {
	return []*bspline.Surface{
		mustSurface(t, 4, 4, planeGrid(6, 4, 0, 0, 1, 1)),
		mustSurface(t, 4, 4, planeGrid(6, 4, 0, 1, 1, 1)),
	}
}

// twoPatchReversed is twoPatch with the second patch's u axis reversed,
// so the shared edge matches with a direction flip.
func twoPatchReversed(t *testing.T) []*bspline.Surface {
	ctl := planeGrid(6, 4, 0, 1, 1, 1)
	for i := 0; i < 3; i++ {
		ctl[i], ctl[5-i] = ctl[5-i], ctl[i]
	}
	return []*bspline.Surface{
		mustSurface(t, 4, 4, planeGrid(6, 4, 0, 0, 1, 1)),
		mustSurface(t, 4, 4, ctl),
	}
}

// quadPatch returns a 2x2 arrangement of 4x4 cubic patches covering
// [0,2]x[0,2], meeting at the point (1,1).
func quadPatch(t *testing.T) []*bspline.Surface {
	return []*bspline.Surface{
		mustSurface(t, 4, 4, planeGrid(4, 4, 0, 0, 1, 1)),
		mustSurface(t, 4, 4, planeGrid(4, 4, 1, 0, 1, 1)),
		mustSurface(t, 4, 4, planeGrid(4, 4, 0, 1, 1, 1)),
		mustSurface(t, 4, 4, planeGrid(4, 4, 1, 1, 1, 1)),
	}
}

func TestBuildConnectivityTwoPatch(t *testing.T) {
	surfs := twoPatch(t)
	conn, err := BuildConnectivity(surfs, 1e-8)
	if err != nil {
		t.Fatalf("BuildConnectivity: %v", err)
	}
	if len(conn.Records) != 7 {
		t.Fatalf("got %d records, want 7 (1 joined + 6 free)", len(conn.Records))
	}
	joined := 0
	for _, rec := range conn.Records {
		if rec.Type == Joined {
			joined++
			if rec.Face1 != 0 || rec.Edge1 != 1 || rec.Face2 != 1 || rec.Edge2 != 0 {
				t.Errorf("joined record (%d,%d)-(%d,%d), want (0,1)-(1,0)",
					rec.Face1, rec.Edge1, rec.Face2, rec.Edge2)
			}
			if rec.Direction != 1 {
				t.Errorf("direction = %d, want 1", rec.Direction)
			}
			if rec.DOF != 7 || rec.Continuity != 0 || rec.NCtl != 6 {
				t.Errorf("joined record fields dof=%d cont=%d nctl=%d", rec.DOF, rec.Continuity, rec.NCtl)
			}
		} else {
			if rec.DOF != 3 || rec.Continuity != -1 || rec.Face2 != -1 || rec.Edge2 != -1 {
				t.Errorf("free record fields dof=%d cont=%d face2=%d edge2=%d",
					rec.DOF, rec.Continuity, rec.Face2, rec.Edge2)
			}
		}
	}
	if joined != 1 {
		t.Errorf("got %d joined records, want 1", joined)
	}
}

func TestBuildConnectivityReversedDirection(t *testing.T) {
	surfs := twoPatchReversed(t)
	conn, err := BuildConnectivity(surfs, 1e-8)
	if err != nil {
		t.Fatalf("BuildConnectivity: %v", err)
	}
	for _, rec := range conn.Records {
		if rec.Type == Joined && rec.Direction != -1 {
			t.Errorf("direction = %d, want -1", rec.Direction)
		}
	}
}

func TestDrivingGroupsTwoPatch(t *testing.T) {
	surfs := twoPatch(t)
	conn, err := BuildConnectivity(surfs, 1e-8)
	if err != nil {
		t.Fatalf("BuildConnectivity: %v", err)
	}
	if got := conn.NumGroups(); got != 3 {
		t.Fatalf("NumGroups = %d, want 3", got)
	}
	// The v-running edges of both patches form one group through the
	// joined seam; the u-running edges form one group per patch.
	seam, _, err := conn.Find(0, 1)
	if err != nil {
		t.Fatalf("Find(0,1): %v", err)
	}
	for _, fe := range [][2]int{{0, 0}, {1, 1}} {
		idx, _, err := conn.Find(fe[0], fe[1])
		if err != nil {
			t.Fatalf("Find(%d,%d): %v", fe[0], fe[1], err)
		}
		if conn.Records[idx].DrivingGroup != conn.Records[seam].DrivingGroup {
			t.Errorf("edge (%d,%d) in group %d, want seam group %d",
				fe[0], fe[1], conn.Records[idx].DrivingGroup, conn.Records[seam].DrivingGroup)
		}
	}
	a2, _, _ := conn.Find(0, 2)
	b2, _, _ := conn.Find(1, 2)
	if conn.Records[a2].DrivingGroup == conn.Records[b2].DrivingGroup {
		t.Errorf("side edges of separate patches share group %d", conn.Records[a2].DrivingGroup)
	}
}

func TestPropagateKnotsUnifiesSeam(t *testing.T) {
	surfs := twoPatch(t)
	conn, err := BuildConnectivity(surfs, 1e-8)
	if err != nil {
		t.Fatalf("BuildConnectivity: %v", err)
	}
	// Perturb an interior u knot of the second patch; propagation must
	// overwrite it with the first member's vector.
	surfs[1].Tu[5] += 0.07
	if err := conn.PropagateKnots(surfs); err != nil {
		t.Fatalf("PropagateKnots: %v", err)
	}
	for k := range surfs[0].Tu {
		if surfs[0].Tu[k] != surfs[1].Tu[k] {
			t.Fatalf("u knot %d differs after propagation: %v vs %v",
				k, surfs[0].Tu[k], surfs[1].Tu[k])
		}
	}
}

func TestPropagateKnotsSymmetric(t *testing.T) {
	surfs := twoPatchReversed(t)
	conn, err := BuildConnectivity(surfs, 1e-8)
	if err != nil {
		t.Fatalf("BuildConnectivity: %v", err)
	}
	surfs[0].Tu[5] = 0.61 // asymmetric interior knot
	if err := conn.PropagateKnots(surfs); err != nil {
		t.Fatalf("PropagateKnots: %v", err)
	}
	// A flipped seam forces a symmetric knot vector on its group.
	if !surfs[0].Tu.IsSymmetric(1e-12) {
		t.Errorf("u knots not symmetric after propagation: %v", surfs[0].Tu)
	}
	if !surfs[1].Tu.IsSymmetric(1e-12) {
		t.Errorf("second patch u knots not symmetric: %v", surfs[1].Tu)
	}
}

func TestMatchEdges(t *testing.T) {
	surfs := twoPatch(t)
	if ok, dir := MatchEdges(surfs[0], surfs[1], 1, 0, 1e-8); !ok || dir != 1 {
		t.Errorf("seam edges: ok=%v dir=%d, want true, 1", ok, dir)
	}
	if ok, _ := MatchEdges(surfs[0], surfs[1], 0, 1, 1e-8); ok {
		t.Errorf("opposite outer edges reported coincident")
	}
	rev := twoPatchReversed(t)
	if ok, dir := MatchEdges(rev[0], rev[1], 1, 0, 1e-8); !ok || dir != -1 {
		t.Errorf("reversed seam: ok=%v dir=%d, want true, -1", ok, dir)
	}
}

func TestBuildConnectivityDuplicateMatch(t *testing.T) {
	// Two coincident patches stacked on the same seam: edge (0,1) would
	// match an edge of both, which must be rejected.
	surfs := []*bspline.Surface{
		mustSurface(t, 4, 4, planeGrid(6, 4, 0, 0, 1, 1)),
		mustSurface(t, 4, 4, planeGrid(6, 4, 0, 1, 1, 1)),
		mustSurface(t, 4, 4, planeGrid(6, 4, 0, 1, 1, 1)),
	}
	if _, err := BuildConnectivity(surfs, 1e-8); err == nil {
		t.Fatal("doubly matched edge accepted")
	}
}
