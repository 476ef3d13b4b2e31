package topology

import (
	"fmt"

	"github.com/aeroshape/parageo/bspline"
)

// BuildConnectivity discovers the edge connectivity of a patch collection:
// every pair of patch edges is tested for geometric coincidence within tol,
// coincident pairs become Joined records (C0 continuity by default), the
// remaining edges become Free records, and driving groups are propagated
// across the resulting graph. The pairwise sweep is O(patches^2), run once
// per topology.
func BuildConnectivity(surfs []*bspline.Surface, tol float64) (*Connectivity, error) {
	if len(surfs) == 0 {
		return nil, fmt.Errorf("no surfaces")
	}
	c := &Connectivity{}
	joined := make(map[int]bool)
	for a := 0; a < len(surfs); a++ {
		for b := a + 1; b < len(surfs); b++ {
			for ea := 0; ea < 4; ea++ {
				for eb := 0; eb < 4; eb++ {
					coinc, dir := MatchEdges(surfs[a], surfs[b], ea, eb, tol)
					if !coinc {
						continue
					}
					if joined[edgeKey(a, ea)] {
						return nil, fmt.Errorf("face %d edge %d coincides with more than one edge", a, ea)
					}
					if joined[edgeKey(b, eb)] {
						return nil, fmt.Errorf("face %d edge %d coincides with more than one edge", b, eb)
					}
					joined[edgeKey(a, ea)] = true
					joined[edgeKey(b, eb)] = true
					c.Records = append(c.Records, EdgeRecord{
						Type:         Joined,
						Face1:        a,
						Edge1:        ea,
						Face2:        b,
						Edge2:        eb,
						Continuity:   0,
						Direction:    dir,
						DrivingGroup: -1,
						DOF:          joinedDOF,
						NCtl:         surfs[a].EdgeCtlCount(ea),
					})
				}
			}
		}
	}
	// Everything not joined is a free (boundary/mirror) edge.
	for f := range surfs {
		for e := 0; e < 4; e++ {
			if joined[edgeKey(f, e)] {
				continue
			}
			c.Records = append(c.Records, EdgeRecord{
				Type:         Free,
				Face1:        f,
				Edge1:        e,
				Face2:        -1,
				Edge2:        -1,
				Continuity:   -1,
				Direction:    1,
				DrivingGroup: -1,
				DOF:          freeDOF,
				NCtl:         surfs[f].EdgeCtlCount(e),
			})
		}
	}
	if err := c.buildLookup(); err != nil {
		return nil, err
	}
	if err := c.assignDrivingGroups(); err != nil {
		return nil, err
	}
	return c, nil
}

// assignDrivingGroups labels each record with a driving group id. Knot
// spacing must be shared along any chain of edges connected end-to-end
// through patch interiors, so group membership is the connected component
// of the graph whose links join each record side (face, edge) to the
// record holding the opposite edge (face, OppositeEdge(edge)) of the same
// face. Joined records couple their two sides implicitly by being a
// single node.
func (c *Connectivity) assignDrivingGroups() error {
	group := -1
	for start := range c.Records {
		if c.Records[start].DrivingGroup != -1 {
			continue
		}
		group++
		stack := []int{start}
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			rec := &c.Records[idx]
			if rec.DrivingGroup != -1 {
				continue
			}
			rec.DrivingGroup = group
			sides := [][2]int{{rec.Face1, rec.Edge1}}
			if rec.Type == Joined {
				sides = append(sides, [2]int{rec.Face2, rec.Edge2})
			}
			for _, s := range sides {
				next, ok := c.lookup[edgeKey(s[0], OppositeEdge(s[1]))]
				if !ok {
					return fmt.Errorf("face %d edge %d missing from the edge record set", s[0], OppositeEdge(s[1]))
				}
				if c.Records[next].DrivingGroup == -1 {
					stack = append(stack, next)
				}
			}
		}
	}
	return nil
}

// NumGroups returns the number of driving groups.
func (c *Connectivity) NumGroups() int {
	n := 0
	for _, rec := range c.Records {
		if rec.DrivingGroup+1 > n {
			n = rec.DrivingGroup + 1
		}
	}
	return n
}

// PropagateKnots copies one knot vector to every edge of each driving
// group so stitched patches stay parametrically consistent. If any member
// of a group is joined with Direction -1, the shared vector is first
// forced symmetric about its midpoint, since a direction flip requires
// the vector to read identically forward and backward.
func (c *Connectivity) PropagateKnots(surfs []*bspline.Surface) error {
	for g := 0; g < c.NumGroups(); g++ {
		var members []*EdgeRecord
		symmetric := false
		for i := range c.Records {
			rec := &c.Records[i]
			if rec.DrivingGroup != g {
				continue
			}
			members = append(members, rec)
			if rec.Direction == -1 {
				symmetric = true
			}
		}
		if len(members) == 0 {
			continue
		}
		first := members[0]
		var knots bspline.KnotVec
		if first.Edge1 == bspline.EdgeVMin || first.Edge1 == bspline.EdgeVMax {
			knots = surfs[first.Face1].Tu.Clone()
		} else {
			knots = surfs[first.Face1].Tv.Clone()
		}
		if symmetric {
			symmetrizeKnots(knots)
		}
		for _, rec := range members {
			if err := setEdgeKnots(surfs, rec.Face1, rec.Edge1, knots, g); err != nil {
				return err
			}
			if rec.Type == Joined {
				if err := setEdgeKnots(surfs, rec.Face2, rec.Edge2, knots, g); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func setEdgeKnots(surfs []*bspline.Surface, face, edge int, knots bspline.KnotVec, group int) error {
	s := surfs[face]
	var err error
	if edge == bspline.EdgeVMin || edge == bspline.EdgeVMax {
		err = s.SetKnots(knots, s.Tv)
	} else {
		err = s.SetKnots(s.Tu, knots)
	}
	if err != nil {
		return fmt.Errorf("driving group %d: face %d edge %d: %v", group, face, edge, err)
	}
	return nil
}

// symmetrizeKnots forces t to satisfy t[k] + t[n-1-k] = 1 by averaging
// each knot with its mirrored counterpart.
func symmetrizeKnots(t bspline.KnotVec) {
	n := len(t)
	for k := 0; k < n/2; k++ {
		avg := 0.5 * (t[k] + (1 - t[n-1-k]))
		t[k] = avg
		t[n-1-k] = 1 - avg
	}
	if n%2 == 1 {
		t[n/2] = 0.5
	}
}
