// Package topology infers the edge connectivity of a multi-patch B-spline
// surface model and unifies the patch control points into a single global
// set of degrees of freedom with master/slave aliasing.
package topology

import "fmt"

// EdgeType classifies a patch boundary edge.
type EdgeType int

const (
	// Free is a boundary or mirror edge with no partner.
	Free EdgeType = iota
	// Joined is an edge geometrically coincident with exactly one edge
	// of another patch.
	Joined
)

// OppositeEdge maps an edge index to the opposite edge of the same patch
// (0<->1, 2<->3). Opposite edges share a parametric direction, so knot
// spacing propagates across them.
func OppositeEdge(e int) int {
	return e ^ 1
}

// EdgeRecord describes one patch boundary edge, or a joined pair of them.
// Every (face, edge) pair of the model appears in exactly one record,
// either as the first or second member of a Joined record or alone in a
// Free record.
type EdgeRecord struct {
	Type         EdgeType
	Face1, Edge1 int
	Face2, Edge2 int // -1 for Free records
	Continuity   int // continuity order across a join; -1 for Free
	Direction    int // -1 if the joined edges run in opposite parameter directions
	DrivingGroup int // edges in one group must share a knot vector
	DOF          int
	NCtl         int // control points along the edge
}

// DOF field conventions carried over from the persisted table format.
const (
	freeDOF   = 3
	joinedDOF = 7
)

// Connectivity is the full edge-record set of a patch collection, with a
// (face,edge) lookup into the record arena.
type Connectivity struct {
	Records []EdgeRecord
	lookup  map[int]int // packed (face,edge) key -> record index
}

func edgeKey(face, edge int) int {
	return face*4 + edge
}

func (c *Connectivity) buildLookup() error {
	c.lookup = make(map[int]int, len(c.Records))
	for idx, rec := range c.Records {
		if _, dup := c.lookup[edgeKey(rec.Face1, rec.Edge1)]; dup {
			return fmt.Errorf("face %d edge %d appears in more than one record", rec.Face1, rec.Edge1)
		}
		c.lookup[edgeKey(rec.Face1, rec.Edge1)] = idx
		if rec.Type == Joined {
			if _, dup := c.lookup[edgeKey(rec.Face2, rec.Edge2)]; dup {
				return fmt.Errorf("face %d edge %d appears in more than one record", rec.Face2, rec.Edge2)
			}
			c.lookup[edgeKey(rec.Face2, rec.Edge2)] = idx
		}
	}
	return nil
}

// Find locates the record referencing (face, edge). The second result
// reports whether (face, edge) is the owning side: the first member of a
// Joined record, or a Free record.
func (c *Connectivity) Find(face, edge int) (idx int, master bool, err error) {
	idx, ok := c.lookup[edgeKey(face, edge)]
	if !ok {
		return 0, false, fmt.Errorf("face %d edge %d missing from the edge record set", face, edge)
	}
	rec := &c.Records[idx]
	return idx, rec.Face1 == face && rec.Edge1 == edge, nil
}

// Verify checks the structural invariants of the record set: edge
// numbers in range, free records carrying no second side, joined records
// carrying a direction and matching control counts on both sides of the
// lookup.
func (c *Connectivity) Verify() error {
	for n, rec := range c.Records {
		if rec.Edge1 < 0 || rec.Edge1 > 3 || rec.Face1 < 0 {
			return fmt.Errorf("record %d: bad first side (%d,%d)", n, rec.Face1, rec.Edge1)
		}
		if rec.DrivingGroup < 0 {
			return fmt.Errorf("record %d: unassigned driving group", n)
		}
		if rec.NCtl < 2 {
			return fmt.Errorf("record %d: %d control points", n, rec.NCtl)
		}
		switch rec.Type {
		case Free:
			if rec.Face2 != -1 || rec.Edge2 != -1 {
				return fmt.Errorf("record %d: free edge with second side (%d,%d)", n, rec.Face2, rec.Edge2)
			}
			if rec.Continuity != -1 {
				return fmt.Errorf("record %d: free edge with continuity %d", n, rec.Continuity)
			}
		case Joined:
			if rec.Face2 < 0 || rec.Edge2 < 0 || rec.Edge2 > 3 {
				return fmt.Errorf("record %d: bad second side (%d,%d)", n, rec.Face2, rec.Edge2)
			}
			if rec.Direction != 1 && rec.Direction != -1 {
				return fmt.Errorf("record %d: direction %d", n, rec.Direction)
			}
		default:
			return fmt.Errorf("record %d: unknown type %d", n, rec.Type)
		}
	}
	return nil
}

// NumFaces returns the number of patches covered by the record set.
func (c *Connectivity) NumFaces() int {
	n := 0
	for _, rec := range c.Records {
		if rec.Face1+1 > n {
			n = rec.Face1 + 1
		}
		if rec.Type == Joined && rec.Face2+1 > n {
			n = rec.Face2 + 1
		}
	}
	return n
}
