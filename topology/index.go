package topology

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aeroshape/parageo/bspline"
)

// CtlRef identifies one control cell of one patch.
type CtlRef struct {
	Patch, I, J int
}

// CoefEntry is the ordered alias list of one global degree of freedom.
// The first alias is the master cell that owns the DOF; later aliases are
// slave cells on other patches mirroring its value.
type CoefEntry struct {
	Aliases []CtlRef
}

// Master returns the owning cell of the entry.
func (e *CoefEntry) Master() CtlRef {
	return e.Aliases[0]
}

// GlobalIndex maps every control cell of every patch to a global DOF
// index, aliasing duplicate representations of the same physical point
// across shared edges and corners.
type GlobalIndex struct {
	Entries []CoefEntry
	// Index holds, per patch, the per-cell global DOF index.
	Index [][][]int
	// FreeShape holds, per patch, the control net shape restricted to
	// rows/columns that contain at least one master cell.
	FreeShape [][2]int
	// Coef holds the initial coordinates of every DOF, gathered from
	// each entry's master cell.
	Coef []r3.Vec
}

// NumDOF returns the number of global degrees of freedom.
func (g *GlobalIndex) NumDOF() int {
	return len(g.Entries)
}

// BuildIndex assigns a global DOF index to every distinct control point.
// Patches are processed in ascending order; Joined records always list
// the lower-numbered face first, so a slave cell can resolve its master's
// index directly.
func (c *Connectivity) BuildIndex(surfs []*bspline.Surface) (*GlobalIndex, error) {
	for _, rec := range c.Records {
		if rec.Type != Joined {
			continue
		}
		n1 := surfs[rec.Face1].EdgeCtlCount(rec.Edge1)
		n2 := surfs[rec.Face2].EdgeCtlCount(rec.Edge2)
		if n1 != n2 {
			return nil, fmt.Errorf("joined edges (%d,%d) and (%d,%d) have %d and %d control points",
				rec.Face1, rec.Edge1, rec.Face2, rec.Edge2, n1, n2)
		}
	}

	g := &GlobalIndex{
		Index:     make([][][]int, len(surfs)),
		FreeShape: make([][2]int, len(surfs)),
	}
	for isurf, s := range surfs {
		nu, nv := s.NumCtl()
		grid := make([][]int, nu)
		for i := range grid {
			grid[i] = make([]int, nv)
			for j := range grid[i] {
				grid[i][j] = -1
			}
		}
		g.Index[isurf] = grid

		master := make([][]bool, nu)
		for i := range master {
			master[i] = make([]bool, nv)
		}

		for i := 0; i < nu; i++ {
			for j := 0; j < nv; j++ {
				onU := i == 0 || i == nu-1
				onV := j == 0 || j == nv-1
				switch {
				case !onU && !onV:
					g.newDOF(isurf, i, j)
					master[i][j] = true

				case onU != onV:
					// On exactly one edge, not a corner.
					edge, t := edgeOf(i, j, nu, nv)
					idx, own, err := c.Find(isurf, edge)
					if err != nil {
						return nil, err
					}
					if own {
						g.newDOF(isurf, i, j)
						master[i][j] = true
					} else if err := g.alias(surfs, &c.Records[idx], t, isurf, i, j); err != nil {
						return nil, err
					}

				default:
					// Corner: two edges meet.
					e1, t1 := cornerEdgeU(i, j, nu, nv)
					e2, t2 := cornerEdgeV(i, j, nu, nv)
					idx1, own1, err := c.Find(isurf, e1)
					if err != nil {
						return nil, err
					}
					idx2, own2, err := c.Find(isurf, e2)
					if err != nil {
						return nil, err
					}
					switch {
					case own1 && own2:
						g.newDOF(isurf, i, j)
						master[i][j] = true
					case !own1:
						// When neither adjacent edge is owned, the
						// first record still resolves to an assigned
						// master cell (faces are processed in
						// ascending order).
						if err := g.alias(surfs, &c.Records[idx1], t1, isurf, i, j); err != nil {
							return nil, err
						}
					default:
						if err := g.alias(surfs, &c.Records[idx2], t2, isurf, i, j); err != nil {
							return nil, err
						}
					}
				}
			}
		}

		g.FreeShape[isurf] = freeShape(master)
	}

	g.Coef = make([]r3.Vec, len(g.Entries))
	for n := range g.Entries {
		m := g.Entries[n].Master()
		g.Coef[n] = surfs[m.Patch].Ctl[m.I][m.J]
	}
	return g, nil
}

func (g *GlobalIndex) newDOF(patch, i, j int) {
	n := len(g.Entries)
	g.Entries = append(g.Entries, CoefEntry{Aliases: []CtlRef{{patch, i, j}}})
	g.Index[patch][i][j] = n
}

// alias resolves the global index of position t along the master side of
// rec and records (patch,i,j) as a further alias of it.
func (g *GlobalIndex) alias(surfs []*bspline.Surface, rec *EdgeRecord, t, patch, i, j int) error {
	n, err := g.edgeIndex(surfs, rec, t)
	if err != nil {
		return err
	}
	g.Entries[n].Aliases = append(g.Entries[n].Aliases, CtlRef{patch, i, j})
	g.Index[patch][i][j] = n
	return nil
}

// edgeIndex returns the global index held by the master patch of rec at
// position t along the joined edge, accounting for a direction flip.
func (g *GlobalIndex) edgeIndex(surfs []*bspline.Surface, rec *EdgeRecord, t int) (int, error) {
	f, e := rec.Face1, rec.Edge1
	n := surfs[f].EdgeCtlCount(e)
	if rec.Direction == -1 {
		t = n - 1 - t
	}
	nu, nv := surfs[f].NumCtl()
	var idx int
	switch e {
	case bspline.EdgeVMin:
		idx = g.Index[f][t][0]
	case bspline.EdgeVMax:
		idx = g.Index[f][t][nv-1]
	case bspline.EdgeUMin:
		idx = g.Index[f][0][t]
	case bspline.EdgeUMax:
		idx = g.Index[f][nu-1][t]
	}
	if idx < 0 {
		return 0, fmt.Errorf("master cell for face %d edge %d position %d is unassigned", f, e, t)
	}
	return idx, nil
}

// edgeOf classifies a non-corner boundary cell: it returns the edge the
// cell lies on and the cell's position along that edge.
func edgeOf(i, j, nu, nv int) (edge, t int) {
	switch {
	case j == 0:
		return bspline.EdgeVMin, i
	case j == nv-1:
		return bspline.EdgeVMax, i
	case i == 0:
		return bspline.EdgeUMin, j
	default:
		return bspline.EdgeUMax, j
	}
}

// cornerEdgeU returns the u-running edge (0 or 1) meeting at a corner
// cell, with the corner's position along it; cornerEdgeV the v-running
// edge (2 or 3).
func cornerEdgeU(i, j, nu, nv int) (edge, t int) {
	if j == 0 {
		return bspline.EdgeVMin, i
	}
	return bspline.EdgeVMax, i
}

func cornerEdgeV(i, j, nu, nv int) (edge, t int) {
	if i == 0 {
		return bspline.EdgeUMin, j
	}
	return bspline.EdgeUMax, j
}

// freeShape drops every boundary row/column containing no master cell.
func freeShape(master [][]bool) [2]int {
	nu, nv := len(master), len(master[0])
	freeU, freeV := nu, nv
	anyRow := func(i int) bool {
		for j := 0; j < nv; j++ {
			if master[i][j] {
				return true
			}
		}
		return false
	}
	anyCol := func(j int) bool {
		for i := 0; i < nu; i++ {
			if master[i][j] {
				return true
			}
		}
		return false
	}
	if !anyRow(0) {
		freeU--
	}
	if !anyRow(nu - 1) {
		freeU--
	}
	if !anyCol(0) {
		freeV--
	}
	if !anyCol(nv - 1) {
		freeV--
	}
	return [2]int{freeU, freeV}
}

// Verify checks the structural invariants of the index against the
// surfaces: every control cell of every patch appears in exactly one
// entry, every cell has an assigned index consistent with the entry
// lists, and the DOF count equals the number of master allocations.
func (g *GlobalIndex) Verify(surfs []*bspline.Surface) error {
	seen := make(map[CtlRef]int)
	masters := 0
	for n, e := range g.Entries {
		if len(e.Aliases) == 0 {
			return fmt.Errorf("entry %d has no aliases", n)
		}
		masters++
		for _, a := range e.Aliases {
			if prev, dup := seen[a]; dup {
				return fmt.Errorf("cell %v appears in entries %d and %d", a, prev, n)
			}
			seen[a] = n
			if g.Index[a.Patch][a.I][a.J] != n {
				return fmt.Errorf("cell %v indexed %d, but listed in entry %d", a, g.Index[a.Patch][a.I][a.J], n)
			}
		}
	}
	total := 0
	for isurf, s := range surfs {
		nu, nv := s.NumCtl()
		total += nu * nv
		for i := 0; i < nu; i++ {
			for j := 0; j < nv; j++ {
				if _, ok := seen[CtlRef{isurf, i, j}]; !ok {
					return fmt.Errorf("cell (%d,%d,%d) missing from every entry", isurf, i, j)
				}
			}
		}
	}
	if total != len(seen) {
		return fmt.Errorf("alias count %d does not match total cell count %d", len(seen), total)
	}
	if masters != g.NumDOF() {
		return fmt.Errorf("master count %d does not match DOF count %d", masters, g.NumDOF())
	}
	return nil
}
