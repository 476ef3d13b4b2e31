package geometry

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aeroshape/parageo/bspline"
	"github.com/aeroshape/parageo/topology"
)

// Model ties a set of B-spline patches to their shared-edge topology,
// the reference axes deforming them, and the registered design
// variables.
type Model struct {
	Surfs []*bspline.Surface
	Conn  *topology.Connectivity
	Idx   *topology.GlobalIndex

	// Coef mirrors Idx.Coef and holds the live coordinates of every
	// global DOF; coef0 the baseline they are recomputed from.
	Coef  []r3.Vec
	coef0 []r3.Vec

	axes    []*Axis
	axisFor map[string]*Axis
	links   [][]Link
	chains  []chainRec

	globals []*GlobalVar
	locals  []*LocalVar
	names   map[string]bool

	attached []bool
	touched  []bool
}

// Link records one control point attachment to a reference axis: the
// global DOF, the frozen axis parameter and the local-frame offset.
type Link struct {
	Coef int
	S    float64
	D    r3.Vec
}

type chainRec struct {
	child *Axis
}

// NewModel wraps a patch set. Connectivity and the global index are
// built (or loaded) afterwards, before any axis is attached.
func NewModel(surfs []*bspline.Surface) (*Model, error) {
	if len(surfs) == 0 {
		return nil, fmt.Errorf("model: no surfaces")
	}
	return &Model{
		Surfs:   surfs,
		axisFor: make(map[string]*Axis),
		names:   make(map[string]bool),
	}, nil
}

// BuildConnectivity discovers shared edges by sampled coincidence. An
// existing connectivity is kept unless force is set.
func (m *Model) BuildConnectivity(tol float64, force bool) error {
	if m.Conn != nil && !force {
		return fmt.Errorf("model: connectivity already present (use force to rebuild)")
	}
	conn, err := topology.BuildConnectivity(m.Surfs, tol)
	if err != nil {
		return err
	}
	m.setConnectivity(conn)
	return nil
}

// LoadConnectivity reads a previously written table instead of
// rediscovering edges, so hand edits to continuity or control counts
// survive. An existing connectivity is kept unless force is set.
func (m *Model) LoadConnectivity(r io.Reader, force bool) error {
	if m.Conn != nil && !force {
		return fmt.Errorf("model: connectivity already present (use force to reload)")
	}
	conn, err := topology.ReadTable(r)
	if err != nil {
		return err
	}
	m.setConnectivity(conn)
	return nil
}

func (m *Model) setConnectivity(conn *topology.Connectivity) {
	m.Conn = conn
	m.Idx = nil
	m.Coef = nil
	m.coef0 = nil
}

// WriteConnectivity writes the editable connectivity table.
func (m *Model) WriteConnectivity(w io.Writer) error {
	if m.Conn == nil {
		return fmt.Errorf("model: no connectivity to write")
	}
	return m.Conn.WriteTable(w)
}

// PropagateKnots unifies knot vectors across every driving group.
func (m *Model) PropagateKnots() error {
	if m.Conn == nil {
		return fmt.Errorf("model: connectivity required before knot propagation")
	}
	return m.Conn.PropagateKnots(m.Surfs)
}

// ensureIndex builds the global DOF index and snapshots the baseline
// coefficients on first use.
func (m *Model) ensureIndex() error {
	if m.Idx != nil {
		return nil
	}
	if m.Conn == nil {
		return fmt.Errorf("model: connectivity required")
	}
	idx, err := m.Conn.BuildIndex(m.Surfs)
	if err != nil {
		return err
	}
	m.Idx = idx
	m.Coef = append([]r3.Vec(nil), idx.Coef...)
	m.coef0 = append([]r3.Vec(nil), idx.Coef...)
	m.attached = make([]bool, idx.NumDOF())
	m.touched = make([]bool, idx.NumDOF())
	return nil
}

// AxisOptions tunes control point attachment.
type AxisOptions struct {
	// Patches restricts attachment to the given patch indices. Empty
	// means every patch.
	Patches []int
	// Sections, when positive and different from the anchor count,
	// resamples the anchors to that many sections: a least-squares
	// reduction when fewer, linear interpolation when more.
	Sections int
	// Spacing overrides the chord-length section parameters. It must
	// be strictly increasing from 0 to 1 with one entry per section.
	Spacing []float64
	// Region, when set, attaches only control points whose projection
	// falls inside it.
	Region *Region
}

// AttachRefAxis creates a reference axis through the anchors and
// attaches the selected control points to it. Each DOF belongs to at
// most one axis; attaching an already linked point is an error and
// leaves the model unchanged.
func (m *Model) AttachRefAxis(name string, anchors []r3.Vec, rot [][3]float64, opt AxisOptions) (*Axis, error) {
	if err := m.ensureIndex(); err != nil {
		return nil, err
	}
	if _, dup := m.axisFor[name]; dup {
		return nil, fmt.Errorf("model: axis %q already exists", name)
	}
	if opt.Sections > 0 && opt.Sections != len(anchors) {
		sites, err := chordParams(anchors)
		if err != nil {
			return nil, fmt.Errorf("axis %q: %v", name, err)
		}
		resampled, err := resampleAnchors(anchors, opt.Sections)
		if err != nil {
			return nil, fmt.Errorf("axis %q: %v", name, err)
		}
		anchors = resampled
		// Rotations ride the same resampling as the anchors. A
		// two-entry list is treated as root/tip values over [0,1];
		// other mismatched lengths fail in NewAxis.
		switch {
		case len(rot) == len(sites):
			rot = resampleRot(rot, sites, opt.Sections)
		case len(rot) == 2:
			rot = resampleRot(rot, []float64{0, 1}, opt.Sections)
		}
	}
	axis, err := NewAxis(name, anchors, rot)
	if err != nil {
		return nil, err
	}
	if opt.Spacing != nil {
		if err := axis.SetSpacing(opt.Spacing); err != nil {
			return nil, err
		}
	}

	inPatch := func(p int) bool {
		if len(opt.Patches) == 0 {
			return true
		}
		for _, q := range opt.Patches {
			if q == p {
				return true
			}
		}
		return false
	}
	var links []Link
	for n := range m.Idx.Entries {
		master := m.Idx.Entries[n].Master()
		if !inPatch(master.Patch) {
			continue
		}
		if opt.Region != nil && !opt.Region.Contains(m.coef0[n]) {
			continue
		}
		if m.attached[n] {
			return nil, fmt.Errorf("axis %q: DOF %d already attached", name, n)
		}
		s, d := axis.ProjectPoint(m.coef0[n])
		links = append(links, Link{Coef: n, S: s, D: d})
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("axis %q: no control points selected", name)
	}

	for _, l := range links {
		m.attached[l.Coef] = true
	}
	m.axes = append(m.axes, axis)
	m.axisFor[name] = axis
	m.links = append(m.links, links)
	return axis, nil
}

// resampleRot interpolates per-section rotation triples, given at the
// sites of the original anchors, onto the uniform grid the resampled
// anchors occupy.
func resampleRot(rot [][3]float64, sites []float64, n int) [][3]float64 {
	out := make([][3]float64, n)
	seg := 0
	for r := range out {
		u := float64(r) / float64(n-1)
		for seg < len(sites)-2 && u >= sites[seg+1] {
			seg++
		}
		w := (u - sites[seg]) / (sites[seg+1] - sites[seg])
		for k := 0; k < 3; k++ {
			out[r][k] = (1-w)*rot[seg][k] + w*rot[seg+1][k]
		}
	}
	return out
}

// ChainAxes slaves child to parent. With ConFull the child must have
// exactly two sections; both anchors then ride the parent's deformation.
// ConNone records the relation without constraining the child.
func (m *Model) ChainAxes(parent, child string, con ConType) error {
	p, ok := m.axisFor[parent]
	if !ok {
		return fmt.Errorf("model: unknown parent axis %q", parent)
	}
	c, ok := m.axisFor[child]
	if !ok {
		return fmt.Errorf("model: unknown child axis %q", child)
	}
	if c.parent != nil {
		return fmt.Errorf("model: axis %q already chained to %q", child, c.parent.Name)
	}
	if con == ConFull && c.NumSections() != 2 {
		return fmt.Errorf("model: full chaining needs a 2-section child, %q has %d", child, c.NumSections())
	}
	c.parent = p
	c.conType = con
	if con == ConFull {
		c.chainS = make([]float64, 2)
		c.chainD = make([]r3.Vec, 2)
		for k := 0; k < 2; k++ {
			c.chainS[k], c.chainD[k] = p.ProjectPoint(c.base0[k])
		}
		m.chains = append(m.chains, chainRec{child: c})
	}
	return nil
}

// AddGlobalVar registers a design variable driving the axes through fn.
// Duplicate names are rejected unless force replaces the old variable.
func (m *Model) AddGlobalVar(name string, value, lower, upper []float64, fn Updater, force bool) error {
	v, err := newGlobalVar(name, value, lower, upper, fn)
	if err != nil {
		return err
	}
	if m.names[name] {
		if !force {
			return fmt.Errorf("model: design variable %q already exists", name)
		}
		m.removeVar(name)
	}
	m.names[name] = true
	m.globals = append(m.globals, v)
	return nil
}

// AddLocalVar registers a shape variable displacing the selected master
// control points of one patch along their surface normals, one value per
// point. The displacement direction is fixed at registration: normals
// are evaluated on the surface as it stands when AddLocalVar is called
// and do not follow later deformation, which keeps Update idempotent and
// the variable's Jacobian columns constant. Region nil selects the whole
// patch.
func (m *Model) AddLocalVar(name string, patch int, region *Region, lower, upper float64, force bool) (*LocalVar, error) {
	if err := m.ensureIndex(); err != nil {
		return nil, err
	}
	if patch < 0 || patch >= len(m.Surfs) {
		return nil, fmt.Errorf("model: patch %d out of range", patch)
	}
	if m.names[name] && !force {
		return nil, fmt.Errorf("model: design variable %q already exists", name)
	}

	v := &LocalVar{Name: name, Patch: patch, Lower: lower, Upper: upper}
	nu, nv := m.Surfs[patch].NumCtl()
	for i := 0; i < nu; i++ {
		for j := 0; j < nv; j++ {
			n := m.Idx.Index[patch][i][j]
			if m.Idx.Entries[n].Master() != (topology.CtlRef{Patch: patch, I: i, J: j}) {
				continue
			}
			if region != nil && !region.Contains(m.coef0[n]) {
				continue
			}
			v.CoefList = append(v.CoefList, n)
			v.GridIndex = append(v.GridIndex, [2]int{i, j})
			v.normals = append(v.normals, m.Surfs[patch].CtlNormal(i, j))
		}
	}
	if len(v.CoefList) == 0 {
		return nil, fmt.Errorf("model: local variable %q selects no control points", name)
	}
	v.Value = make([]float64, len(v.CoefList))

	if m.names[name] {
		m.removeVar(name)
	}
	m.names[name] = true
	m.locals = append(m.locals, v)
	return v, nil
}

func (m *Model) removeVar(name string) {
	for i, v := range m.globals {
		if v.Name == name {
			m.globals = append(m.globals[:i], m.globals[i+1:]...)
			return
		}
	}
	for i, v := range m.locals {
		if v.Name == name {
			m.locals = append(m.locals[:i], m.locals[i+1:]...)
			return
		}
	}
}

// GlobalVarByName returns the registered global variable, if any.
func (m *Model) GlobalVarByName(name string) (*GlobalVar, bool) {
	for _, v := range m.globals {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Links returns the attachments of the named axis.
func (m *Model) Links(axis string) ([]Link, error) {
	for i, a := range m.axes {
		if a.Name == axis {
			return append([]Link(nil), m.links[i]...), nil
		}
	}
	return nil, fmt.Errorf("model: unknown axis %q", axis)
}

// NumVarComponents returns the total number of scalar design variable
// components, globals first.
func (m *Model) NumVarComponents() int {
	n := 0
	for _, v := range m.globals {
		n += len(v.Value)
	}
	for _, v := range m.locals {
		n += len(v.Value)
	}
	return n
}
