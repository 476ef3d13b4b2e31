package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aeroshape/parageo/bspline"
)

// Region is a bilinear quad used to pick out control points: a point
// belongs to the region when its closest-point projection lands strictly
// inside the quad. Offset normal to the quad is ignored, so a region
// selects an infinite prism.
type Region struct {
	surf *bspline.Surface
}

// RegionQuad builds a region from four corners given counterclockwise.
func RegionQuad(p1, p2, p3, p4 r3.Vec) (*Region, error) {
	// Corner order of the control net is (u,v) tensor order, so the
	// third and fourth corners swap.
	s, err := bspline.NewUniformSurface([][]r3.Vec{{p1, p4}, {p2, p3}}, 2, 2)
	if err != nil {
		return nil, fmt.Errorf("region: %v", err)
	}
	return &Region{surf: s}, nil
}

// RegionX spans the y and z extents of the two points at x = p1.X.
func RegionX(p1, p2 r3.Vec) (*Region, error) {
	return RegionQuad(
		r3.Vec{X: p1.X, Y: p1.Y, Z: p1.Z},
		r3.Vec{X: p1.X, Y: p2.Y, Z: p1.Z},
		r3.Vec{X: p1.X, Y: p2.Y, Z: p2.Z},
		r3.Vec{X: p1.X, Y: p1.Y, Z: p2.Z},
	)
}

// RegionY spans the x and z extents of the two points at y = p1.Y.
func RegionY(p1, p2 r3.Vec) (*Region, error) {
	return RegionQuad(
		r3.Vec{X: p1.X, Y: p1.Y, Z: p1.Z},
		r3.Vec{X: p2.X, Y: p1.Y, Z: p1.Z},
		r3.Vec{X: p2.X, Y: p1.Y, Z: p2.Z},
		r3.Vec{X: p1.X, Y: p1.Y, Z: p2.Z},
	)
}

// RegionZ spans the x and y extents of the two points at z = p1.Z.
func RegionZ(p1, p2 r3.Vec) (*Region, error) {
	return RegionQuad(
		r3.Vec{X: p1.X, Y: p1.Y, Z: p1.Z},
		r3.Vec{X: p2.X, Y: p1.Y, Z: p1.Z},
		r3.Vec{X: p2.X, Y: p2.Y, Z: p1.Z},
		r3.Vec{X: p1.X, Y: p2.Y, Z: p1.Z},
	)
}

// Contains reports whether p projects strictly inside the quad. Points
// whose projection clamps to the quad boundary are outside.
func (r *Region) Contains(p r3.Vec) bool {
	u, v, _, ok := r.surf.ProjectPoint(p)
	if !ok {
		return false
	}
	return u > 0 && u < 1 && v > 0 && v < 1
}
