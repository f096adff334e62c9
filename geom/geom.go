/*package geom provides the small set of geometric primitives used to
select regions of a simulation box. All coordinates are in code units,
meaning positions live in [0, boxlen] along each axis.
*/
package geom

import (
	"math"
)

// Vec is a point in the simulation box.
type Vec [3]float64

// Selector is a geometric predicate over points in the box. Bounds
// returns an axis-aligned box containing every point the selector
// accepts, which readers use to skip data before the exact test runs.
type Selector interface {
	Contains(v *Vec) bool
	Bounds() Box
}

// Box is an axis-aligned box. Both bounds are inclusive: a point lying
// exactly on a face is inside.
type Box struct {
	Min, Max Vec
}

// NewBox returns the box spanning [xMin, xMax] x [yMin, yMax] x
// [zMin, zMax].
func NewBox(xMin, xMax, yMin, yMax, zMin, zMax float64) Box {
	return Box{Vec{xMin, yMin, zMin}, Vec{xMax, yMax, zMax}}
}

func (b Box) Contains(v *Vec) bool {
	for i := 0; i < 3; i++ {
		if v[i] < b.Min[i] || v[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b Box) Bounds() Box { return b }

// Intersects returns true if the two boxes share at least one point.
func (b Box) Intersects(o Box) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Sphere selects points within (or exactly on) a given radius of a
// center point.
type Sphere struct {
	Center Vec
	Radius float64
}

func (s Sphere) Contains(v *Vec) bool {
	dr2 := 0.0
	for i := 0; i < 3; i++ {
		d := v[i] - s.Center[i]
		dr2 += d * d
	}
	return dr2 <= s.Radius*s.Radius
}

func (s Sphere) Bounds() Box {
	b := Box{}
	for i := 0; i < 3; i++ {
		b.Min[i] = s.Center[i] - s.Radius
		b.Max[i] = s.Center[i] + s.Radius
	}
	return b
}

// Cylinder selects points within a cylinder of a given radius and
// height whose symmetry axis points along the Axis dimension. Height is
// the full height, so points within Height/2 of the center plane are
// inside.
type Cylinder struct {
	Center         Vec
	Radius, Height float64
	Axis           int
}

func (c Cylinder) Contains(v *Vec) bool {
	if math.Abs(v[c.Axis]-c.Center[c.Axis]) > c.Height/2 {
		return false
	}
	dr2 := 0.0
	for i := 0; i < 3; i++ {
		if i == c.Axis {
			continue
		}
		d := v[i] - c.Center[i]
		dr2 += d * d
	}
	return dr2 <= c.Radius*c.Radius
}

func (c Cylinder) Bounds() Box {
	b := Box{}
	for i := 0; i < 3; i++ {
		if i == c.Axis {
			b.Min[i] = c.Center[i] - c.Height/2
			b.Max[i] = c.Center[i] + c.Height/2
		} else {
			b.Min[i] = c.Center[i] - c.Radius
			b.Max[i] = c.Center[i] + c.Radius
		}
	}
	return b
}
