// Package volume provides bounding volumes, view frustums and half-space
// classification used for visibility culling.
package volume

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Volume is a bounding shape that can be tested against a frustum.
// The set of implementations is closed: AABB and Sphere.
type Volume interface {
	// Classify reports where the volume lies relative to the frustum.
	Classify(f *Frustum) Classification
	// Transform returns the volume moved into the space described by m.
	Transform(m mgl32.Mat4) Volume
	// Center returns the volume's center point.
	Center() mgl32.Vec3

	sealed()
}

// AABB is an axis-aligned bounding box stored as a minimum corner and a size.
type AABB struct {
	Corner  mgl32.Vec3
	Extents mgl32.Vec3
}

// NewAABB creates a box from a corner and non-negative extents.
// Negative extents are folded so Corner is always the minimum.
func NewAABB(corner, extents mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if extents[i] < 0 {
			corner[i] += extents[i]
			extents[i] = -extents[i]
		}
	}
	return AABB{Corner: corner, Extents: extents}
}

// NewAABBFromMinMax creates a box from two opposite corners in any order.
func NewAABBFromMinMax(a, b mgl32.Vec3) AABB {
	return NewAABB(a, b.Sub(a))
}

// Min returns the minimum corner.
func (b AABB) Min() mgl32.Vec3 { return b.Corner }

// Max returns the maximum corner.
func (b AABB) Max() mgl32.Vec3 { return b.Corner.Add(b.Extents) }

// Center returns the box center.
func (b AABB) Center() mgl32.Vec3 { return b.Corner.Add(b.Extents.Mul(0.5)) }

// Corners returns the 8 box corners. Bit 0 selects X max, bit 1 Y max, bit 2 Z max.
func (b AABB) Corners() [8]mgl32.Vec3 {
	mn, mx := b.Min(), b.Max()
	var out [8]mgl32.Vec3
	for i := range out {
		out[i] = mgl32.Vec3{mn[0], mn[1], mn[2]}
		if i&1 != 0 {
			out[i][0] = mx[0]
		}
		if i&2 != 0 {
			out[i][1] = mx[1]
		}
		if i&4 != 0 {
			out[i][2] = mx[2]
		}
	}
	return out
}

// Transform re-fits the box around its 8 transformed corners.
func (b AABB) Transform(m mgl32.Mat4) Volume {
	corners := b.Corners()
	first := mgl32.TransformCoordinate(corners[0], m)
	mn, mx := first, first
	for _, c := range corners[1:] {
		p := mgl32.TransformCoordinate(c, m)
		for i := 0; i < 3; i++ {
			if p[i] < mn[i] {
				mn[i] = p[i]
			}
			if p[i] > mx[i] {
				mx[i] = p[i]
			}
		}
	}
	return AABB{Corner: mn, Extents: mx.Sub(mn)}
}

// Classify tests the box against every frustum plane using the positive and
// negative support vertices.
func (b AABB) Classify(f *Frustum) Classification {
	result := Inside
	mn, mx := b.Min(), b.Max()
	for i := range f.Planes {
		p := &f.Planes[i]

		// Positive vertex: corner furthest along the normal; negative vertex: the opposite one.
		pos, neg := mn, mx
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] >= 0 {
				pos[axis] = mx[axis]
				neg[axis] = mn[axis]
			}
		}

		if p.Distance(pos) < 0 {
			return Outside
		}
		if p.Distance(neg) < 0 {
			result = Intersecting
		}
	}
	return result
}

func (AABB) sealed() {}

// Sphere is a bounding sphere.
type Sphere struct {
	Origin mgl32.Vec3
	Radius float32
}

// NewSphere creates a sphere. Negative radii are made positive.
func NewSphere(center mgl32.Vec3, radius float32) Sphere {
	if radius < 0 {
		radius = -radius
	}
	return Sphere{Origin: center, Radius: radius}
}

// Center returns the sphere center.
func (s Sphere) Center() mgl32.Vec3 { return s.Origin }

// Transform moves the center and scales the radius by the largest axis scale of m.
func (s Sphere) Transform(m mgl32.Mat4) Volume {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	scale := sx
	if sy > scale {
		scale = sy
	}
	if sz > scale {
		scale = sz
	}
	return Sphere{Origin: mgl32.TransformCoordinate(s.Origin, m), Radius: s.Radius * scale}
}

// Classify compares the signed center distance to each plane against the radius.
func (s Sphere) Classify(f *Frustum) Classification {
	result := Inside
	for i := range f.Planes {
		d := f.Planes[i].Distance(s.Origin)
		if d < -s.Radius {
			return Outside
		}
		if d < s.Radius {
			result = Intersecting
		}
	}
	return result
}

// Bounds returns the box enclosing the sphere.
func (s Sphere) Bounds() AABB {
	r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Corner: s.Origin.Sub(r), Extents: r.Mul(2)}
}

func (Sphere) sealed() {}
