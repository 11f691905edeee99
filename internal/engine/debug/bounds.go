// Package debug draws bounding volumes for the overlay pass.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/batch"
	"github.com/Faultbox/midgard-render/internal/engine/volume"
)

// DefaultPadding grows overlay boxes slightly so they do not z-fight with
// the geometry they enclose.
const DefaultPadding = 0.01

// Pad expands a box by padding on every side.
func Pad(b volume.AABB, padding float32) volume.AABB {
	p := mgl32.Vec3{padding, padding, padding}
	return volume.NewAABBFromMinMax(b.Min().Sub(p), b.Max().Add(p))
}

// BoxFaces returns the six faces of a box, four corners each, wound
// counter-clockwise when seen from outside.
func BoxFaces(b volume.AABB) [6][4]mgl32.Vec3 {
	mn, mx := b.Min(), b.Max()
	v := func(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }
	return [6][4]mgl32.Vec3{
		// Bottom
		{v(mn[0], mn[1], mn[2]), v(mx[0], mn[1], mn[2]), v(mx[0], mn[1], mx[2]), v(mn[0], mn[1], mx[2])},
		// Top
		{v(mn[0], mx[1], mn[2]), v(mn[0], mx[1], mx[2]), v(mx[0], mx[1], mx[2]), v(mx[0], mx[1], mn[2])},
		// Front (+z)
		{v(mn[0], mn[1], mx[2]), v(mx[0], mn[1], mx[2]), v(mx[0], mx[1], mx[2]), v(mn[0], mx[1], mx[2])},
		// Back (-z)
		{v(mx[0], mn[1], mn[2]), v(mn[0], mn[1], mn[2]), v(mn[0], mx[1], mn[2]), v(mx[0], mx[1], mn[2])},
		// Left
		{v(mn[0], mn[1], mn[2]), v(mn[0], mn[1], mx[2]), v(mn[0], mx[1], mx[2]), v(mn[0], mx[1], mn[2])},
		// Right
		{v(mx[0], mn[1], mx[2]), v(mx[0], mn[1], mn[2]), v(mx[0], mx[1], mn[2]), v(mx[0], mx[1], mx[2])},
	}
}

// DrawVolume queues the faces of v's bounding box as triangles. Spheres are
// drawn as the box that encloses them. Drawn with wireframe fill, only the
// edges and one diagonal per face show.
func DrawVolume(r *batch.Renderer, v volume.Volume, color mgl32.Vec4) {
	var box volume.AABB
	switch b := v.(type) {
	case volume.AABB:
		box = b
	case volume.Sphere:
		box = b.Bounds()
	default:
		return
	}
	for _, f := range BoxFaces(Pad(box, DefaultPadding)) {
		r.DrawTri([3]mgl32.Vec3{f[0], f[1], f[2]}, color, 0)
		r.DrawTri([3]mgl32.Vec3{f[2], f[3], f[0]}, color, 0)
	}
}
