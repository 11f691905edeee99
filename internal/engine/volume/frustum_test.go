package volume

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-4

// perspective is a 90 degree camera at the origin looking down -Z.
func perspective() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 100)
}

func TestExtractFrustumIdentityRoundTrip(t *testing.T) {
	f := ExtractFrustum(mgl32.Ident4(), mgl32.Ident4())

	for i, p := range f.Planes {
		assert.InDelta(t, 1, p.Normal.Len(), tol, "plane %d normal length", i)
	}

	pt := ThreePlaneIntersection(f.Planes[Left], f.Planes[Bottom], f.Planes[Near])
	assert.NotEqual(t, mgl32.Vec3{}, pt)
	assert.True(t, pt.ApproxEqualThreshold(mgl32.Vec3{-1, -1, -1}, tol), "got %v", pt)

	pt = ThreePlaneIntersection(f.Planes[Right], f.Planes[Top], f.Planes[Far])
	assert.True(t, pt.ApproxEqualThreshold(mgl32.Vec3{1, 1, 1}, tol), "got %v", pt)
}

func TestExtractFrustumMatchesCombinedMatrix(t *testing.T) {
	proj := perspective()
	camWorld := mgl32.Translate3D(3, -2, 10).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(30)))
	view := camWorld.Inv()

	a := ExtractFrustum(proj, camWorld)
	b := ExtractFrustumFromMatrix(proj.Mul4(view))

	for i := range a.Planes {
		assert.True(t, a.Planes[i].Normal.ApproxEqualThreshold(b.Planes[i].Normal, 1e-3),
			"plane %d normal %v vs %v", i, a.Planes[i].Normal, b.Planes[i].Normal)
		assert.InDelta(t, b.Planes[i].Offset, a.Planes[i].Offset, 1e-2, "plane %d offset", i)
	}
}

func TestExtractFrustumTranslatedCamera(t *testing.T) {
	f := ExtractFrustum(perspective(), mgl32.Translate3D(0, 0, 10))

	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, 0}), "origin is 10 units ahead")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 20}), "behind the camera")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, -200}), "past the far plane")
}

func TestPlaneNormalizeDegenerate(t *testing.T) {
	p := Plane{Normal: mgl32.Vec3{0, 0, 0}, Offset: 2}
	assert.Equal(t, p, p.Normalize(), "zero-length normal is left as the sentinel")

	q := Plane{Normal: mgl32.Vec3{0, 3, 0}, Offset: 6}.Normalize()
	assert.True(t, q.Normal.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, tol))
	assert.InDelta(t, 2, q.Offset, tol)
}

func TestThreePlaneIntersectionParallel(t *testing.T) {
	p1 := Plane{Normal: mgl32.Vec3{1, 0, 0}, Offset: 1}
	p2 := Plane{Normal: mgl32.Vec3{1, 0, 0}, Offset: -1}
	p3 := Plane{Normal: mgl32.Vec3{0, 1, 0}, Offset: 0}

	assert.Equal(t, mgl32.Vec3{}, ThreePlaneIntersection(p1, p2, p3))
}

func TestFrustumCorners(t *testing.T) {
	f := ExtractFrustum(mgl32.Ident4(), mgl32.Ident4())
	corners, ok := f.Corners()
	require.True(t, ok)

	for _, c := range corners {
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, 1, abs(c[axis]), tol, "corner %v", c)
		}
	}
	assert.True(t, corners[0].ApproxEqualThreshold(mgl32.Vec3{-1, -1, -1}, tol))
	assert.True(t, corners[6].ApproxEqualThreshold(mgl32.Vec3{1, 1, 1}, tol))
}

func TestFrustumCornersDegenerate(t *testing.T) {
	var f Frustum // all-zero planes
	_, ok := f.Corners()
	assert.False(t, ok)
}

func TestClassifyAABB(t *testing.T) {
	f := ExtractFrustum(perspective(), mgl32.Ident4())

	tests := []struct {
		name string
		box  AABB
		want Classification
	}{
		{"fully inside", NewAABB(mgl32.Vec3{-1, -1, -12}, mgl32.Vec3{2, 2, 2}), Inside},
		{"behind camera", NewAABB(mgl32.Vec3{-1, -1, 5}, mgl32.Vec3{2, 2, 2}), Outside},
		{"past far plane", NewAABB(mgl32.Vec3{-1, -1, -300}, mgl32.Vec3{2, 2, 2}), Outside},
		{"straddles near plane", NewAABB(mgl32.Vec3{-0.5, -0.5, -2}, mgl32.Vec3{1, 1, 2}), Intersecting},
		{"straddles left plane", NewAABB(mgl32.Vec3{-12, -1, -11}, mgl32.Vec3{4, 2, 2}), Intersecting},
		{"far to the right", NewAABB(mgl32.Vec3{50, -1, -11}, mgl32.Vec3{2, 2, 2}), Outside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.box, &f))
		})
	}
}

func TestClassifySphere(t *testing.T) {
	f := ExtractFrustum(perspective(), mgl32.Ident4())

	assert.Equal(t, Inside, Classify(NewSphere(mgl32.Vec3{0, 0, -20}, 1), &f))
	assert.Equal(t, Intersecting, Classify(NewSphere(mgl32.Vec3{0, 0, -1}, 0.5), &f))
	assert.Equal(t, Outside, Classify(NewSphere(mgl32.Vec3{0, 0, 10}, 2), &f))
}

func TestClassifyFarOutside(t *testing.T) {
	f := ExtractFrustum(perspective(), mgl32.Ident4())
	maxExtent := float32(100) // far plane distance

	box := NewAABB(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{2, 2, 2})
	radius := box.Extents.Len() / 2
	offset := mgl32.Vec3{0, 0, radius + maxExtent + 1}
	moved := box.Transform(mgl32.Translate3D(offset[0], offset[1], offset[2]))

	assert.Equal(t, Outside, Classify(moved, &f))
}

func TestClassifyOnPlaneCountsInside(t *testing.T) {
	f := ExtractFrustum(mgl32.Ident4(), mgl32.Ident4())
	// The box exactly fills the unit cube; every support vertex lies on a plane.
	box := NewAABBFromMinMax(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	assert.Equal(t, Inside, Classify(box, &f))
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "outside", Outside.String())
	assert.Equal(t, "intersecting", Intersecting.String())
	assert.Equal(t, "inside", Inside.String())
	assert.Equal(t, "Classification(7)", Classification(7).String())
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
