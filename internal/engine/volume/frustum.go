package volume

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// epsilon is the threshold below which a plane normal or a determinant is
// treated as zero.
const epsilon = 1e-6

// Classification is the result of testing a volume against a frustum.
type Classification int

const (
	Outside Classification = iota
	Intersecting
	Inside
)

func (c Classification) String() string {
	switch c {
	case Outside:
		return "outside"
	case Intersecting:
		return "intersecting"
	case Inside:
		return "inside"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// Plane is the half-space n·p + d >= 0.
type Plane struct {
	Normal mgl32.Vec3
	Offset float32
}

// Distance returns the signed distance from p to the plane. It is a true
// distance only when the plane is normalized.
func (p Plane) Distance(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.Offset
}

// Normalize scales the plane so its normal has unit length. A plane whose
// normal is shorter than epsilon is returned unchanged and must be treated as
// undefined by callers.
func (p Plane) Normalize() Plane {
	l := p.Normal.Len()
	if l < epsilon {
		return p
	}
	inv := 1 / l
	return Plane{Normal: p.Normal.Mul(inv), Offset: p.Offset * inv}
}

// Frustum plane indices.
const (
	Left = iota
	Right
	Bottom
	Top
	Near
	Far
)

// Frustum holds six inward-facing planes: Left, Right, Bottom, Top, Near, Far.
type Frustum struct {
	Planes [6]Plane
}

// ExtractFrustum builds a world-space frustum from a projection matrix and the
// camera's world transform (the inverse of the view matrix). The inverse view
// is expected to be rigid, as camera transforms are.
func ExtractFrustum(projection, viewInverse mgl32.Mat4) Frustum {
	f := extractPlanes(projection)
	for i := range f.Planes {
		f.Planes[i] = transformPlane(f.Planes[i], viewInverse).Normalize()
	}
	return f
}

// ExtractFrustumFromMatrix builds a frustum directly from a combined
// projection*view matrix. Planes are in whatever space the matrix maps from.
func ExtractFrustumFromMatrix(viewProjection mgl32.Mat4) Frustum {
	f := extractPlanes(viewProjection)
	for i := range f.Planes {
		f.Planes[i] = f.Planes[i].Normalize()
	}
	return f
}

// extractPlanes applies Gribb/Hartmann to the rows of m without normalizing.
func extractPlanes(m mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	plane := func(v mgl32.Vec4) Plane {
		return Plane{Normal: v.Vec3(), Offset: v[3]}
	}

	var f Frustum
	f.Planes[Left] = plane(r3.Add(r0))
	f.Planes[Right] = plane(r3.Sub(r0))
	f.Planes[Bottom] = plane(r3.Add(r1))
	f.Planes[Top] = plane(r3.Sub(r1))
	f.Planes[Near] = plane(r3.Add(r2))
	f.Planes[Far] = plane(r3.Sub(r2))
	return f
}

// transformPlane moves a plane by a rigid transform: the normal is rotated and
// the offset recomputed from a transformed point on the plane.
func transformPlane(p Plane, m mgl32.Mat4) Plane {
	lenSq := p.Normal.Dot(p.Normal)
	if lenSq < epsilon*epsilon {
		return p
	}
	onPlane := p.Normal.Mul(-p.Offset / lenSq)
	normal := m.Mul4x1(p.Normal.Vec4(0)).Vec3()
	point := mgl32.TransformCoordinate(onPlane, m)
	return Plane{Normal: normal, Offset: -normal.Dot(point)}
}

// Classify reports whether v is outside, straddling or inside f.
func Classify(v Volume, f *Frustum) Classification {
	return v.Classify(f)
}

// ContainsPoint reports whether p is on the inner side of all six planes.
func (f *Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// ThreePlaneIntersection returns the point shared by three planes. When the
// planes are parallel or otherwise degenerate it returns the zero vector, which
// callers must treat as "no intersection" rather than the origin.
func ThreePlaneIntersection(p1, p2, p3 Plane) mgl32.Vec3 {
	pt, _ := intersect3(p1, p2, p3)
	return pt
}

func intersect3(p1, p2, p3 Plane) (mgl32.Vec3, bool) {
	c23 := p2.Normal.Cross(p3.Normal)
	det := p1.Normal.Dot(c23)
	if det > -epsilon && det < epsilon {
		return mgl32.Vec3{}, false
	}
	c31 := p3.Normal.Cross(p1.Normal)
	c12 := p1.Normal.Cross(p2.Normal)

	sum := c23.Mul(-p1.Offset).Add(c31.Mul(-p2.Offset)).Add(c12.Mul(-p3.Offset))
	return sum.Mul(1 / det), true
}

// Corners returns the eight frustum corners, near plane first, each face
// ordered bottom-left, bottom-right, top-right, top-left. ok is false when
// any three planes fail to meet in a point.
func (f *Frustum) Corners() (corners [8]mgl32.Vec3, ok bool) {
	order := [4][2]int{{Left, Bottom}, {Right, Bottom}, {Right, Top}, {Left, Top}}
	for face, depth := range []int{Near, Far} {
		for i, sides := range order {
			pt, hit := intersect3(f.Planes[sides[0]], f.Planes[sides[1]], f.Planes[depth])
			if !hit {
				return corners, false
			}
			corners[face*4+i] = pt
		}
	}
	return corners, true
}
