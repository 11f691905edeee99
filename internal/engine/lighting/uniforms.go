package lighting

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// Uniforms is one batch of lights laid out as flat per-type arrays, ready for
// upload to the light shader.
type Uniforms struct {
	capacity int

	Points        int
	PointPosition []mgl32.Vec3
	PointColor    []mgl32.Vec3
	PointFalloff  []mgl32.Vec3

	Spots         int
	SpotPosition  []mgl32.Vec3
	SpotDirection []mgl32.Vec3
	SpotColor     []mgl32.Vec3
	SpotFalloff   []mgl32.Vec3
	SpotCosInner  []float32
	SpotCosOuter  []float32

	Directionals int
	DirDirection []mgl32.Vec3
	DirColor     []mgl32.Vec3

	// Ambient is the scalar ambient term applied with this batch.
	Ambient float32
}

// NewUniforms allocates arrays for capacity lights of each type.
func NewUniforms(capacity int) *Uniforms {
	return &Uniforms{
		capacity:      capacity,
		PointPosition: make([]mgl32.Vec3, capacity),
		PointColor:    make([]mgl32.Vec3, capacity),
		PointFalloff:  make([]mgl32.Vec3, capacity),
		SpotPosition:  make([]mgl32.Vec3, capacity),
		SpotDirection: make([]mgl32.Vec3, capacity),
		SpotColor:     make([]mgl32.Vec3, capacity),
		SpotFalloff:   make([]mgl32.Vec3, capacity),
		SpotCosInner:  make([]float32, capacity),
		SpotCosOuter:  make([]float32, capacity),
		DirDirection:  make([]mgl32.Vec3, capacity),
		DirColor:      make([]mgl32.Vec3, capacity),
	}
}

// Capacity returns the per-type array size.
func (u *Uniforms) Capacity() int { return u.capacity }

// Reset empties the batch without freeing the arrays.
func (u *Uniforms) Reset() {
	u.Points, u.Spots, u.Directionals = 0, 0, 0
	u.Ambient = 0
}

// Full reports whether any type has reached capacity.
func (u *Uniforms) Full() bool {
	return u.Points >= u.capacity || u.Spots >= u.capacity || u.Directionals >= u.capacity
}

// Len returns the number of lights in the batch.
func (u *Uniforms) Len() int { return u.Points + u.Spots + u.Directionals }

// add writes l into the next slot of its type. Ambient lights are not batched.
func (u *Uniforms) add(l Light) {
	switch l.Kind {
	case Point:
		i := u.Points
		u.PointPosition[i] = l.Position
		u.PointColor[i] = l.Radiance()
		u.PointFalloff[i] = l.Falloff.vec()
		u.Points++
	case Spot:
		i := u.Spots
		u.SpotPosition[i] = l.Position
		u.SpotDirection[i] = l.Direction
		u.SpotColor[i] = l.Radiance()
		u.SpotFalloff[i] = l.Falloff.vec()
		u.SpotCosInner[i] = float32(math.Cos(float64(l.InnerCone)))
		u.SpotCosOuter[i] = float32(math.Cos(float64(l.OuterCone)))
		u.Spots++
	case Directional:
		i := u.Directionals
		u.DirDirection[i] = l.Direction
		u.DirColor[i] = l.Radiance()
		u.Directionals++
	default:
		panic(fmt.Sprintf("lighting: cannot batch %s light", l.Kind))
	}
}

// Apply uploads the batch to p. Only filled slots are sent.
func (u *Uniforms) Apply(p gpu.Program) {
	p.SetFloat("u_ambient", u.Ambient)

	p.SetInt("u_pointCount", int32(u.Points))
	p.SetVec3Array("u_pointPosition", u.PointPosition[:u.Points])
	p.SetVec3Array("u_pointColor", u.PointColor[:u.Points])
	p.SetVec3Array("u_pointFalloff", u.PointFalloff[:u.Points])

	p.SetInt("u_spotCount", int32(u.Spots))
	p.SetVec3Array("u_spotPosition", u.SpotPosition[:u.Spots])
	p.SetVec3Array("u_spotDirection", u.SpotDirection[:u.Spots])
	p.SetVec3Array("u_spotColor", u.SpotColor[:u.Spots])
	p.SetVec3Array("u_spotFalloff", u.SpotFalloff[:u.Spots])
	p.SetFloatArray("u_spotCosInner", u.SpotCosInner[:u.Spots])
	p.SetFloatArray("u_spotCosOuter", u.SpotCosOuter[:u.Spots])

	p.SetInt("u_dirCount", int32(u.Directionals))
	p.SetVec3Array("u_dirDirection", u.DirDirection[:u.Directionals])
	p.SetVec3Array("u_dirColor", u.DirColor[:u.Directionals])
}
