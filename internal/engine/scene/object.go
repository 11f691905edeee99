// Package scene defines what the render core draws: tagged scene objects,
// the camera and provider contracts, and per-kind renderers dispatched
// through a fixed table.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/batch"
	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/lighting"
	"github.com/Faultbox/midgard-render/internal/engine/volume"
)

// Kind tags which payload an Object carries.
type Kind int

const (
	Sprite Kind = iota
	Mesh
	Particles

	kindCount
)

// Kinds lists every object kind in dispatch order.
var Kinds = [kindCount]Kind{Sprite, Mesh, Particles}

func (k Kind) String() string {
	switch k {
	case Sprite:
		return "sprite"
	case Mesh:
		return "mesh"
	case Particles:
		return "particles"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SpriteData is a textured quad. Billboards face the camera and are anchored
// at their bottom edge.
type SpriteData struct {
	Texture   gpu.Texture // nil draws the tint as a solid color
	Size      mgl32.Vec2
	Tint      mgl32.Vec4
	UV        batch.UVRect
	Billboard bool
}

// MeshData is indexed triangle geometry.
type MeshData struct {
	VertexArray gpu.VertexArray
	IndexCount  int32
	Texture     gpu.Texture
	Color       mgl32.Vec4
}

// Particle is one billboard in a particle system, relative to the object.
type Particle struct {
	Offset mgl32.Vec3
	Size   float32
	Color  mgl32.Vec4
}

// ParticleData is a set of camera-facing particles sharing one texture.
type ParticleData struct {
	Texture   gpu.Texture
	Particles []Particle
}

// Object is one renderable. Exactly one payload matching Kind is set.
type Object struct {
	ID        int32
	Kind      Kind
	Transform mgl32.Mat4
	Blend     gpu.BlendMode
	// Bounds is in object space. Objects without bounds are never culled.
	Bounds volume.Volume
	// Visible is written by frustum culling each frame.
	Visible bool

	Sprite    *SpriteData
	Mesh      *MeshData
	Particles *ParticleData
}

// NewSprite creates a sprite object at transform.
func NewSprite(id int32, transform mgl32.Mat4, data SpriteData) *Object {
	if data.UV == (batch.UVRect{}) {
		data.UV = batch.FullUV
	}
	half := data.Size.Mul(0.5)
	return &Object{
		ID:        id,
		Kind:      Sprite,
		Transform: transform,
		Blend:     gpu.Blend,
		Bounds:    volume.NewSphere(mgl32.Vec3{0, half[1], 0}, half.Len()),
		Visible:   true,
		Sprite:    &data,
	}
}

// NewMesh creates a mesh object with the given object-space bounds.
func NewMesh(id int32, transform mgl32.Mat4, bounds volume.Volume, data MeshData) *Object {
	return &Object{
		ID:        id,
		Kind:      Mesh,
		Transform: transform,
		Blend:     gpu.Opaque,
		Bounds:    bounds,
		Visible:   true,
		Mesh:      &data,
	}
}

// NewParticles creates a particle system. Bounds enclose every particle.
func NewParticles(id int32, transform mgl32.Mat4, data ParticleData) *Object {
	o := &Object{
		ID:        id,
		Kind:      Particles,
		Transform: transform,
		Blend:     gpu.Add,
		Visible:   true,
		Particles: &data,
	}
	if len(data.Particles) > 0 {
		mn := data.Particles[0].Offset
		mx := mn
		for _, p := range data.Particles {
			r := mgl32.Vec3{p.Size, p.Size, p.Size}.Mul(0.5)
			for i := 0; i < 3; i++ {
				mn[i] = min(mn[i], p.Offset[i]-r[i])
				mx[i] = max(mx[i], p.Offset[i]+r[i])
			}
		}
		o.Bounds = volume.NewAABBFromMinMax(mn, mx)
	}
	return o
}

// Position returns the object origin in world space.
func (o *Object) Position() mgl32.Vec3 {
	return o.Transform.Col(3).Vec3()
}

// WorldBounds returns Bounds moved by Transform, or nil.
func (o *Object) WorldBounds() volume.Volume {
	if o.Bounds == nil {
		return nil
	}
	return o.Bounds.Transform(o.Transform)
}

// Transparent reports whether the object draws in the back-to-front pass.
func (o *Object) Transparent() bool { return o.Blend.Transparent() }

// Camera supplies the matrices and frustum for one frame.
type Camera interface {
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
	ViewProjectionMatrix() mgl32.Mat4
	Frustum() volume.Frustum
	Position() mgl32.Vec3
}

// Provider supplies the per-frame objects and lights. The render core
// reorders its own copy of the object list and writes Visible on the objects.
type Provider interface {
	Objects() []*Object
	Lights() []lighting.Light
}

// List is a fixed Provider backed by slices.
type List struct {
	Items       []*Object
	LightSource []lighting.Light
}

func (l *List) Objects() []*Object        { return l.Items }
func (l *List) Lights() []lighting.Light { return l.LightSource }
