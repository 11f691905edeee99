package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/batch"
	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// ParticleRenderer queues particle systems as camera-facing quads.
type ParticleRenderer struct{}

func (r *ParticleRenderer) Init(gpu.Device) error { return nil }

func (r *ParticleRenderer) Draw(ctx *DrawContext, objects []*Object) {
	for _, o := range objects {
		ps := o.Particles
		if ps == nil || len(ps.Particles) == 0 {
			continue
		}
		setBlending(ctx, o.Blend)
		scale := maxScale(o.Transform)
		for _, p := range ps.Particles {
			m := particleBillboard(o.Transform, scale, p, ctx.CameraRight, ctx.CameraUp)
			ctx.Batch.DrawTexturedQuadUV(m, ps.Texture, p.Color, batch.FullUV, o.ID)
		}
	}
	ctx.Batch.Flush()
}

func (r *ParticleRenderer) Destroy() {}

// particleBillboard places p through the full object transform, the same one
// WorldBounds applies to the particle box.
func particleBillboard(transform mgl32.Mat4, scale float32, p Particle, right, up mgl32.Vec3) mgl32.Mat4 {
	size := p.Size * scale
	return billboard(mgl32.TransformCoordinate(p.Offset, transform), right, up, size, size, 0)
}

// maxScale is the largest axis scale of m's linear part.
func maxScale(m mgl32.Mat4) float32 {
	return max(m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len())
}
