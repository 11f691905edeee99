package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// SpriteRenderer queues sprites into the shared quad batch.
type SpriteRenderer struct{}

func (r *SpriteRenderer) Init(gpu.Device) error { return nil }

// Draw queues every sprite, flushing whenever the blend mode changes so each
// batch draws under a single mode. The run is flushed before returning.
func (r *SpriteRenderer) Draw(ctx *DrawContext, objects []*Object) {
	for _, o := range objects {
		s := o.Sprite
		if s == nil {
			continue
		}
		setBlending(ctx, o.Blend)
		ctx.Batch.DrawTexturedQuadUV(spriteTransform(ctx, o), s.Texture, s.Tint, s.UV, o.ID)
	}
	ctx.Batch.Flush()
}

func (r *SpriteRenderer) Destroy() {}

// spriteTransform maps the unit quad onto the sprite. Billboards keep their
// origin at the bottom edge and span the camera's right and up axes.
func spriteTransform(ctx *DrawContext, o *Object) mgl32.Mat4 {
	s := o.Sprite
	if !s.Billboard {
		return o.Transform.Mul4(mgl32.Scale3D(s.Size[0], s.Size[1], 1))
	}
	return billboard(o.Position(), ctx.CameraRight, ctx.CameraUp, s.Size[0], s.Size[1], s.Size[1]*0.5)
}

// billboard builds a model matrix facing the camera, centered lift units
// above pos along up.
func billboard(pos, right, up mgl32.Vec3, width, height, lift float32) mgl32.Mat4 {
	forward := right.Cross(up)
	center := pos.Add(up.Mul(lift))
	return mgl32.Mat4FromCols(
		right.Mul(width).Vec4(0),
		up.Mul(height).Vec4(0),
		forward.Vec4(0),
		center.Vec4(1),
	)
}

func setBlending(ctx *DrawContext, mode gpu.BlendMode) {
	if ctx.Batch.Blending() == mode {
		return
	}
	ctx.Batch.Flush()
	ctx.Batch.SetBlending(mode)
}
