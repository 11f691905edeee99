package deferred

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/pipeline"
	"github.com/Faultbox/midgard-render/internal/engine/scene"
	"github.com/Faultbox/midgard-render/internal/engine/volume"
)

// ScenePass fills the G-buffer with the frame's opaque objects. It also owns
// the frame's object order: opaque first, then transparent back to front.
type ScenePass struct {
	pipeline.BasePass
	owner *Pipeline

	// deferTransparent leaves the transparent range for the transparent pass.
	deferTransparent bool
	run              []*scene.Object
}

func newScenePass(owner *Pipeline) *ScenePass {
	return &ScenePass{
		BasePass: pipeline.NewBasePass("scene", pipeline.PassState{
			Depth:       gpu.DepthLess,
			Blend:       gpu.BlendNone,
			Cull:        gpu.CullNone,
			Attachments: gbufferAttachments,
		}),
		owner: owner,
	}
}

func (s *ScenePass) Init() error {
	s.BeginInit()
	return nil
}

func (s *ScenePass) Draw() {
	p := s.owner
	f := &p.frame

	// The executor clears only color. Ids, positions and normals start at zero.
	for _, a := range gbufferAttachments[1:] {
		p.gbuffer.ClearAttachment(a, mgl32.Vec4{})
	}

	f.objects = append(f.objects[:0], p.provider.Objects()...)
	f.split = partition(f.objects)

	frustum := p.camera.Frustum()
	visible := cull(f.objects, &frustum)
	sortBackToFront(f.objects[f.split:], f.ctx.CameraPosition)

	p.stats.Objects = len(f.objects)
	p.stats.Visible = visible
	p.stats.Transparent = len(f.objects) - f.split

	opaque := f.objects[:f.split]
	for _, k := range scene.Kinds {
		s.run = s.run[:0]
		for _, o := range opaque {
			if o.Visible && o.Kind == k {
				s.run = append(s.run, o)
			}
		}
		p.dispatch.Draw(f.ctx, k, s.run)
	}
	f.ctx.Batch.Flush()

	if !s.deferTransparent {
		s.DrawTransparent()
	}
}

// DrawTransparent draws the visible transparent objects back to front. Runs of
// the same kind go to their renderer together so order holds across kinds.
func (s *ScenePass) DrawTransparent() {
	p := s.owner
	f := &p.frame
	if f.ctx == nil {
		return
	}

	s.run = s.run[:0]
	for _, o := range f.objects[f.split:] {
		if !o.Visible {
			continue
		}
		if len(s.run) > 0 && s.run[0].Kind != o.Kind {
			p.dispatch.Draw(f.ctx, s.run[0].Kind, s.run)
			s.run = s.run[:0]
		}
		s.run = append(s.run, o)
	}
	if len(s.run) > 0 {
		p.dispatch.Draw(f.ctx, s.run[0].Kind, s.run)
	}
	f.ctx.Batch.Flush()
	s.run = s.run[:0]
}

func (s *ScenePass) Destroy() {
	if s.BeginDestroy() {
		s.run = nil
	}
}

// partition moves opaque objects ahead of transparent ones, keeping the
// relative order inside each group, and returns the first transparent index.
func partition(objects []*scene.Object) int {
	slices.SortStableFunc(objects, func(a, b *scene.Object) int {
		return cmp.Compare(rank(a), rank(b))
	})
	i := slices.IndexFunc(objects, (*scene.Object).Transparent)
	if i < 0 {
		return len(objects)
	}
	return i
}

func rank(o *scene.Object) int {
	if o.Transparent() {
		return 1
	}
	return 0
}

// cull writes Visible on every object and returns how many survived. Objects
// without bounds are always visible.
func cull(objects []*scene.Object, f *volume.Frustum) int {
	visible := 0
	for _, o := range objects {
		b := o.WorldBounds()
		o.Visible = b == nil || b.Classify(f) != volume.Outside
		if o.Visible {
			visible++
		}
	}
	return visible
}

// sortBackToFront orders objects by descending squared distance to eye.
// Ties keep their submission order.
func sortBackToFront(objects []*scene.Object, eye mgl32.Vec3) {
	slices.SortStableFunc(objects, func(a, b *scene.Object) int {
		return cmp.Compare(distanceSq(b, eye), distanceSq(a, eye))
	})
}

func distanceSq(o *scene.Object, eye mgl32.Vec3) float32 {
	d := o.Position().Sub(eye)
	return d.Dot(d)
}
