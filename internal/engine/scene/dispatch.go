package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/engine/batch"
	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/logger"
)

// DrawContext carries the frame state renderers draw with.
type DrawContext struct {
	Device         gpu.Device
	Batch          *batch.Renderer
	ViewProjection mgl32.Mat4
	CameraPosition mgl32.Vec3
	// CameraRight and CameraUp span the view plane for billboards.
	CameraRight mgl32.Vec3
	CameraUp    mgl32.Vec3
}

// NewDrawContext derives billboard axes from the camera's view matrix.
func NewDrawContext(dev gpu.Device, b *batch.Renderer, cam Camera) *DrawContext {
	view := cam.ViewMatrix()
	return &DrawContext{
		Device:         dev,
		Batch:          b,
		ViewProjection: cam.ViewProjectionMatrix(),
		CameraPosition: cam.Position(),
		CameraRight:    view.Row(0).Vec3(),
		CameraUp:       view.Row(1).Vec3(),
	}
}

// Renderer draws runs of objects of a single kind. Callers only pass visible
// objects whose Kind matches the renderer's slot.
type Renderer interface {
	Init(dev gpu.Device) error
	Draw(ctx *DrawContext, objects []*Object)
	Destroy()
}

// Dispatcher maps each Kind to its Renderer through a fixed table.
type Dispatcher struct {
	renderers [kindCount]Renderer
}

// NewDispatcher returns a dispatcher with the sprite, mesh and particle
// renderers registered.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{}
	d.Register(Sprite, &SpriteRenderer{})
	d.Register(Mesh, &MeshRenderer{})
	d.Register(Particles, &ParticleRenderer{})
	return d
}

// Register installs r for kind k, replacing any previous renderer.
func (d *Dispatcher) Register(k Kind, r Renderer) {
	if k < 0 || k >= kindCount {
		panic(fmt.Sprintf("scene: unknown object kind %d", int(k)))
	}
	d.renderers[k] = r
}

// Renderer returns the renderer for k, or nil.
func (d *Dispatcher) Renderer(k Kind) Renderer {
	if k < 0 || k >= kindCount {
		panic(fmt.Sprintf("scene: unknown object kind %d", int(k)))
	}
	return d.renderers[k]
}

// Init initializes every registered renderer, destroying them all on failure.
func (d *Dispatcher) Init(dev gpu.Device) error {
	for _, k := range Kinds {
		r := d.renderers[k]
		if r == nil {
			continue
		}
		if err := r.Init(dev); err != nil {
			d.Destroy()
			return fmt.Errorf("init %s renderer: %w", k, err)
		}
	}
	return nil
}

// Draw hands objects to the renderer for k. Kinds without a renderer are skipped.
func (d *Dispatcher) Draw(ctx *DrawContext, k Kind, objects []*Object) {
	if len(objects) == 0 {
		return
	}
	r := d.Renderer(k)
	if r == nil {
		logger.Named("scene").Debug("no renderer for kind", zap.Stringer("kind", k), zap.Int("objects", len(objects)))
		return
	}
	r.Draw(ctx, objects)
}

// Destroy releases every registered renderer.
func (d *Dispatcher) Destroy() {
	for _, r := range d.renderers {
		if r != nil {
			r.Destroy()
		}
	}
}
