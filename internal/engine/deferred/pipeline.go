// Package deferred assembles the fixed deferred-shading pipeline: a G-buffer
// scene pass, batched light accumulation, sky, transparent geometry and fog,
// executed by the generic pass executor.
package deferred

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/config"
	"github.com/Faultbox/midgard-render/internal/engine/batch"
	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/lighting"
	"github.com/Faultbox/midgard-render/internal/engine/pipeline"
	"github.com/Faultbox/midgard-render/internal/engine/scene"
	"github.com/Faultbox/midgard-render/internal/engine/volume"
	"github.com/Faultbox/midgard-render/internal/logger"
)

// Stats describes the last rendered frame.
type Stats struct {
	Objects      int
	Visible      int
	Transparent  int
	LightFlushes int
	Batch        batch.Stats
}

// frame is the state shared by the passes while one frame renders.
type frame struct {
	ctx     *scene.DrawContext
	objects []*scene.Object
	// split is the index of the first transparent object.
	split  int
	lights []lighting.Light
}

// Pipeline renders a provider's objects and lights through the G-buffer.
type Pipeline struct {
	dev      gpu.Device
	opts     Options
	provider scene.Provider
	camera   scene.Camera
	log      *zap.Logger

	exec       *pipeline.Pipeline
	gbuffer    gpu.Framebuffer
	fullscreen gpu.VertexArray
	batch      *batch.Renderer
	dispatch   *scene.Dispatcher

	scene       *ScenePass
	light       *LightPass
	transparent *TransparentPass

	frame frame
	stats Stats

	width, height int32
	destroyed     bool
}

// New builds the pass list for opts. Nothing touches the device until Init.
func New(dev gpu.Device, opts Options, provider scene.Provider, camera scene.Camera) *Pipeline {
	p := &Pipeline{
		dev:      dev,
		opts:     opts,
		provider: provider,
		camera:   camera,
		log:      logger.Named("deferred"),
		exec:     pipeline.New("deferred"),
		dispatch: scene.NewDispatcher(),
		width:    opts.Width,
		height:   opts.Height,
	}

	p.scene = newScenePass(p)
	if opts.Wireframe {
		p.scene.SetFill(gpu.Wireframe)
	}
	p.light = newLightPass(p)
	p.transparent = newTransparentPass(p)

	passes := []pipeline.Pass{p.scene, p.light}
	if opts.Skybox {
		passes = append(passes, newSkyboxPass(p))
	}
	passes = append(passes, p.transparent)
	if opts.Fog {
		passes = append(passes, newFogPass(p))
	}
	if opts.ShowBounds {
		passes = append(passes, newOverlayPass(p))
	}
	for _, pass := range passes {
		// Cannot fail before Init.
		_ = p.exec.Add(pass)
	}
	return p
}

// FromConfig builds a pipeline from the loaded configuration.
func FromConfig(dev gpu.Device, cfg *config.Config, provider scene.Provider, camera scene.Camera) *Pipeline {
	return New(dev, OptionsFromConfig(cfg), provider, camera)
}

// Passes returns the pass names in execution order.
func (p *Pipeline) Passes() []string {
	passes := p.exec.Passes()
	names := make([]string, len(passes))
	for i, pass := range passes {
		names[i] = pass.Name()
	}
	return names
}

// Init creates the shared G-buffer, batch renderer and object renderers, then
// initializes every pass. Any failure releases everything created so far.
func (p *Pipeline) Init() error {
	if p.destroyed {
		return pipeline.ErrDestroyed
	}
	if p.exec.State() == pipeline.Initialized {
		return nil
	}
	if err := p.init(); err != nil {
		p.Destroy()
		return err
	}
	p.log.Info("deferred pipeline initialized",
		zap.Int32("width", p.width),
		zap.Int32("height", p.height),
		zap.Strings("passes", p.Passes()),
	)
	return nil
}

func (p *Pipeline) init() error {
	var err error
	p.gbuffer, err = p.dev.NewFramebuffer(gbufferDesc(p.width, p.height))
	if err != nil {
		return fmt.Errorf("create g-buffer: %w", err)
	}
	p.fullscreen, err = p.dev.NewVertexArray(nil, gpu.Layout{}, nil)
	if err != nil {
		return fmt.Errorf("create fullscreen vertex array: %w", err)
	}
	p.batch, err = batch.New(p.dev, p.opts.Batch)
	if err != nil {
		return fmt.Errorf("create batch renderer: %w", err)
	}
	if err := p.dispatch.Init(p.dev); err != nil {
		return err
	}

	p.exec.SetTarget(p.gbuffer, []int{AttachColor})
	p.exec.SetClearColor(p.opts.ClearColor)
	return p.exec.Init()
}

// Render draws one frame into the G-buffer.
func (p *Pipeline) Render() error {
	if p.exec.State() != pipeline.Initialized {
		return pipeline.ErrNotInitialized
	}

	p.frame.ctx = scene.NewDrawContext(p.dev, p.batch, p.camera)
	p.frame.lights = p.provider.Lights()
	p.stats = Stats{}
	p.batch.ResetStats()
	p.batch.BeginScene(p.frame.ctx.ViewProjection)
	p.dev.SetViewport(0, 0, p.width, p.height)

	if err := p.exec.Process(p.dev); err != nil {
		return err
	}
	p.batch.EndScene()
	p.stats.Batch = p.batch.Stats()
	return nil
}

// Present copies the lit color attachment to the window.
func (p *Pipeline) Present(width, height int32) {
	if p.gbuffer == nil {
		return
	}
	p.dev.BindDefaultFramebuffer()
	p.gbuffer.BlitToScreen(AttachColor, width, height)
}

// Pick returns the object id under a window pixel from the last frame, or 0.
// y grows downward as in window coordinates.
func (p *Pipeline) Pick(x, y int32) int32 {
	if p.gbuffer == nil || x < 0 || y < 0 || x >= p.width || y >= p.height {
		return 0
	}
	return p.gbuffer.ReadPixel(AttachID, x, p.height-1-y)
}

// PickRay returns the nearest visible object of the last frame whose bounds
// the ray hits.
func (p *Pipeline) PickRay(ray volume.Ray) *scene.Object {
	hit, _ := scene.Pick(p.frame.objects, ray)
	return hit
}

// Resize reallocates the size-dependent targets.
func (p *Pipeline) Resize(width, height int32) {
	if width <= 0 || height <= 0 || (width == p.width && height == p.height) {
		return
	}
	p.width, p.height = width, height
	if p.gbuffer != nil {
		p.gbuffer.Resize(width, height)
	}
	p.light.resize(width, height)
	p.log.Debug("resized", zap.Int32("width", width), zap.Int32("height", height))
}

// Size returns the render target size.
func (p *Pipeline) Size() (int32, int32) { return p.width, p.height }

// GBuffer exposes the scene target, mainly for inspection.
func (p *Pipeline) GBuffer() gpu.Framebuffer { return p.gbuffer }

// Stats returns counters for the last frame.
func (p *Pipeline) Stats() Stats { return p.stats }

// Destroy releases the passes and every shared resource. Safe to call more than once.
func (p *Pipeline) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true

	p.exec.Destroy()
	p.dispatch.Destroy()
	if p.batch != nil {
		p.batch.Destroy()
		p.batch = nil
	}
	if p.fullscreen != nil {
		p.fullscreen.Dispose()
		p.fullscreen = nil
	}
	if p.gbuffer != nil {
		p.gbuffer.Dispose()
		p.gbuffer = nil
	}
	p.frame = frame{}
	p.log.Debug("deferred pipeline destroyed")
}

func (p *Pipeline) drawFullscreen() {
	p.dev.DrawArray(p.fullscreen, 3, gpu.Triangles)
}

// sunDirection picks the first directional light of the frame for the sky.
func (p *Pipeline) sunDirection() mgl32.Vec3 {
	for _, l := range p.frame.lights {
		if l.Kind == lighting.Directional {
			return l.Direction
		}
	}
	return p.opts.Sky.SunDirection
}
