package deferred

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/lighting"
	"github.com/Faultbox/midgard-render/internal/engine/pipeline"
	"github.com/Faultbox/midgard-render/internal/engine/shaders"
)

// Sampler units used by the full-screen passes.
const (
	unitPosition = 0
	unitNormal   = 1
)

// LightPass accumulates light intensity into a single-channel buffer, one
// full-screen draw per light batch, then multiplies it into the color
// attachment.
type LightPass struct {
	pipeline.BasePass
	owner *Pipeline

	batcher      *lighting.Batcher
	accumulation gpu.Framebuffer
	light        gpu.Program
	composite    gpu.Program
}

func newLightPass(owner *Pipeline) *LightPass {
	return &LightPass{
		BasePass: pipeline.NewBasePass("light", pipeline.PassState{
			Depth:         gpu.DepthNone,
			DepthReadOnly: true,
			Blend:         gpu.BlendAdditive,
			Cull:          gpu.CullNone,
		}),
		owner:   owner,
		batcher: lighting.NewBatcher(owner.opts.LightBatchSize),
	}
}

func (l *LightPass) Init() error {
	if !l.BeginInit() {
		return nil
	}
	dev := l.owner.dev

	var err error
	l.accumulation, err = dev.NewFramebuffer(gpu.FramebufferDesc{
		Width:       l.owner.width,
		Height:      l.owner.height,
		Attachments: []gpu.TextureFormat{gpu.R16F},
	})
	if err != nil {
		return fmt.Errorf("light accumulation buffer: %w", err)
	}
	l.light, err = dev.NewProgram(shaders.FullscreenVertex(), shaders.LightFragment(l.batcher.Capacity()))
	if err != nil {
		return fmt.Errorf("light shader: %w", err)
	}
	l.composite, err = dev.NewProgram(shaders.FullscreenVertex(), shaders.Source("composite.frag"))
	if err != nil {
		return fmt.Errorf("light composite shader: %w", err)
	}
	return nil
}

func (l *LightPass) Draw() {
	p := l.owner
	dev := p.dev

	l.accumulation.Bind()
	l.accumulation.SetDrawBuffers([]int{0})
	l.accumulation.ClearAttachment(0, mgl32.Vec4{})

	p.gbuffer.Attachment(AttachPosition).Bind(unitPosition)
	p.gbuffer.Attachment(AttachNormal).Bind(unitNormal)
	l.light.Bind()
	l.light.SetInt("u_position", unitPosition)
	l.light.SetInt("u_normal", unitNormal)

	dev.SetBlendFunc(gpu.BlendAdditive)
	p.stats.LightFlushes = l.batcher.Run(p.frame.lights, func(u *lighting.Uniforms) {
		u.Apply(l.light)
		p.drawFullscreen()
	})

	p.gbuffer.Bind()
	p.gbuffer.SetDrawBuffers([]int{AttachColor})
	l.accumulation.Attachment(0).Bind(0)
	l.composite.Bind()
	l.composite.SetInt("u_accumulation", 0)
	dev.SetBlendFunc(gpu.BlendMultiply)
	p.drawFullscreen()
}

func (l *LightPass) resize(width, height int32) {
	if l.accumulation != nil {
		l.accumulation.Resize(width, height)
	}
}

func (l *LightPass) Destroy() {
	if !l.BeginDestroy() {
		return
	}
	for _, r := range []gpu.Resource{l.accumulation, l.light, l.composite} {
		if r != nil {
			r.Dispose()
		}
	}
	l.accumulation, l.light, l.composite = nil, nil, nil
}
