package deferred

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/debug"
	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/pipeline"
	"github.com/Faultbox/midgard-render/internal/engine/shaders"
)

// SkyboxPass fills background pixels with a vertical gradient and a sun disc.
type SkyboxPass struct {
	pipeline.BasePass
	owner   *Pipeline
	program gpu.Program
}

func newSkyboxPass(owner *Pipeline) *SkyboxPass {
	return &SkyboxPass{
		BasePass: pipeline.NewBasePass("skybox", pipeline.PassState{
			Depth:         gpu.DepthLessEqual,
			DepthReadOnly: true,
			Blend:         gpu.BlendNone,
			Cull:          gpu.CullNone,
			Attachments:   []int{AttachColor},
		}),
		owner: owner,
	}
}

func (s *SkyboxPass) Init() error {
	if !s.BeginInit() {
		return nil
	}
	var err error
	s.program, err = s.owner.dev.NewProgram(shaders.FullscreenVertex(), shaders.Source("skybox.frag"))
	if err != nil {
		return fmt.Errorf("skybox shader: %w", err)
	}
	return nil
}

func (s *SkyboxPass) Draw() {
	p := s.owner
	sky := p.opts.Sky
	s.program.Bind()
	s.program.SetMat4("u_inverseViewProjection", p.frame.ctx.ViewProjection.Inv())
	s.program.SetVec3("u_horizon", sky.Horizon)
	s.program.SetVec3("u_zenith", sky.Zenith)
	s.program.SetVec3("u_sunDirection", p.sunDirection())
	p.drawFullscreen()
}

func (s *SkyboxPass) Destroy() {
	if s.BeginDestroy() && s.program != nil {
		s.program.Dispose()
		s.program = nil
	}
}

// TransparentPass draws the scene pass's transparent range over the lit image.
type TransparentPass struct {
	pipeline.BasePass
	owner *Pipeline
}

func newTransparentPass(owner *Pipeline) *TransparentPass {
	owner.scene.deferTransparent = true
	// Integer targets ignore blending, so transparent objects overwrite the
	// id and Pick finds the nearest one.
	return &TransparentPass{
		BasePass: pipeline.NewBasePass("transparent", pipeline.PassState{
			Depth:         gpu.DepthLess,
			DepthReadOnly: true,
			Blend:         gpu.BlendAlpha,
			Cull:          gpu.CullNone,
			Attachments:   []int{AttachColor, AttachID},
		}),
		owner: owner,
	}
}

func (t *TransparentPass) Init() error {
	t.BeginInit()
	return nil
}

func (t *TransparentPass) Draw() { t.owner.scene.DrawTransparent() }

func (t *TransparentPass) Destroy() { t.BeginDestroy() }

// FogPass blends distance fog over geometry using the position attachment.
type FogPass struct {
	pipeline.BasePass
	owner   *Pipeline
	program gpu.Program
}

func newFogPass(owner *Pipeline) *FogPass {
	return &FogPass{
		BasePass: pipeline.NewBasePass("fog", pipeline.PassState{
			Depth:         gpu.DepthNone,
			DepthReadOnly: true,
			Blend:         gpu.BlendAlpha,
			Cull:          gpu.CullNone,
			Attachments:   []int{AttachColor},
		}),
		owner: owner,
	}
}

func (f *FogPass) Init() error {
	if !f.BeginInit() {
		return nil
	}
	var err error
	f.program, err = f.owner.dev.NewProgram(shaders.FullscreenVertex(), shaders.Source("fog.frag"))
	if err != nil {
		return fmt.Errorf("fog shader: %w", err)
	}
	return nil
}

func (f *FogPass) Draw() {
	p := f.owner
	// Position is sampled while the G-buffer stays bound; only color is a draw buffer here.
	p.gbuffer.Attachment(AttachPosition).Bind(unitPosition)
	f.program.Bind()
	f.program.SetInt("u_position", unitPosition)
	f.program.SetVec3("u_cameraPosition", p.frame.ctx.CameraPosition)
	f.program.SetVec3("u_fogColor", p.opts.FogOptions.Color)
	f.program.SetFloat("u_density", p.opts.FogOptions.Density)
	p.drawFullscreen()
}

func (f *FogPass) Destroy() {
	if f.BeginDestroy() && f.program != nil {
		f.program.Dispose()
		f.program = nil
	}
}

var (
	boundsOpaque      = mgl32.Vec4{0.2, 1, 0.2, 1}
	boundsTransparent = mgl32.Vec4{1, 0.8, 0.2, 1}
)

// OverlayPass outlines the bounds of every visible object.
type OverlayPass struct {
	pipeline.BasePass
	owner *Pipeline
}

func newOverlayPass(owner *Pipeline) *OverlayPass {
	return &OverlayPass{
		BasePass: pipeline.NewBasePass("overlay", pipeline.PassState{
			Depth:         gpu.DepthLessEqual,
			DepthReadOnly: true,
			Blend:         gpu.BlendAlpha,
			Fill:          gpu.Wireframe,
			Cull:          gpu.CullNone,
			Attachments:   []int{AttachColor},
		}),
		owner: owner,
	}
}

func (o *OverlayPass) Init() error {
	o.BeginInit()
	return nil
}

func (o *OverlayPass) Draw() {
	p := o.owner
	b := p.frame.ctx.Batch
	if b.Blending() != gpu.Blend {
		b.Flush()
		b.SetBlending(gpu.Blend)
	}
	for _, obj := range p.frame.objects {
		if !obj.Visible {
			continue
		}
		bounds := obj.WorldBounds()
		if bounds == nil {
			continue
		}
		color := boundsOpaque
		if obj.Transparent() {
			color = boundsTransparent
		}
		debug.DrawVolume(b, bounds, color)
	}
	b.Flush()
}

func (o *OverlayPass) Destroy() { o.BeginDestroy() }
