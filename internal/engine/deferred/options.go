package deferred

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/config"
	"github.com/Faultbox/midgard-render/internal/engine/batch"
	"github.com/Faultbox/midgard-render/internal/engine/lighting"
)

// SkyOptions colors the gradient sky.
type SkyOptions struct {
	Horizon mgl32.Vec3
	Zenith  mgl32.Vec3
	// SunDirection is used when the frame has no directional light.
	SunDirection mgl32.Vec3
}

// FogOptions configures exponential-squared distance fog.
type FogOptions struct {
	Color   mgl32.Vec3
	Density float32
}

// Options selects the passes and sizes the pipeline's resources.
type Options struct {
	Width, Height int32
	ClearColor    mgl32.Vec4

	Skybox bool
	Sky    SkyOptions

	Fog        bool
	FogOptions FogOptions

	Wireframe  bool
	ShowBounds bool

	Batch          batch.Config
	LightBatchSize int
}

// DefaultOptions returns a 1280x720 pipeline with every pass enabled except
// the bounds overlay.
func DefaultOptions() Options {
	return Options{
		Width:      1280,
		Height:     720,
		ClearColor: mgl32.Vec4{0, 0, 0, 1},
		Skybox:     true,
		Sky: SkyOptions{
			Horizon:      mgl32.Vec3{0.75, 0.8, 0.9},
			Zenith:       mgl32.Vec3{0.2, 0.35, 0.7},
			SunDirection: lighting.SunDirection(45, 45).Mul(-1),
		},
		Fog:            true,
		FogOptions:     FogOptions{Color: mgl32.Vec3{0.6, 0.65, 0.7}, Density: 0.015},
		Batch:          batch.DefaultConfig(),
		LightBatchSize: lighting.DefaultBatchSize,
	}
}

// OptionsFromConfig maps the loaded configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	o := DefaultOptions()
	o.Width = int32(cfg.Window.Width)
	o.Height = int32(cfg.Window.Height)
	o.ClearColor = mgl32.Vec4(cfg.Render.ClearColor)
	o.Skybox = cfg.Render.Skybox
	o.Wireframe = cfg.Render.Wireframe
	o.Fog = cfg.Fog.Enabled
	o.FogOptions = FogOptions{Color: mgl32.Vec3(cfg.Fog.Color), Density: cfg.Fog.Density}
	o.ShowBounds = cfg.Debug.ShowBounds
	o.Batch = batch.Config{
		MaxQuads:        cfg.Batch.MaxQuads,
		MaxTriangles:    cfg.Batch.MaxTriangles,
		MaxTextureSlots: cfg.Batch.MaxTextureSlots,
	}
	o.LightBatchSize = cfg.Lighting.BatchSize
	return o
}
