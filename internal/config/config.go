// Package config handles renderer configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all renderer settings.
type Config struct {
	Window   WindowConfig   `yaml:"window" toml:"window"`
	Render   RenderConfig   `yaml:"render" toml:"render"`
	Batch    BatchConfig    `yaml:"batch" toml:"batch"`
	Lighting LightingConfig `yaml:"lighting" toml:"lighting"`
	Fog      FogConfig      `yaml:"fog" toml:"fog"`
	Debug    DebugConfig    `yaml:"debug" toml:"debug"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
}

// RenderConfig holds deferred pipeline settings.
type RenderConfig struct {
	ClearColor [4]float32 `yaml:"clear_color" toml:"clear_color"`
	Skybox     bool       `yaml:"skybox" toml:"skybox"`
	Wireframe  bool       `yaml:"wireframe" toml:"wireframe"`
	FOV        float32    `yaml:"fov" toml:"fov"` // degrees
	Near       float32    `yaml:"near" toml:"near"`
	Far        float32    `yaml:"far" toml:"far"`
}

// BatchConfig holds batched primitive renderer capacities.
type BatchConfig struct {
	MaxQuads        int `yaml:"max_quads" toml:"max_quads"`
	MaxTriangles    int `yaml:"max_triangles" toml:"max_triangles"`
	MaxTextureSlots int `yaml:"max_texture_slots" toml:"max_texture_slots"`
}

// LightingConfig holds light pass settings.
type LightingConfig struct {
	BatchSize int `yaml:"batch_size" toml:"batch_size"` // per light type
}

// FogConfig holds fog pass settings.
type FogConfig struct {
	Enabled bool       `yaml:"enabled" toml:"enabled"`
	Color   [3]float32 `yaml:"color" toml:"color"`
	Density float32    `yaml:"density" toml:"density"`
}

// DebugConfig holds diagnostics settings.
type DebugConfig struct {
	ShowBounds      bool `yaml:"show_bounds" toml:"show_bounds"`
	DumpLeaksOnExit bool `yaml:"dump_leaks_on_exit" toml:"dump_leaks_on_exit"`
	Frames          int  `yaml:"frames" toml:"frames"` // 0 runs until the window closes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "Midgard Render",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Render: RenderConfig{
			ClearColor: [4]float32{0, 0, 0, 1},
			Skybox:     true,
			FOV:        45,
			Near:       0.1,
			Far:        1000,
		},
		Batch: BatchConfig{
			MaxQuads:        20000,
			MaxTriangles:    20000,
			MaxTextureSlots: 16,
		},
		Lighting: LightingConfig{
			BatchSize: 16,
		},
		Fog: FogConfig{
			Enabled: true,
			Color:   [3]float32{0.6, 0.65, 0.7},
			Density: 0.015,
		},
		Debug: DebugConfig{
			DumpLeaksOnExit: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the settings that would otherwise fail deep inside the renderer.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Batch.MaxQuads <= 0 {
		errs = append(errs, fmt.Errorf("batch.max_quads must be positive, got %d", c.Batch.MaxQuads))
	}
	if c.Batch.MaxTriangles <= 0 {
		errs = append(errs, fmt.Errorf("batch.max_triangles must be positive, got %d", c.Batch.MaxTriangles))
	}
	// Slot 0 is the white texture, so at least one more slot is needed for textured draws.
	if c.Batch.MaxTextureSlots < 2 {
		errs = append(errs, fmt.Errorf("batch.max_texture_slots must be at least 2, got %d", c.Batch.MaxTextureSlots))
	}
	if c.Lighting.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("lighting.batch_size must be positive, got %d", c.Lighting.BatchSize))
	}
	if c.Render.Near <= 0 || c.Render.Far <= c.Render.Near {
		errs = append(errs, fmt.Errorf("render near/far %g/%g invalid", c.Render.Near, c.Render.Far))
	}
	return errors.Join(errs...)
}
