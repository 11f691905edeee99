package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and bounds overlay")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagFrames     = flag.Int("frames", -1, "Render this many frames then exit (0 = until closed)")
	flagWireframe  = flag.Bool("wireframe", false, "Draw scene geometry as wireframe")
	flagNoFog      = flag.Bool("no-fog", false, "Disable the fog pass")
	flagNoSkybox   = flag.Bool("no-skybox", false, "Disable the skybox pass")
	flagLightBatch = flag.Int("light-batch", 0, "Lights per type per light pass draw")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Debug.ShowBounds = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagFrames >= 0 {
		cfg.Debug.Frames = *flagFrames
	}
	if *flagWireframe {
		cfg.Render.Wireframe = true
	}
	if *flagNoFog {
		cfg.Fog.Enabled = false
	}
	if *flagNoSkybox {
		cfg.Render.Skybox = false
	}
	if *flagLightBatch > 0 {
		cfg.Lighting.BatchSize = *flagLightBatch
	}
}
