// Package main runs the deferred pipeline against a small animated scene.
package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/config"
	"github.com/Faultbox/midgard-render/internal/engine/camera"
	"github.com/Faultbox/midgard-render/internal/engine/deferred"
	"github.com/Faultbox/midgard-render/internal/engine/gpu/opengl"
	"github.com/Faultbox/midgard-render/internal/engine/ledger"
	"github.com/Faultbox/midgard-render/internal/engine/window"
	"github.com/Faultbox/midgard-render/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Render demo ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("demo failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("demo closed normally")
}

func run(cfg *config.Config) error {
	win, err := window.New(cfg.Window)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer win.Close()

	dev, err := opengl.New()
	if err != nil {
		return err
	}

	cam := camera.NewOrbitCamera()
	cam.SetProjection(cfg.Render.FOV, cfg.Render.Near, cfg.Render.Far)

	demo, err := newDemoScene(dev)
	if err != nil {
		return err
	}
	cam.FitToBounds(demo.bounds)

	pipe := deferred.FromConfig(dev, cfg, demo, cam)
	defer func() {
		pipe.Destroy()
		demo.Dispose()
		reportLeaks(cfg)
	}()

	w, h := win.DrawableSize()
	pipe.Resize(w, h)
	cam.SetAspect(w, h)
	if err := pipe.Init(); err != nil {
		return err
	}

	return loop(cfg, win, pipe, cam, demo)
}

func loop(cfg *config.Config, win *window.Window, pipe *deferred.Pipeline, cam *camera.OrbitCamera, demo *demoScene) error {
	lastTime := time.Now()
	fpsTimer := lastTime
	frames := 0
	total := 0

	for cfg.Debug.Frames == 0 || total < cfg.Debug.Frames {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		ev := win.PollEvents()
		if ev.Quit {
			break
		}
		if ev.Resized {
			w, h := win.DrawableSize()
			pipe.Resize(w, h)
			cam.SetAspect(w, h)
		}
		cam.HandleDrag(ev.DragX, ev.DragY)
		if ev.Scroll != 0 {
			cam.HandleZoom(ev.Scroll)
		}

		demo.Update(dt)
		if err := pipe.Render(); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		w, h := win.DrawableSize()
		pipe.Present(w, h)
		win.SwapBuffers()

		if ev.Clicked {
			// Drawable and window sizes differ on high-DPI displays.
			pw, ph := pipe.Size()
			ww, wh := win.Size()
			x, y := ev.ClickX*pw/max(ww, 1), ev.ClickY*ph/max(wh, 1)
			logger.Info("picked", zap.Int32("id", pipe.Pick(x, y)), zap.Int32("x", x), zap.Int32("y", y))
		}

		frames++
		total++
		if since := now.Sub(fpsTimer); since >= time.Second {
			st := pipe.Stats()
			win.SetTitle(fmt.Sprintf("%s - %d FPS", cfg.Window.Title, frames))
			logger.Debug("frame stats",
				zap.Int("fps", frames),
				zap.Int("objects", st.Objects),
				zap.Int("visible", st.Visible),
				zap.Int("light_flushes", st.LightFlushes),
				zap.Int("batch_draws", st.Batch.DrawCalls),
			)
			frames = 0
			fpsTimer = now
		}
	}
	return nil
}

// reportLeaks logs whatever is still registered, then releases it so the GL
// context is clean before the window goes away.
func reportLeaks(cfg *config.Config) {
	l := ledger.Default()
	if cfg.Debug.DumpLeaksOnExit {
		l.DumpLeaks()
	}
	l.CollectAll()
}
