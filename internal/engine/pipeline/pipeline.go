// Package pipeline executes ordered render passes against a shared target.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/logger"
)

var (
	// ErrNotInitialized is returned by Process before Init or after Destroy.
	ErrNotInitialized = errors.New("pipeline: not initialized")
	// ErrDestroyed is returned by Init and Add once the pipeline is torn down.
	ErrDestroyed = errors.New("pipeline: destroyed")
	// ErrInitialized is returned by Add after Init.
	ErrInitialized = errors.New("pipeline: already initialized")
)

// Lifecycle is the pipeline state.
type Lifecycle int

const (
	Uninitialized Lifecycle = iota
	Initialized
	Destroyed
)

func (l Lifecycle) String() string {
	switch l {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("Lifecycle(%d)", int(l))
	}
}

// Pipeline runs its passes front to back every frame.
type Pipeline struct {
	name   string
	passes []Pass
	log    *zap.Logger

	target      gpu.Framebuffer
	clearBuffer []int

	clearColor mgl32.Vec4
	clear      bool

	state Lifecycle
}

// New creates an empty pipeline that draws to the default framebuffer.
func New(name string) *Pipeline {
	return &Pipeline{
		name: name,
		log:  logger.Named("pipeline").With(zap.String("pipeline", name)),
	}
}

// Add appends a pass. Passes run in the order they were added.
func (p *Pipeline) Add(pass Pass) error {
	switch p.state {
	case Initialized:
		return ErrInitialized
	case Destroyed:
		return ErrDestroyed
	}
	p.passes = append(p.passes, pass)
	return nil
}

// Passes returns the passes in execution order.
func (p *Pipeline) Passes() []Pass { return p.passes }

// SetTarget directs the pipeline at fb. clearAttachments are enabled while
// clearing at the start of each frame.
func (p *Pipeline) SetTarget(fb gpu.Framebuffer, clearAttachments []int) {
	p.target = fb
	p.clearBuffer = clearAttachments
}

// Target returns the shared output target, or nil for the default framebuffer.
func (p *Pipeline) Target() gpu.Framebuffer { return p.target }

// SetClearColor enables clearing the target before the first pass.
func (p *Pipeline) SetClearColor(c mgl32.Vec4) {
	p.clearColor = c
	p.clear = true
}

// DisableClear stops clearing the target between frames.
func (p *Pipeline) DisableClear() { p.clear = false }

// ClearColor returns the configured color and whether clearing is enabled.
func (p *Pipeline) ClearColor() (mgl32.Vec4, bool) { return p.clearColor, p.clear }

// State returns the lifecycle state.
func (p *Pipeline) State() Lifecycle { return p.state }

// Init initializes every pass in order. On failure the passes initialized so
// far are destroyed and the pipeline cannot be used.
func (p *Pipeline) Init() error {
	switch p.state {
	case Initialized:
		return nil
	case Destroyed:
		return ErrDestroyed
	}

	for i, pass := range p.passes {
		if err := pass.Init(); err != nil {
			for _, done := range p.passes[:i+1] {
				done.Destroy()
			}
			p.state = Destroyed
			return fmt.Errorf("init pass %d (%s): %w", i, pass.Name(), err)
		}
	}

	p.state = Initialized
	p.log.Debug("pipeline initialized", zap.Int("passes", len(p.passes)))
	return nil
}

// Process renders one frame.
func (p *Pipeline) Process(dev gpu.Device) error {
	if p.state != Initialized {
		return ErrNotInitialized
	}

	if p.target != nil {
		p.target.Bind()
	} else {
		dev.BindDefaultFramebuffer()
	}

	if p.clear {
		if p.target != nil && p.clearBuffer != nil {
			p.target.SetDrawBuffers(p.clearBuffer)
		}
		dev.SetClearColor(p.clearColor)
		dev.SetDepthWrite(true) // a masked depth buffer ignores Clear
		dev.Clear()
	}

	for _, pass := range p.passes {
		st := pass.State()
		if p.target != nil && st.Attachments != nil {
			p.target.Bind()
			p.target.SetDrawBuffers(st.Attachments)
		}

		dev.SetDepthFunc(st.Depth)
		dev.SetDepthWrite(!st.DepthReadOnly)
		dev.SetBlendFunc(st.Blend)
		dev.SetPolygonMode(st.Fill)
		dev.SetCullFace(st.Cull)

		pass.Draw()
	}
	return nil
}

// Destroy tears down every pass in insertion order. Safe to call more than once.
func (p *Pipeline) Destroy() {
	if p.state == Destroyed {
		return
	}
	for _, pass := range p.passes {
		pass.Destroy()
	}
	p.state = Destroyed
	p.log.Debug("pipeline destroyed")
}
