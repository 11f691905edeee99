package pipeline

import (
	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// PassState is the device state a pass requires. The executor applies all of
// it before every Draw.
type PassState struct {
	Depth gpu.DepthFunc
	// DepthReadOnly disables depth writes while keeping the test.
	DepthReadOnly bool
	Blend         gpu.BlendFunc
	Fill          gpu.PolygonMode
	Cull          gpu.CullMode
	// Attachments lists the target's color attachments to write. Nil keeps
	// whatever the previous pass enabled.
	Attachments []int
}

// Pass is one stage of a pipeline.
type Pass interface {
	Name() string
	State() PassState
	// Init acquires resources. Calling it again is a no-op.
	Init() error
	Draw()
	// Destroy releases resources. Calling it again is a no-op.
	Destroy()
}

// BasePass carries a pass's name, state and lifecycle guard. Concrete passes
// embed it and guard Init and Destroy with BeginInit and BeginDestroy.
type BasePass struct {
	name        string
	state       PassState
	initialized bool
	destroyed   bool
}

// NewBasePass returns a base with the given name and state.
func NewBasePass(name string, state PassState) BasePass {
	return BasePass{name: name, state: state}
}

func (p *BasePass) Name() string { return p.name }

func (p *BasePass) State() PassState { return p.state }

// SetFill switches the pass between solid and wireframe rasterization.
func (p *BasePass) SetFill(m gpu.PolygonMode) { p.state.Fill = m }

// BeginInit reports whether Init should do its work, and marks the pass
// initialized when it should.
func (p *BasePass) BeginInit() bool {
	if p.initialized || p.destroyed {
		return false
	}
	p.initialized = true
	return true
}

// BeginDestroy reports whether Destroy should release resources. A pass that
// was never initialized has nothing to release.
func (p *BasePass) BeginDestroy() bool {
	if !p.initialized || p.destroyed {
		return false
	}
	p.destroyed = true
	return true
}

// Initialized reports whether Init ran and Destroy has not.
func (p *BasePass) Initialized() bool { return p.initialized && !p.destroyed }
