package pipeline

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/gpu/gputest"
)

// recordingPass appends lifecycle events to a shared journal.
type recordingPass struct {
	BasePass
	journal *[]string
	dev     *gputest.Device
	seen    []gputest.State
	inits   int
	fail    error
}

func newRecordingPass(name string, state PassState, journal *[]string, dev *gputest.Device) *recordingPass {
	return &recordingPass{BasePass: NewBasePass(name, state), journal: journal, dev: dev}
}

func (p *recordingPass) Init() error {
	if !p.BeginInit() {
		return nil
	}
	p.inits++
	*p.journal = append(*p.journal, "init "+p.Name())
	return p.fail
}

func (p *recordingPass) Draw() {
	*p.journal = append(*p.journal, "draw "+p.Name())
	if p.dev != nil {
		p.seen = append(p.seen, p.dev.State)
	}
}

func (p *recordingPass) Destroy() {
	if !p.BeginDestroy() {
		return
	}
	*p.journal = append(*p.journal, "destroy "+p.Name())
}

func TestProcessBeforeInit(t *testing.T) {
	p := New("test")
	assert.ErrorIs(t, p.Process(gputest.New()), ErrNotInitialized)
	assert.Equal(t, Uninitialized, p.State())
}

func TestPassOrder(t *testing.T) {
	var journal []string
	dev := gputest.New()
	p := New("test")
	for _, name := range []string{"scene", "light", "fog"} {
		require.NoError(t, p.Add(newRecordingPass(name, PassState{}, &journal, dev)))
	}

	require.NoError(t, p.Init())
	require.NoError(t, p.Process(dev))
	p.Destroy()

	assert.Equal(t, []string{
		"init scene", "init light", "init fog",
		"draw scene", "draw light", "draw fog",
		"destroy scene", "destroy light", "destroy fog",
	}, journal)
	assert.ErrorIs(t, p.Process(dev), ErrNotInitialized)
}

func TestStateAppliedPerPass(t *testing.T) {
	var journal []string
	dev := gputest.New()

	opaque := newRecordingPass("opaque", PassState{
		Depth: gpu.DepthLess,
		Blend: gpu.BlendNone,
		Cull:  gpu.CullBack,
	}, &journal, dev)
	overlay := newRecordingPass("overlay", PassState{
		Depth:         gpu.DepthLessEqual,
		DepthReadOnly: true,
		Blend:         gpu.BlendAlpha,
		Fill:          gpu.Wireframe,
	}, &journal, dev)

	p := New("test")
	require.NoError(t, p.Add(opaque))
	require.NoError(t, p.Add(overlay))
	require.NoError(t, p.Init())

	for frame := 0; frame < 2; frame++ {
		require.NoError(t, p.Process(dev))
	}

	require.Len(t, opaque.seen, 2)
	require.Len(t, overlay.seen, 2)
	for _, st := range opaque.seen {
		assert.Equal(t, gpu.DepthLess, st.Depth)
		assert.True(t, st.DepthWrite)
		assert.Equal(t, gpu.BlendNone, st.Blend)
		assert.Equal(t, gpu.CullBack, st.Cull)
		assert.Equal(t, gpu.Solid, st.Fill)
	}
	for _, st := range overlay.seen {
		assert.Equal(t, gpu.DepthLessEqual, st.Depth)
		assert.False(t, st.DepthWrite)
		assert.Equal(t, gpu.BlendAlpha, st.Blend)
		assert.Equal(t, gpu.CullNone, st.Cull)
		assert.Equal(t, gpu.Wireframe, st.Fill)
	}

	// All four setters run for every pass, every frame, even when unchanged.
	assert.Len(t, dev.CallsWithPrefix("SetDepthFunc"), 4)
	assert.Len(t, dev.CallsWithPrefix("SetBlendFunc"), 4)
	assert.Len(t, dev.CallsWithPrefix("SetPolygonMode"), 4)
	assert.Len(t, dev.CallsWithPrefix("SetCullFace"), 4)
}

func TestInitAndDestroyIdempotent(t *testing.T) {
	var journal []string
	pass := newRecordingPass("only", PassState{}, &journal, nil)
	p := New("test")
	require.NoError(t, p.Add(pass))

	require.NoError(t, p.Init())
	require.NoError(t, p.Init())
	assert.Equal(t, 1, pass.inits)

	p.Destroy()
	p.Destroy()
	assert.Equal(t, []string{"init only", "destroy only"}, journal)
	assert.ErrorIs(t, p.Init(), ErrDestroyed)
}

func TestInitFailureWrapsAndCleansUp(t *testing.T) {
	var journal []string
	boom := errors.New("shader link failed")

	first := newRecordingPass("first", PassState{}, &journal, nil)
	second := newRecordingPass("second", PassState{}, &journal, nil)
	second.fail = boom
	third := newRecordingPass("third", PassState{}, &journal, nil)

	p := New("test")
	for _, pass := range []Pass{first, second, third} {
		require.NoError(t, p.Add(pass))
	}

	err := p.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "init pass 1 (second)")
	assert.Equal(t, Destroyed, p.State())
	assert.Equal(t, []string{"init first", "init second", "destroy first", "destroy second"}, journal)
}

func TestAddAfterInit(t *testing.T) {
	p := New("test")
	require.NoError(t, p.Init())
	var journal []string
	assert.ErrorIs(t, p.Add(newRecordingPass("late", PassState{}, &journal, nil)), ErrInitialized)
}

func TestClearColor(t *testing.T) {
	dev := gputest.New()
	p := New("test")
	require.NoError(t, p.Init())

	require.NoError(t, p.Process(dev))
	assert.Equal(t, 0, dev.Clears)

	c := mgl32.Vec4{0.1, 0.2, 0.3, 1}
	p.SetClearColor(c)
	require.NoError(t, p.Process(dev))
	assert.Equal(t, 1, dev.Clears)
	assert.Equal(t, c, dev.State.ClearColor)

	got, ok := p.ClearColor()
	assert.True(t, ok)
	assert.Equal(t, c, got)

	p.DisableClear()
	require.NoError(t, p.Process(dev))
	assert.Equal(t, 1, dev.Clears)
}

func TestTargetAttachments(t *testing.T) {
	dev := gputest.New()
	fbRes, err := dev.NewFramebuffer(gpu.FramebufferDesc{
		Width: 8, Height: 8,
		Attachments: []gpu.TextureFormat{gpu.RGBA8, gpu.R32I, gpu.RGBA16F},
	})
	require.NoError(t, err)
	fb := fbRes.(*gputest.Framebuffer)

	var journal []string
	geometry := newRecordingPass("geometry", PassState{Attachments: []int{0, 1, 2}}, &journal, dev)
	post := newRecordingPass("post", PassState{Attachments: []int{0}}, &journal, dev)
	keep := newRecordingPass("keep", PassState{}, &journal, dev)

	p := New("test")
	p.SetTarget(fb, []int{0, 1, 2})
	p.SetClearColor(mgl32.Vec4{})
	for _, pass := range []Pass{geometry, post, keep} {
		require.NoError(t, p.Add(pass))
	}
	require.NoError(t, p.Init())
	require.NoError(t, p.Process(dev))

	assert.Equal(t, []int{0}, fb.DrawBuffers, "pass without attachments keeps the previous set")
	assert.Same(t, fb, p.Target().(*gputest.Framebuffer))
	assert.Equal(t, []string{
		"Framebuffer(1).SetDrawBuffers([0 1 2])",
		"Framebuffer(1).SetDrawBuffers([0 1 2])",
		"Framebuffer(1).SetDrawBuffers([0])",
	}, dev.CallsWithPrefix("Framebuffer(1).SetDrawBuffers"))

	p.Destroy()
	fb.Dispose()
	assert.Empty(t, dev.Ledger.DumpLeaks())
}

func TestLifecycleString(t *testing.T) {
	assert.Equal(t, "initialized", Initialized.String())
	assert.Equal(t, "Lifecycle(5)", Lifecycle(5).String())
}
