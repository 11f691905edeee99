// Package gputest provides an in-memory gpu.Device that records every call.
// Resources it creates register with the device's own ledger, so tests can
// assert that teardown released everything.
package gputest

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/ledger"
)

// State is the sticky device state at a point in time.
type State struct {
	Depth      gpu.DepthFunc
	DepthWrite bool
	Blend      gpu.BlendFunc
	Cull       gpu.CullMode
	Fill       gpu.PolygonMode
	ClearColor mgl32.Vec4
	Viewport   [4]int32
}

// Draw is one recorded draw call with the state it was issued under.
type Draw struct {
	Indexed     bool
	VertexArray *VertexArray
	Count       int32
	Mode        gpu.Primitive
	Program     *Program
	Framebuffer *Framebuffer
	DrawBuffers []int
	Textures    map[int]*Texture
	Uniforms    map[string]any
	State       State
}

// Device records calls instead of talking to a GPU.
type Device struct {
	Ledger *ledger.Ledger
	Slots  int

	// Calls is a readable trace such as "SetDepthFunc(less)".
	Calls []string
	Draws []Draw
	State State

	Clears int

	program     *Program
	framebuffer *Framebuffer
	textures    map[int]*Texture
	nextHandle  uint32
	failProgram bool
}

var _ gpu.Device = (*Device)(nil)

// New returns a device with 16 texture slots and a private ledger.
func New() *Device {
	return &Device{
		Ledger:   ledger.New(),
		Slots:    16,
		textures: make(map[int]*Texture),
		State:    State{DepthWrite: true},
	}
}

// FailPrograms makes subsequent NewProgram calls return an error.
func (d *Device) FailPrograms(fail bool) { d.failProgram = fail }

// Reset clears recorded calls and draws but keeps resources and state.
func (d *Device) Reset() {
	d.Calls = nil
	d.Draws = nil
	d.Clears = 0
}

func (d *Device) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Device) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

func (d *Device) Clear() {
	d.Clears++
	d.record("Clear()")
}

func (d *Device) SetClearColor(c mgl32.Vec4) {
	d.State.ClearColor = c
	d.record("SetClearColor(%v)", c)
}

func (d *Device) SetViewport(x, y, width, height int32) {
	d.State.Viewport = [4]int32{x, y, width, height}
	d.record("SetViewport(%d,%d,%d,%d)", x, y, width, height)
}

func (d *Device) SetDepthFunc(f gpu.DepthFunc) {
	d.State.Depth = f
	d.record("SetDepthFunc(%s)", f)
}

func (d *Device) SetDepthWrite(enabled bool) {
	d.State.DepthWrite = enabled
	d.record("SetDepthWrite(%t)", enabled)
}

func (d *Device) SetBlendFunc(f gpu.BlendFunc) {
	d.State.Blend = f
	d.record("SetBlendFunc(%s)", f)
}

func (d *Device) SetCullFace(c gpu.CullMode) {
	d.State.Cull = c
	d.record("SetCullFace(%s)", c)
}

func (d *Device) SetPolygonMode(m gpu.PolygonMode) {
	d.State.Fill = m
	d.record("SetPolygonMode(%s)", m)
}

func (d *Device) DrawIndexed(va gpu.VertexArray, count int32) {
	d.draw(true, va, count, gpu.Triangles)
	d.record("DrawIndexed(%d)", count)
}

func (d *Device) DrawArray(va gpu.VertexArray, count int32, mode gpu.Primitive) {
	d.draw(false, va, count, mode)
	d.record("DrawArray(%d,%s)", count, mode)
}

func (d *Device) draw(indexed bool, va gpu.VertexArray, count int32, mode gpu.Primitive) {
	dr := Draw{
		Indexed:     indexed,
		Count:       count,
		Mode:        mode,
		Program:     d.program,
		Framebuffer: d.framebuffer,
		Textures:    make(map[int]*Texture, len(d.textures)),
		State:       d.State,
	}
	if v, ok := va.(*VertexArray); ok {
		dr.VertexArray = v
	}
	if d.framebuffer != nil {
		dr.DrawBuffers = append([]int(nil), d.framebuffer.DrawBuffers...)
	}
	for slot, t := range d.textures {
		dr.Textures[slot] = t
	}
	if d.program != nil {
		dr.Uniforms = make(map[string]any, len(d.program.Uniforms))
		for k, v := range d.program.Uniforms {
			dr.Uniforms[k] = v
		}
	}
	d.Draws = append(d.Draws, dr)
}

func (d *Device) NewVertexBuffer(size int, data unsafe.Pointer) (gpu.Buffer, error) {
	b := &Buffer{dev: d, ID: d.handle(), Data: make([]byte, size)}
	if data != nil {
		copy(b.Data, unsafe.Slice((*byte)(data), size))
	}
	d.Ledger.Register(b)
	d.record("NewVertexBuffer(%d)", size)
	return b, nil
}

func (d *Device) NewIndexBuffer(indices []uint32) (gpu.Buffer, error) {
	b := &Buffer{dev: d, ID: d.handle(), Index: true, Indices: append([]uint32(nil), indices...)}
	b.Data = make([]byte, len(indices)*4)
	d.Ledger.Register(b)
	d.record("NewIndexBuffer(%d)", len(indices))
	return b, nil
}

func (d *Device) NewVertexArray(vb gpu.Buffer, layout gpu.Layout, ib gpu.Buffer) (gpu.VertexArray, error) {
	va := &VertexArray{dev: d, ID: d.handle(), Layout: layout}
	if b, ok := vb.(*Buffer); ok {
		va.Vertices = b
	}
	if b, ok := ib.(*Buffer); ok {
		va.Indices = b
	}
	d.Ledger.Register(va)
	d.record("NewVertexArray()")
	return va, nil
}

func (d *Device) NewTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	t := &Texture{dev: d, ID: d.handle(), Desc: desc, Data: make([]byte, desc.Size())}
	copy(t.Data, desc.Pixels)
	d.Ledger.Register(t)
	d.record("NewTexture(%dx%d,%s)", desc.Width, desc.Height, desc.Format)
	return t, nil
}

func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	if d.failProgram {
		return nil, fmt.Errorf("link: forced failure")
	}
	p := &Program{
		dev:         d,
		ID:          d.handle(),
		VertexSrc:   vertexSrc,
		FragmentSrc: fragmentSrc,
		Uniforms:    make(map[string]any),
	}
	d.Ledger.Register(p)
	d.record("NewProgram()")
	return p, nil
}

func (d *Device) NewFramebuffer(desc gpu.FramebufferDesc) (gpu.Framebuffer, error) {
	fb := &Framebuffer{dev: d, ID: d.handle(), Desc: desc, Pixels: make(map[[3]int32]int32)}
	for _, f := range desc.Attachments {
		t, _ := d.NewTexture(gpu.TextureDesc{Width: desc.Width, Height: desc.Height, Format: f})
		fb.Textures = append(fb.Textures, t.(*Texture))
	}
	d.Ledger.Register(fb)
	d.record("NewFramebuffer(%dx%d,%d)", desc.Width, desc.Height, len(desc.Attachments))
	return fb, nil
}

func (d *Device) BindDefaultFramebuffer() {
	d.framebuffer = nil
	d.record("BindDefaultFramebuffer()")
}

func (d *Device) MaxTextureSlots() int { return d.Slots }

// CallsWithPrefix returns the recorded calls starting with prefix, in order.
func (d *Device) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range d.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}
