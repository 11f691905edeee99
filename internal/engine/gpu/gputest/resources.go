package gputest

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// Buffer is a recorded vertex or index buffer.
type Buffer struct {
	dev      *Device
	ID       uint32
	Index    bool
	Data     []byte
	Indices  []uint32
	Disposed bool

	// Uploads holds the byte count of every SetData call.
	Uploads []int
}

func (b *Buffer) Bind()   { b.dev.record("Buffer(%d).Bind()", b.ID) }
func (b *Buffer) Unbind() {}
func (b *Buffer) Size() int {
	return len(b.Data)
}

func (b *Buffer) SetData(data unsafe.Pointer, size, offset int) {
	if offset+size > len(b.Data) {
		grown := make([]byte, offset+size)
		copy(grown, b.Data)
		b.Data = grown
	}
	if size > 0 {
		copy(b.Data[offset:], unsafe.Slice((*byte)(data), size))
	}
	b.Uploads = append(b.Uploads, size)
	b.dev.record("Buffer(%d).SetData(%d,%d)", b.ID, size, offset)
}

func (b *Buffer) Dispose() {
	if b.Disposed {
		return
	}
	b.Disposed = true
	b.dev.Ledger.Unregister(b)
}

// VertexArray is a recorded vertex array.
type VertexArray struct {
	dev      *Device
	ID       uint32
	Layout   gpu.Layout
	Vertices *Buffer
	Indices  *Buffer
	Disposed bool
}

func (v *VertexArray) Bind()   {}
func (v *VertexArray) Unbind() {}

func (v *VertexArray) Dispose() {
	if v.Disposed {
		return
	}
	v.Disposed = true
	v.dev.Ledger.Unregister(v)
}

// Texture is a recorded texture.
type Texture struct {
	dev      *Device
	ID       uint32
	Desc     gpu.TextureDesc
	Data     []byte
	Disposed bool
}

func (t *Texture) Bind(slot int) {
	t.dev.textures[slot] = t
	t.dev.record("Texture(%d).Bind(%d)", t.ID, slot)
}

func (t *Texture) Unbind() {
	for slot, bound := range t.dev.textures {
		if bound == t {
			delete(t.dev.textures, slot)
		}
	}
}

func (t *Texture) SetData(data unsafe.Pointer, size, offset int) {
	if offset+size > len(t.Data) {
		size = len(t.Data) - offset
	}
	if size > 0 {
		copy(t.Data[offset:], unsafe.Slice((*byte)(data), size))
	}
}

func (t *Texture) Width() int32              { return t.Desc.Width }
func (t *Texture) Height() int32             { return t.Desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.Desc.Format }

func (t *Texture) Dispose() {
	if t.Disposed {
		return
	}
	t.Disposed = true
	t.dev.Ledger.Unregister(t)
}

// Program is a recorded shader program. Uniforms keeps the last value set
// for every name.
type Program struct {
	dev         *Device
	ID          uint32
	VertexSrc   string
	FragmentSrc string
	Uniforms    map[string]any
	Disposed    bool
}

func (p *Program) Bind() {
	p.dev.program = p
	p.dev.record("Program(%d).Bind()", p.ID)
}

func (p *Program) Unbind() {
	if p.dev.program == p {
		p.dev.program = nil
	}
}

func (p *Program) SetInt(name string, v int32)     { p.Uniforms[name] = v }
func (p *Program) SetFloat(name string, v float32) { p.Uniforms[name] = v }
func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	p.Uniforms[name] = v
}
func (p *Program) SetVec4(name string, v mgl32.Vec4) { p.Uniforms[name] = v }
func (p *Program) SetMat4(name string, v mgl32.Mat4) { p.Uniforms[name] = v }

func (p *Program) SetIntArray(name string, v []int32) {
	p.Uniforms[name] = append([]int32(nil), v...)
}

func (p *Program) SetFloatArray(name string, v []float32) {
	p.Uniforms[name] = append([]float32(nil), v...)
}

func (p *Program) SetVec3Array(name string, v []mgl32.Vec3) {
	p.Uniforms[name] = append([]mgl32.Vec3(nil), v...)
}

func (p *Program) Dispose() {
	if p.Disposed {
		return
	}
	p.Disposed = true
	p.dev.Ledger.Unregister(p)
}

// Framebuffer is a recorded offscreen target.
type Framebuffer struct {
	dev         *Device
	ID          uint32
	Desc        gpu.FramebufferDesc
	Textures    []*Texture
	DrawBuffers []int
	Disposed    bool

	// Pixels holds integer texels keyed by {attachment, x, y} for ReadPixel.
	Pixels  map[[3]int32]int32
	Cleared map[int]mgl32.Vec4
	Blits   int
}

func (f *Framebuffer) Bind() {
	f.dev.framebuffer = f
	f.dev.record("Framebuffer(%d).Bind()", f.ID)
}

func (f *Framebuffer) Unbind() {
	f.dev.framebuffer = nil
}

func (f *Framebuffer) Attachment(i int) gpu.Texture {
	if i < 0 || i >= len(f.Textures) {
		return nil
	}
	return f.Textures[i]
}

func (f *Framebuffer) SetDrawBuffers(attachments []int) {
	f.DrawBuffers = append(f.DrawBuffers[:0], attachments...)
	f.dev.record("Framebuffer(%d).SetDrawBuffers(%v)", f.ID, attachments)
}

func (f *Framebuffer) ClearAttachment(i int, v mgl32.Vec4) {
	if f.Cleared == nil {
		f.Cleared = make(map[int]mgl32.Vec4)
	}
	f.Cleared[i] = v
	if i < len(f.Textures) && f.Textures[i].Desc.Format.Integer() {
		for k := range f.Pixels {
			if k[0] == int32(i) {
				f.Pixels[k] = int32(v[0])
			}
		}
	}
	f.dev.record("Framebuffer(%d).ClearAttachment(%d)", f.ID, i)
}

func (f *Framebuffer) Resize(width, height int32) {
	f.Desc.Width, f.Desc.Height = width, height
	for _, t := range f.Textures {
		t.Desc.Width, t.Desc.Height = width, height
	}
	f.dev.record("Framebuffer(%d).Resize(%d,%d)", f.ID, width, height)
}

func (f *Framebuffer) Size() (int32, int32) { return f.Desc.Width, f.Desc.Height }

func (f *Framebuffer) ReadPixel(attachment int, x, y int32) int32 {
	return f.Pixels[[3]int32{int32(attachment), x, y}]
}

func (f *Framebuffer) BlitToScreen(attachment int, width, height int32) {
	f.Blits++
	f.dev.record("Framebuffer(%d).BlitToScreen(%d,%d,%d)", f.ID, attachment, width, height)
}

func (f *Framebuffer) Dispose() {
	if f.Disposed {
		return
	}
	f.Disposed = true
	for _, t := range f.Textures {
		t.Dispose()
	}
	f.dev.Ledger.Unregister(f)
}
