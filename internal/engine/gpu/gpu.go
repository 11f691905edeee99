// Package gpu defines the graphics-device boundary the render core draws
// through. Backends live in gpu/opengl; gpu/gputest records calls for tests.
package gpu

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Resource owns one native handle. Dispose releases it once; later calls are no-ops.
type Resource interface {
	Dispose()
}

// Buffer is a vertex or index buffer.
type Buffer interface {
	Resource
	Bind()
	Unbind()
	// SetData uploads size bytes from data starting at byte offset.
	SetData(data unsafe.Pointer, size, offset int)
	// Size returns the allocated size in bytes.
	Size() int
}

// VertexArray binds a vertex buffer layout and an optional index buffer.
type VertexArray interface {
	Resource
	Bind()
	Unbind()
}

// Texture is a 2D texture.
type Texture interface {
	Resource
	Bind(slot int)
	Unbind()
	SetData(data unsafe.Pointer, size, offset int)
	Width() int32
	Height() int32
	Format() TextureFormat
}

// Program is a linked shader program. Setters apply to the named uniform and
// silently ignore names the program does not use.
type Program interface {
	Resource
	Bind()
	Unbind()
	SetInt(name string, v int32)
	SetIntArray(name string, v []int32)
	SetFloat(name string, v float32)
	SetFloatArray(name string, v []float32)
	SetVec3(name string, v mgl32.Vec3)
	SetVec3Array(name string, v []mgl32.Vec3)
	SetVec4(name string, v mgl32.Vec4)
	SetMat4(name string, v mgl32.Mat4)
}

// Framebuffer is an offscreen target with color attachments and an optional depth buffer.
type Framebuffer interface {
	Resource
	Bind()
	Unbind()
	// Attachment returns the texture behind color attachment i.
	Attachment(i int) Texture
	// SetDrawBuffers enables the listed color attachments for writing.
	SetDrawBuffers(attachments []int)
	// ClearAttachment clears one enabled color attachment. Integer
	// attachments take int32(v[0]).
	ClearAttachment(i int, v mgl32.Vec4)
	Resize(width, height int32)
	Size() (width, height int32)
	// ReadPixel reads one integer texel from an integer-format attachment.
	ReadPixel(attachment int, x, y int32) int32
	// BlitToScreen copies attachment into the default framebuffer at the given size.
	BlitToScreen(attachment int, width, height int32)
}

// Device is the graphics context. State setters are sticky until changed.
type Device interface {
	Clear()
	SetClearColor(c mgl32.Vec4)
	SetViewport(x, y, width, height int32)
	SetDepthFunc(f DepthFunc)
	SetDepthWrite(enabled bool)
	SetBlendFunc(f BlendFunc)
	SetCullFace(c CullMode)
	SetPolygonMode(m PolygonMode)

	// DrawIndexed draws count uint32 indices as triangles.
	DrawIndexed(va VertexArray, count int32)
	DrawArray(va VertexArray, count int32, mode Primitive)

	// NewVertexBuffer allocates size bytes. A nil data pointer leaves the
	// buffer uninitialized for streaming.
	NewVertexBuffer(size int, data unsafe.Pointer) (Buffer, error)
	NewIndexBuffer(indices []uint32) (Buffer, error)
	// NewVertexArray describes vb with layout. vb and ib may be nil for
	// attribute-less draws such as full-screen triangles.
	NewVertexArray(vb Buffer, layout Layout, ib Buffer) (VertexArray, error)
	NewTexture(desc TextureDesc) (Texture, error)
	NewProgram(vertexSrc, fragmentSrc string) (Program, error)
	NewFramebuffer(desc FramebufferDesc) (Framebuffer, error)

	BindDefaultFramebuffer()
	// MaxTextureSlots reports how many samplers a fragment shader may use.
	MaxTextureSlots() int
}
