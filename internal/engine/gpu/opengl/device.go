// Package opengl implements gpu.Device on OpenGL 4.1 core.
// All calls must run on the thread that owns the GL context.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/ledger"
	"github.com/Faultbox/midgard-render/internal/logger"
)

// Device is the OpenGL graphics device.
type Device struct {
	ledger   *ledger.Ledger
	log      *zap.Logger
	maxSlots int
}

var _ gpu.Device = (*Device)(nil)

// New initializes OpenGL and returns a device that tracks resources in the
// process-wide ledger.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New() (*Device, error) {
	return NewWithLedger(ledger.Default())
}

// NewWithLedger is New with an explicit ledger.
func NewWithLedger(l *ledger.Ledger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{
		ledger: l,
		log:    logger.Named("gl"),
	}

	var units int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &units)
	d.maxSlots = int(units)

	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Int("texture_units", d.maxSlots),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return d, nil
}

func (d *Device) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) SetClearColor(c mgl32.Vec4) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
}

func (d *Device) SetViewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) SetDepthFunc(f gpu.DepthFunc) {
	if f == gpu.DepthNone {
		gl.Disable(gl.DEPTH_TEST)
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(depthFunc(f))
}

func (d *Device) SetDepthWrite(enabled bool) {
	gl.DepthMask(enabled)
}

func (d *Device) SetBlendFunc(f gpu.BlendFunc) {
	switch f {
	case gpu.BlendNone:
		gl.Disable(gl.BLEND)
	case gpu.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	case gpu.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	case gpu.BlendMultiply:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.DST_COLOR, gl.ZERO)
	default:
		panic(fmt.Sprintf("opengl: unknown blend func %d", int(f)))
	}
}

func (d *Device) SetCullFace(c gpu.CullMode) {
	switch c {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		panic(fmt.Sprintf("opengl: unknown cull mode %d", int(c)))
	}
}

func (d *Device) SetPolygonMode(m gpu.PolygonMode) {
	switch m {
	case gpu.Solid:
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	case gpu.Wireframe:
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	default:
		panic(fmt.Sprintf("opengl: unknown polygon mode %d", int(m)))
	}
}

func (d *Device) DrawIndexed(va gpu.VertexArray, count int32) {
	va.Bind()
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_INT, gl.PtrOffset(0))
	va.Unbind()
}

func (d *Device) DrawArray(va gpu.VertexArray, count int32, mode gpu.Primitive) {
	va.Bind()
	gl.DrawArrays(primitive(mode), 0, count)
	va.Unbind()
}

func (d *Device) NewVertexBuffer(size int, data unsafe.Pointer) (gpu.Buffer, error) {
	usage := uint32(gl.STATIC_DRAW)
	if data == nil {
		usage = gl.DYNAMIC_DRAW
	}
	b, err := newBuffer(d, gl.ARRAY_BUFFER, size, data, usage)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Device) NewIndexBuffer(indices []uint32) (gpu.Buffer, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("index buffer: no indices")
	}
	b, err := newBuffer(d, gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Device) NewVertexArray(vb gpu.Buffer, layout gpu.Layout, ib gpu.Buffer) (gpu.VertexArray, error) {
	return newVertexArray(d, vb, layout, ib), nil
}

func (d *Device) NewTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	t, err := newTexture(d, desc)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	p, err := newProgram(d, vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *Device) NewFramebuffer(desc gpu.FramebufferDesc) (gpu.Framebuffer, error) {
	fb, err := newFramebuffer(d, desc)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func (d *Device) BindDefaultFramebuffer() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (d *Device) MaxTextureSlots() int { return d.maxSlots }

func depthFunc(f gpu.DepthFunc) uint32 {
	switch f {
	case gpu.DepthLess:
		return gl.LESS
	case gpu.DepthLessEqual:
		return gl.LEQUAL
	case gpu.DepthAlways:
		return gl.ALWAYS
	default:
		panic(fmt.Sprintf("opengl: unknown depth func %d", int(f)))
	}
}

func primitive(p gpu.Primitive) uint32 {
	switch p {
	case gpu.Triangles:
		return gl.TRIANGLES
	case gpu.Lines:
		return gl.LINES
	case gpu.TriangleStrip:
		return gl.TRIANGLE_STRIP
	default:
		panic(fmt.Sprintf("opengl: unknown primitive %d", int(p)))
	}
}

func attribType(t gpu.AttribType) uint32 {
	switch t {
	case gpu.Float:
		return gl.FLOAT
	case gpu.Int:
		return gl.INT
	default:
		panic(fmt.Sprintf("opengl: unknown attribute type %d", int(t)))
	}
}

// textureFormat returns internal format, pixel format and pixel type.
func textureFormat(f gpu.TextureFormat) (int32, uint32, uint32) {
	switch f {
	case gpu.RGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	case gpu.R32I:
		return gl.R32I, gl.RED_INTEGER, gl.INT
	case gpu.R16F:
		return gl.R16F, gl.RED, gl.HALF_FLOAT
	case gpu.RGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	case gpu.Depth24:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT
	default:
		panic(fmt.Sprintf("opengl: unknown texture format %d", int(f)))
	}
}
