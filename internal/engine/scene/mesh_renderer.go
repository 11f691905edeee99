package scene

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/shaders"
	"github.com/Faultbox/midgard-render/internal/logger"
)

// MeshVertex is the vertex format for uploaded meshes.
type MeshVertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

var meshLayout = gpu.Layout{
	Stride: int32(unsafe.Sizeof(MeshVertex{})),
	Attributes: []gpu.Attribute{
		{Location: 0, Components: 3, Type: gpu.Float, Offset: int(unsafe.Offsetof(MeshVertex{}.Position))},
		{Location: 1, Components: 3, Type: gpu.Float, Offset: int(unsafe.Offsetof(MeshVertex{}.Normal))},
		{Location: 2, Components: 2, Type: gpu.Float, Offset: int(unsafe.Offsetof(MeshVertex{}.TexCoord))},
	},
}

// Geometry owns the GPU buffers behind one uploaded mesh.
type Geometry struct {
	VertexArray gpu.VertexArray
	IndexCount  int32

	vb gpu.Buffer
	ib gpu.Buffer
}

// UploadMesh creates the vertex and index buffers for a mesh.
func UploadMesh(dev gpu.Device, vertices []MeshVertex, indices []uint32) (*Geometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("upload mesh: empty geometry")
	}
	size := len(vertices) * int(meshLayout.Stride)
	vb, err := dev.NewVertexBuffer(size, unsafe.Pointer(&vertices[0]))
	if err != nil {
		return nil, fmt.Errorf("upload mesh: %w", err)
	}
	ib, err := dev.NewIndexBuffer(indices)
	if err != nil {
		vb.Dispose()
		return nil, fmt.Errorf("upload mesh: %w", err)
	}
	va, err := dev.NewVertexArray(vb, meshLayout, ib)
	if err != nil {
		vb.Dispose()
		ib.Dispose()
		return nil, fmt.Errorf("upload mesh: %w", err)
	}
	return &Geometry{VertexArray: va, IndexCount: int32(len(indices)), vb: vb, ib: ib}, nil
}

// Data returns a MeshData drawing this geometry.
func (g *Geometry) Data(tex gpu.Texture, color mgl32.Vec4) MeshData {
	return MeshData{VertexArray: g.VertexArray, IndexCount: g.IndexCount, Texture: tex, Color: color}
}

// Dispose releases the vertex array and both buffers.
func (g *Geometry) Dispose() {
	if g.VertexArray != nil {
		g.VertexArray.Dispose()
		g.VertexArray = nil
	}
	if g.vb != nil {
		g.vb.Dispose()
		g.vb = nil
	}
	if g.ib != nil {
		g.ib.Dispose()
		g.ib = nil
	}
}

// MeshRenderer draws meshes one draw call each into the G-buffer.
type MeshRenderer struct {
	program gpu.Program
	white   gpu.Texture
}

func (r *MeshRenderer) Init(dev gpu.Device) error {
	program, err := dev.NewProgram(shaders.Source("mesh.vert"), shaders.Source("mesh.frag"))
	if err != nil {
		return fmt.Errorf("mesh shader: %w", err)
	}
	tex, err := dev.NewTexture(gpu.TextureDesc{Width: 1, Height: 1, Format: gpu.RGBA8, Pixels: []byte{255, 255, 255, 255}, Nearest: true})
	if err != nil {
		program.Dispose()
		return fmt.Errorf("mesh white texture: %w", err)
	}
	r.program = program
	r.white = tex
	return nil
}

func (r *MeshRenderer) Draw(ctx *DrawContext, objects []*Object) {
	if r.program == nil {
		logger.Named("scene").Warn("mesh renderer not initialized", zap.Int("objects", len(objects)))
		return
	}
	// Batched geometry queued earlier this frame lands underneath.
	ctx.Batch.Flush()

	r.program.Bind()
	r.program.SetMat4("u_viewProjection", ctx.ViewProjection)
	r.program.SetInt("u_texture", 0)

	for _, o := range objects {
		m := o.Mesh
		if m == nil || m.VertexArray == nil || m.IndexCount == 0 {
			continue
		}
		tex := m.Texture
		if tex == nil {
			tex = r.white
		}
		tex.Bind(0)

		alphaTest := int32(0)
		if o.Blend == gpu.Clip {
			alphaTest = 1
		}
		r.program.SetMat4("u_model", o.Transform)
		r.program.SetVec4("u_color", m.Color)
		r.program.SetInt("u_objectID", o.ID)
		r.program.SetInt("u_alphaTest", alphaTest)

		ctx.Device.SetBlendFunc(o.Blend.Func())
		ctx.Device.DrawIndexed(m.VertexArray, m.IndexCount)
	}
}

func (r *MeshRenderer) Destroy() {
	if r.program != nil {
		r.program.Dispose()
		r.program = nil
	}
	if r.white != nil {
		r.white.Dispose()
		r.white = nil
	}
}

// Cube returns a unit cube centered on the origin with per-face normals.
func Cube() ([]MeshVertex, []uint32) {
	faces := [6]struct{ n, u, v mgl32.Vec3 }{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	signs := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]MeshVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for i, s := range signs {
			p := f.n.Add(f.u.Mul(s[0])).Add(f.v.Mul(s[1])).Mul(0.5)
			vertices = append(vertices, MeshVertex{
				Position: [3]float32{p[0], p[1], p[2]},
				Normal:   [3]float32{f.n[0], f.n[1], f.n[2]},
				TexCoord: uvs[i],
			})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return vertices, indices
}
