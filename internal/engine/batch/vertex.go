package batch

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// Vertex is one batched vertex as laid out in the GPU buffer.
type Vertex struct {
	Position [3]float32
	Color    [4]float32
	TexCoord [2]float32
	TexIndex float32
	ObjectID int32
}

const vertexSize = int(unsafe.Sizeof(Vertex{}))

var vertexLayout = gpu.Layout{
	Stride: int32(vertexSize),
	Attributes: []gpu.Attribute{
		{Location: 0, Components: 3, Type: gpu.Float, Offset: int(unsafe.Offsetof(Vertex{}.Position))},
		{Location: 1, Components: 4, Type: gpu.Float, Offset: int(unsafe.Offsetof(Vertex{}.Color))},
		{Location: 2, Components: 2, Type: gpu.Float, Offset: int(unsafe.Offsetof(Vertex{}.TexCoord))},
		{Location: 3, Components: 1, Type: gpu.Float, Offset: int(unsafe.Offsetof(Vertex{}.TexIndex))},
		{Location: 4, Components: 1, Type: gpu.Int, Offset: int(unsafe.Offsetof(Vertex{}.ObjectID))},
	},
}

// Unit quad centered on the origin, counter-clockwise from bottom-left.
var quadCorners = [4]mgl32.Vec4{
	{-0.5, -0.5, 0, 1},
	{0.5, -0.5, 0, 1},
	{0.5, 0.5, 0, 1},
	{-0.5, 0.5, 0, 1},
}

// UVRect is a sub-rectangle of a texture in normalized coordinates.
type UVRect struct {
	U0, V0, U1, V1 float32
}

// FullUV covers the whole texture.
var FullUV = UVRect{0, 0, 1, 1}

func (r UVRect) corners() [4][2]float32 {
	return [4][2]float32{
		{r.U0, r.V0},
		{r.U1, r.V0},
		{r.U1, r.V1},
		{r.U0, r.V1},
	}
}

// quadIndices builds the shared index pattern 0,1,2 2,3,0 for maxQuads quads.
func quadIndices(maxQuads int) []uint32 {
	indices := make([]uint32, maxQuads*6)
	var offset uint32
	for i := 0; i < len(indices); i += 6 {
		indices[i+0] = offset + 0
		indices[i+1] = offset + 1
		indices[i+2] = offset + 2
		indices[i+3] = offset + 2
		indices[i+4] = offset + 3
		indices[i+5] = offset + 0
		offset += 4
	}
	return indices
}
