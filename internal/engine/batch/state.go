package batch

import (
	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// batchState is one independent accumulation buffer (quads or triangles).
type batchState struct {
	vertices    []Vertex
	vertexCount int
	indexCount  int
	maxVertices int

	// textures[0] is always the white texture.
	textures   []gpu.Texture
	slotCursor int

	vb      gpu.Buffer
	va      gpu.VertexArray
	indexed bool
}

func newBatchState(maxVertices, slots int, white gpu.Texture, indexed bool) batchState {
	b := batchState{
		vertices:    make([]Vertex, maxVertices),
		maxVertices: maxVertices,
		textures:    make([]gpu.Texture, slots),
		indexed:     indexed,
	}
	b.textures[0] = white
	b.reset()
	return b
}

// reset starts a new batch. Slot 0 survives.
func (b *batchState) reset() {
	b.vertexCount = 0
	b.indexCount = 0
	for i := 1; i < len(b.textures); i++ {
		b.textures[i] = nil
	}
	b.slotCursor = 1
}

func (b *batchState) empty() bool { return b.vertexCount == 0 }

func (b *batchState) fits(vertices int) bool {
	return b.vertexCount+vertices <= b.maxVertices
}

// slotFor returns the slot already holding t, or claims the next free one.
// It returns -1 when every slot is taken.
func (b *batchState) slotFor(t gpu.Texture) int {
	if t == nil {
		return 0
	}
	for i := 0; i < b.slotCursor; i++ {
		if b.textures[i] == t {
			return i
		}
	}
	if b.slotCursor >= len(b.textures) {
		return -1
	}
	slot := b.slotCursor
	b.textures[slot] = t
	b.slotCursor++
	return slot
}

func (b *batchState) push(v Vertex) {
	b.vertices[b.vertexCount] = v
	b.vertexCount++
}

func (b *batchState) dispose() {
	if b.va != nil {
		b.va.Dispose()
		b.va = nil
	}
	if b.vb != nil {
		b.vb.Dispose()
		b.vb = nil
	}
}
