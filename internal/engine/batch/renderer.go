// Package batch turns streams of quads and triangles into as few GPU draws
// as possible. Quads and triangles accumulate in independent batches that
// flush when vertex capacity or texture slots run out, or when the scene ends.
package batch

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/shaders"
	"github.com/Faultbox/midgard-render/internal/logger"
)

// Config sets batch capacities.
type Config struct {
	MaxQuads        int
	MaxTriangles    int
	MaxTextureSlots int
}

// DefaultConfig returns the capacities used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxQuads:        20000,
		MaxTriangles:    20000,
		MaxTextureSlots: 16,
	}
}

// Stats counts work since the last ResetStats.
type Stats struct {
	DrawCalls int
	Quads     int
	Triangles int
}

// Renderer is the batched primitive renderer.
type Renderer struct {
	dev gpu.Device
	cfg Config
	log *zap.Logger

	white       gpu.Texture
	program     gpu.Program
	clipProgram gpu.Program
	indices     gpu.Buffer

	quads batchState
	tris  batchState

	slotUniform    []int32
	viewProjection mgl32.Mat4
	blend          gpu.BlendMode
	stats          Stats
	destroyed      bool
}

// New creates the renderer's GPU resources. Texture slots are clamped to what
// the device supports.
func New(dev gpu.Device, cfg Config) (*Renderer, error) {
	if cfg.MaxQuads < 1 || cfg.MaxTriangles < 1 {
		return nil, fmt.Errorf("batch: capacities must be positive (quads %d, triangles %d)", cfg.MaxQuads, cfg.MaxTriangles)
	}
	if limit := dev.MaxTextureSlots(); cfg.MaxTextureSlots > limit {
		cfg.MaxTextureSlots = limit
	}
	// Slot 0 is reserved, so one more is needed for any textured draw.
	if cfg.MaxTextureSlots < 2 {
		return nil, errors.New("batch: at least 2 texture slots required")
	}

	r := &Renderer{
		dev:            dev,
		cfg:            cfg,
		log:            logger.Named("batch"),
		viewProjection: mgl32.Ident4(),
	}
	if err := r.init(); err != nil {
		r.Destroy()
		return nil, err
	}

	r.log.Debug("batch renderer created",
		zap.Int("max_quads", cfg.MaxQuads),
		zap.Int("max_triangles", cfg.MaxTriangles),
		zap.Int("texture_slots", cfg.MaxTextureSlots))
	return r, nil
}

func (r *Renderer) init() error {
	var err error

	white := []byte{255, 255, 255, 255}
	r.white, err = r.dev.NewTexture(gpu.TextureDesc{Width: 1, Height: 1, Format: gpu.RGBA8, Pixels: white, Nearest: true})
	if err != nil {
		return fmt.Errorf("create white texture: %w", err)
	}

	r.program, err = r.dev.NewProgram(shaders.BatchVertex(), shaders.BatchFragment(r.cfg.MaxTextureSlots, false))
	if err != nil {
		return fmt.Errorf("create batch program: %w", err)
	}
	r.clipProgram, err = r.dev.NewProgram(shaders.BatchVertex(), shaders.BatchFragment(r.cfg.MaxTextureSlots, true))
	if err != nil {
		return fmt.Errorf("create clip program: %w", err)
	}

	r.indices, err = r.dev.NewIndexBuffer(quadIndices(r.cfg.MaxQuads))
	if err != nil {
		return fmt.Errorf("create quad indices: %w", err)
	}

	r.quads = newBatchState(r.cfg.MaxQuads*4, r.cfg.MaxTextureSlots, r.white, true)
	if err := r.createBuffers(&r.quads, r.indices); err != nil {
		return fmt.Errorf("create quad buffers: %w", err)
	}
	r.tris = newBatchState(r.cfg.MaxTriangles*3, r.cfg.MaxTextureSlots, r.white, false)
	if err := r.createBuffers(&r.tris, nil); err != nil {
		return fmt.Errorf("create triangle buffers: %w", err)
	}

	r.slotUniform = make([]int32, r.cfg.MaxTextureSlots)
	for i := range r.slotUniform {
		r.slotUniform[i] = int32(i)
	}
	return nil
}

func (r *Renderer) createBuffers(b *batchState, ib gpu.Buffer) error {
	vb, err := r.dev.NewVertexBuffer(b.maxVertices*vertexSize, nil)
	if err != nil {
		return err
	}
	b.vb = vb
	va, err := r.dev.NewVertexArray(vb, vertexLayout, ib)
	if err != nil {
		return err
	}
	b.va = va
	return nil
}

// Destroy releases every GPU resource. Safe to call more than once.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true

	r.quads.dispose()
	r.tris.dispose()
	if r.indices != nil {
		r.indices.Dispose()
		r.indices = nil
	}
	if r.clipProgram != nil {
		r.clipProgram.Dispose()
		r.clipProgram = nil
	}
	if r.program != nil {
		r.program.Dispose()
		r.program = nil
	}
	if r.white != nil {
		r.white.Dispose()
		r.white = nil
	}
}

// Config returns the effective capacities.
func (r *Renderer) Config() Config { return r.cfg }

// BeginScene sets the transform for the scene and starts empty batches.
func (r *Renderer) BeginScene(viewProjection mgl32.Mat4) {
	r.viewProjection = viewProjection
	r.quads.reset()
	r.tris.reset()
}

// EndScene flushes both batches.
func (r *Renderer) EndScene() {
	r.Flush()
}

// SetBlending changes the mode used by the next flush. Vertices already queued
// are drawn with whatever mode is active when they flush, so callers flush
// before switching.
func (r *Renderer) SetBlending(mode gpu.BlendMode) {
	mode.Func() // unknown modes panic here rather than mid-frame
	r.blend = mode
}

// Blending returns the active blend mode.
func (r *Renderer) Blending() gpu.BlendMode { return r.blend }

// DrawQuad queues an untextured quad. transform maps the unit quad to world space.
func (r *Renderer) DrawQuad(transform mgl32.Mat4, color mgl32.Vec4, objectID int32) {
	r.drawQuad(transform, nil, color, FullUV, objectID)
}

// DrawTexturedQuad queues a quad sampling the whole texture.
func (r *Renderer) DrawTexturedQuad(transform mgl32.Mat4, tex gpu.Texture, tint mgl32.Vec4, objectID int32) {
	r.drawQuad(transform, tex, tint, FullUV, objectID)
}

// DrawTexturedQuadUV queues a quad sampling a sub-rectangle of the texture.
func (r *Renderer) DrawTexturedQuadUV(transform mgl32.Mat4, tex gpu.Texture, tint mgl32.Vec4, uv UVRect, objectID int32) {
	r.drawQuad(transform, tex, tint, uv, objectID)
}

func (r *Renderer) drawQuad(transform mgl32.Mat4, tex gpu.Texture, color mgl32.Vec4, uv UVRect, objectID int32) {
	b := &r.quads
	if !b.fits(4) {
		r.flushBatch(b)
	}
	slot := r.slot(b, tex)

	uvs := uv.corners()
	for i, c := range quadCorners {
		p := transform.Mul4x1(c)
		b.push(Vertex{
			Position: [3]float32{p[0], p[1], p[2]},
			Color:    color,
			TexCoord: uvs[i],
			TexIndex: float32(slot),
			ObjectID: objectID,
		})
	}
	b.indexCount += 6
	r.stats.Quads++
}

// DrawTri queues an untextured triangle given in world space.
func (r *Renderer) DrawTri(points [3]mgl32.Vec3, color mgl32.Vec4, objectID int32) {
	r.drawTri(points, [3]mgl32.Vec2{}, nil, color, objectID)
}

// DrawTexturedTri queues a textured triangle given in world space.
func (r *Renderer) DrawTexturedTri(points [3]mgl32.Vec3, uvs [3]mgl32.Vec2, tex gpu.Texture, tint mgl32.Vec4, objectID int32) {
	r.drawTri(points, uvs, tex, tint, objectID)
}

func (r *Renderer) drawTri(points [3]mgl32.Vec3, uvs [3]mgl32.Vec2, tex gpu.Texture, color mgl32.Vec4, objectID int32) {
	b := &r.tris
	if !b.fits(3) {
		r.flushBatch(b)
	}
	slot := r.slot(b, tex)

	for i, p := range points {
		b.push(Vertex{
			Position: p,
			Color:    color,
			TexCoord: uvs[i],
			TexIndex: float32(slot),
			ObjectID: objectID,
		})
	}
	b.indexCount += 3
	r.stats.Triangles++
}

// slot finds or claims a texture slot, flushing first when none are free.
func (r *Renderer) slot(b *batchState, tex gpu.Texture) int {
	slot := b.slotFor(tex)
	if slot >= 0 {
		return slot
	}
	r.flushBatch(b)
	return b.slotFor(tex)
}

// Flush draws both batches, quads first, and starts new ones.
func (r *Renderer) Flush() {
	r.flushBatch(&r.quads)
	r.flushBatch(&r.tris)
}

func (r *Renderer) flushBatch(b *batchState) {
	if b.empty() {
		return
	}

	b.vb.SetData(unsafe.Pointer(&b.vertices[0]), b.vertexCount*vertexSize, 0)

	for i := 0; i < b.slotCursor; i++ {
		b.textures[i].Bind(i)
	}

	program := r.program
	if r.blend == gpu.Clip {
		program = r.clipProgram
	}
	program.Bind()
	program.SetMat4("u_viewProjection", r.viewProjection)
	program.SetIntArray("u_textures", r.slotUniform)

	r.dev.SetBlendFunc(r.blend.Func())
	if b.indexed {
		r.dev.DrawIndexed(b.va, int32(b.indexCount))
	} else {
		r.dev.DrawArray(b.va, int32(b.vertexCount), gpu.Triangles)
	}
	r.stats.DrawCalls++

	b.reset()
}

// Stats returns counters accumulated since the last ResetStats.
func (r *Renderer) Stats() Stats { return r.stats }

// ResetStats zeroes the counters, usually once per frame.
func (r *Renderer) ResetStats() { r.stats = Stats{} }
