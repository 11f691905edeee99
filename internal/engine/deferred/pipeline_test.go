package deferred

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-render/internal/config"
	"github.com/Faultbox/midgard-render/internal/engine/gpu"
	"github.com/Faultbox/midgard-render/internal/engine/gpu/gputest"
	"github.com/Faultbox/midgard-render/internal/engine/lighting"
	"github.com/Faultbox/midgard-render/internal/engine/pipeline"
	"github.com/Faultbox/midgard-render/internal/engine/scene"
	"github.com/Faultbox/midgard-render/internal/engine/volume"
)

// lookCamera sits at the origin looking down -Z.
type lookCamera struct{}

func (lookCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
}
func (lookCamera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
}
func (c lookCamera) ViewProjectionMatrix() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}
func (c lookCamera) Frustum() volume.Frustum {
	return volume.ExtractFrustum(c.ProjectionMatrix(), c.ViewMatrix().Inv())
}
func (lookCamera) Position() mgl32.Vec3 { return mgl32.Vec3{} }

var unitBox = volume.NewAABB(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{1, 1, 1})

type fixture struct {
	dev  *gputest.Device
	p    *Pipeline
	list *scene.List
	geo  *scene.Geometry
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	dev := gputest.New()
	vertices, indices := scene.Cube()
	geo, err := scene.UploadMesh(dev, vertices, indices)
	require.NoError(t, err)

	list := &scene.List{}
	p := New(dev, opts, list, lookCamera{})
	require.NoError(t, p.Init())
	t.Cleanup(func() {
		p.Destroy()
		geo.Dispose()
	})
	dev.Reset()
	return &fixture{dev: dev, p: p, list: list, geo: geo}
}

func (f *fixture) mesh(id int32, z float32, blend gpu.BlendMode) *scene.Object {
	o := scene.NewMesh(id, mgl32.Translate3D(0, 0, z), unitBox, f.geo.Data(nil, mgl32.Vec4{1, 1, 1, 1}))
	o.Blend = blend
	return o
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.Width, opts.Height = 64, 48
	return opts
}

// meshDraws returns the draws issued with the mesh program, in order.
func meshDraws(dev *gputest.Device) []gputest.Draw {
	var out []gputest.Draw
	for _, d := range dev.Draws {
		if _, ok := d.Uniforms["u_objectID"]; ok {
			out = append(out, d)
		}
	}
	return out
}

func drawnIDs(draws []gputest.Draw) []int32 {
	ids := make([]int32, len(draws))
	for i, d := range draws {
		ids[i] = d.Uniforms["u_objectID"].(int32)
	}
	return ids
}

func TestPassOrder(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		want   []string
	}{
		{"defaults", func(*Options) {}, []string{"scene", "light", "skybox", "transparent", "fog"}},
		{"no skybox", func(o *Options) { o.Skybox = false }, []string{"scene", "light", "transparent", "fog"}},
		{"no fog", func(o *Options) { o.Fog = false }, []string{"scene", "light", "skybox", "transparent"}},
		{"bounds overlay", func(o *Options) { o.ShowBounds = true }, []string{"scene", "light", "skybox", "transparent", "fog", "overlay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := smallOptions()
			tt.modify(&opts)
			p := New(gputest.New(), opts, &scene.List{}, lookCamera{})
			assert.Equal(t, tt.want, p.Passes())
		})
	}
}

func TestOpaqueThenTransparentBackToFront(t *testing.T) {
	f := newFixture(t, smallOptions())
	behind := f.mesh(5, 5, gpu.Opaque)
	f.list.Items = []*scene.Object{
		f.mesh(3, -7, gpu.Blend),
		f.mesh(1, -5, gpu.Opaque),
		f.mesh(4, -12, gpu.Blend),
		behind,
		f.mesh(2, -10, gpu.Opaque),
	}

	require.NoError(t, f.p.Render())

	draws := meshDraws(f.dev)
	assert.Equal(t, []int32{1, 2, 4, 3}, drawnIDs(draws))
	assert.False(t, behind.Visible, "object behind the camera is culled")

	gbuf := f.p.GBuffer().(*gputest.Framebuffer)
	opaque, transparent := draws[0], draws[2]
	assert.Same(t, gbuf, opaque.Framebuffer)
	assert.Equal(t, []int{0, 1, 2, 3}, opaque.DrawBuffers)
	assert.True(t, opaque.State.DepthWrite)
	assert.Equal(t, gpu.BlendNone, opaque.State.Blend)

	assert.Equal(t, []int{AttachColor, AttachID}, transparent.DrawBuffers, "transparent objects stay pickable")
	assert.False(t, transparent.State.DepthWrite)
	assert.Equal(t, gpu.BlendAlpha, transparent.State.Blend)

	stats := f.p.Stats()
	assert.Equal(t, 5, stats.Objects)
	assert.Equal(t, 4, stats.Visible)
	assert.Equal(t, 2, stats.Transparent)
}

func TestScenePassAloneDrawsTransparentLast(t *testing.T) {
	f := newFixture(t, smallOptions())
	f.list.Items = []*scene.Object{
		f.mesh(10, -10, gpu.Opaque),
		f.mesh(7, -7, gpu.Blend),
		f.mesh(5, -5, gpu.Opaque),
	}

	sp := f.p.scene
	sp.deferTransparent = false
	f.p.frame.ctx = scene.NewDrawContext(f.dev, f.p.batch, lookCamera{})
	f.p.batch.BeginScene(f.p.frame.ctx.ViewProjection)
	sp.Draw()

	assert.Equal(t, []int32{10, 5, 7}, drawnIDs(meshDraws(f.dev)), "opaque keep submission order")
}

func TestProviderSliceNotReordered(t *testing.T) {
	f := newFixture(t, smallOptions())
	items := []*scene.Object{f.mesh(3, -7, gpu.Blend), f.mesh(1, -5, gpu.Opaque)}
	f.list.Items = items

	require.NoError(t, f.p.Render())
	assert.Equal(t, int32(3), items[0].ID)
	assert.Equal(t, int32(1), items[1].ID)
}

func TestGBufferLayoutAndClears(t *testing.T) {
	f := newFixture(t, smallOptions())
	require.NoError(t, f.p.Render())

	gbuf := f.p.GBuffer().(*gputest.Framebuffer)
	formats := make([]gpu.TextureFormat, len(gbuf.Textures))
	for i, tex := range gbuf.Textures {
		formats[i] = tex.Desc.Format
	}
	assert.Equal(t, []gpu.TextureFormat{gpu.RGBA8, gpu.R32I, gpu.RGBA16F, gpu.RGBA16F}, formats)
	assert.True(t, gbuf.Desc.Depth)

	for _, a := range []int{AttachID, AttachPosition, AttachNormal} {
		assert.Contains(t, gbuf.Cleared, a)
	}
	assert.Contains(t, f.dev.Calls, fmt.Sprintf("Framebuffer(%d).SetDrawBuffers([0])", gbuf.ID), "executor clears color only")
}

func TestLightBatchesFlushPerCapacity(t *testing.T) {
	opts := smallOptions()
	opts.LightBatchSize = 2
	f := newFixture(t, opts)
	f.list.LightSource = []lighting.Light{
		lighting.NewAmbient(mgl32.Vec3{1, 1, 1}, 0.25),
		lighting.NewPoint(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 1, 1}, 1, 10),
		lighting.NewPoint(mgl32.Vec3{1, 1, 0}, mgl32.Vec3{1, 1, 1}, 1, 10),
		lighting.NewPoint(mgl32.Vec3{2, 1, 0}, mgl32.Vec3{1, 1, 1}, 1, 10),
	}

	require.NoError(t, f.p.Render())
	assert.Equal(t, 2, f.p.Stats().LightFlushes)

	var lightDraws, composite []gputest.Draw
	for _, d := range f.dev.Draws {
		if _, ok := d.Uniforms["u_pointCount"]; ok {
			lightDraws = append(lightDraws, d)
		}
		if _, ok := d.Uniforms["u_accumulation"]; ok {
			composite = append(composite, d)
		}
	}
	require.Len(t, lightDraws, 2)
	assert.Equal(t, int32(2), lightDraws[0].Uniforms["u_pointCount"])
	assert.Equal(t, int32(1), lightDraws[1].Uniforms["u_pointCount"])
	assert.InDelta(t, 0.25, lightDraws[0].Uniforms["u_ambient"], 1e-5)
	assert.Equal(t, float32(0), lightDraws[1].Uniforms["u_ambient"])
	for _, d := range lightDraws {
		assert.Equal(t, gpu.BlendAdditive, d.State.Blend)
		assert.Equal(t, gpu.R16F, d.Framebuffer.Textures[0].Desc.Format)
	}

	require.Len(t, composite, 1)
	assert.Equal(t, gpu.BlendMultiply, composite[0].State.Blend)
	assert.Same(t, f.p.GBuffer().(*gputest.Framebuffer), composite[0].Framebuffer)
}

func TestNoLightsStillFlushesOnce(t *testing.T) {
	f := newFixture(t, smallOptions())
	require.NoError(t, f.p.Render())
	assert.Equal(t, 1, f.p.Stats().LightFlushes)
}

func TestFullscreenPassesDrawOneTriangle(t *testing.T) {
	f := newFixture(t, smallOptions())
	require.NoError(t, f.p.Render())
	// light flush, composite, skybox, fog
	assert.Len(t, f.dev.CallsWithPrefix("DrawArray(3,triangles)"), 4)
}

func TestFogSamplesPositionWithColorOnlyDrawBuffer(t *testing.T) {
	f := newFixture(t, smallOptions())
	require.NoError(t, f.p.Render())

	gbuf := f.p.GBuffer().(*gputest.Framebuffer)
	var fog *gputest.Draw
	for i := range f.dev.Draws {
		if _, ok := f.dev.Draws[i].Uniforms["u_density"]; ok {
			fog = &f.dev.Draws[i]
		}
	}
	require.NotNil(t, fog)
	assert.Same(t, gbuf, fog.Framebuffer)
	assert.Equal(t, []int{AttachColor}, fog.DrawBuffers, "position must not be a draw buffer while sampled")
	assert.Same(t, gbuf.Textures[AttachPosition], fog.Textures[unitPosition])
}

func TestOverlayDrawsBoundsWireframe(t *testing.T) {
	opts := smallOptions()
	opts.ShowBounds = true
	f := newFixture(t, opts)
	f.list.Items = []*scene.Object{f.mesh(1, -5, gpu.Opaque), f.mesh(2, -8, gpu.Blend)}

	require.NoError(t, f.p.Render())

	last := f.dev.Draws[len(f.dev.Draws)-1]
	assert.Equal(t, gpu.Wireframe, last.State.Fill)
	assert.Equal(t, int32(2*12*3), last.Count)
	assert.False(t, last.State.DepthWrite)
}

func TestPickReadsIDAttachment(t *testing.T) {
	f := newFixture(t, smallOptions())
	require.NoError(t, f.p.Render())

	gbuf := f.p.GBuffer().(*gputest.Framebuffer)
	gbuf.Pixels[[3]int32{AttachID, 10, 48 - 1 - 20}] = 7

	assert.Equal(t, int32(7), f.p.Pick(10, 20))
	assert.Equal(t, int32(0), f.p.Pick(11, 20))
	assert.Equal(t, int32(0), f.p.Pick(-1, 0))
	assert.Equal(t, int32(0), f.p.Pick(64, 0))
}

func TestPickRayUsesLastFrame(t *testing.T) {
	f := newFixture(t, smallOptions())
	f.list.Items = []*scene.Object{f.mesh(2, -10, gpu.Opaque), f.mesh(1, -5, gpu.Opaque)}
	require.NoError(t, f.p.Render())

	hit := f.p.PickRay(volume.Ray{Direction: mgl32.Vec3{0, 0, -1}})
	require.NotNil(t, hit)
	assert.Equal(t, int32(1), hit.ID)
}

func TestPresentBlitsColor(t *testing.T) {
	f := newFixture(t, smallOptions())
	require.NoError(t, f.p.Render())
	f.p.Present(800, 600)

	gbuf := f.p.GBuffer().(*gputest.Framebuffer)
	assert.Equal(t, 1, gbuf.Blits)
	assert.Equal(t, fmt.Sprintf("Framebuffer(%d).BlitToScreen(0,800,600)", gbuf.ID), f.dev.Calls[len(f.dev.Calls)-1])
}

func TestResize(t *testing.T) {
	f := newFixture(t, smallOptions())
	f.p.Resize(128, 96)

	w, h := f.p.GBuffer().Size()
	assert.Equal(t, int32(128), w)
	assert.Equal(t, int32(96), h)
	aw, ah := f.p.light.accumulation.Size()
	assert.Equal(t, int32(128), aw)
	assert.Equal(t, int32(96), ah)

	f.dev.Reset()
	f.p.Resize(128, 96)
	f.p.Resize(0, 10)
	assert.Empty(t, f.dev.Calls)

	require.NoError(t, f.p.Render())
	assert.Equal(t, [4]int32{0, 0, 128, 96}, f.dev.State.Viewport)
}

func TestLifecycle(t *testing.T) {
	dev := gputest.New()
	p := New(dev, smallOptions(), &scene.List{}, lookCamera{})
	assert.ErrorIs(t, p.Render(), pipeline.ErrNotInitialized)

	require.NoError(t, p.Init())
	require.NoError(t, p.Init(), "second Init is a no-op")
	require.NoError(t, p.Render())

	p.Destroy()
	p.Destroy()
	assert.Equal(t, 0, dev.Ledger.Len(), "leaks: %v", dev.Ledger.DumpLeaks())
	assert.ErrorIs(t, p.Render(), pipeline.ErrNotInitialized)
	assert.ErrorIs(t, p.Init(), pipeline.ErrDestroyed)
}

func TestInitFailureReleasesEverything(t *testing.T) {
	dev := gputest.New()
	dev.FailPrograms(true)
	p := New(dev, smallOptions(), &scene.List{}, lookCamera{})

	err := p.Init()
	require.Error(t, err)
	assert.Equal(t, 0, dev.Ledger.Len())
	assert.ErrorIs(t, p.Render(), pipeline.ErrNotInitialized)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = 320, 200
	cfg.Fog.Enabled = false
	cfg.Debug.ShowBounds = true
	cfg.Lighting.BatchSize = 4
	cfg.Batch.MaxQuads = 128

	p := FromConfig(gputest.New(), cfg, &scene.List{}, lookCamera{})
	assert.Equal(t, []string{"scene", "light", "skybox", "transparent", "overlay"}, p.Passes())
	w, h := p.Size()
	assert.Equal(t, int32(320), w)
	assert.Equal(t, int32(200), h)
	assert.Equal(t, 4, p.light.batcher.Capacity())
	assert.Equal(t, 128, p.opts.Batch.MaxQuads)
}
