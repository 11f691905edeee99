package gputest

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

func TestResourcesBalanceLedger(t *testing.T) {
	d := New()

	vb, err := d.NewVertexBuffer(64, nil)
	require.NoError(t, err)
	ib, err := d.NewIndexBuffer([]uint32{0, 1, 2})
	require.NoError(t, err)
	va, err := d.NewVertexArray(vb, gpu.Layout{Stride: 12}, ib)
	require.NoError(t, err)
	fb, err := d.NewFramebuffer(gpu.FramebufferDesc{Width: 4, Height: 4, Attachments: []gpu.TextureFormat{gpu.RGBA8, gpu.R32I}})
	require.NoError(t, err)

	assert.Equal(t, 6, d.Ledger.Len(), "framebuffer textures are tracked too")

	for _, r := range []gpu.Resource{va, ib, vb, fb} {
		r.Dispose()
		r.Dispose()
	}
	assert.Empty(t, d.Ledger.DumpLeaks())
}

func TestDrawSnapshotsState(t *testing.T) {
	d := New()
	p, _ := d.NewProgram("v", "f")
	va, _ := d.NewVertexArray(nil, gpu.Layout{}, nil)

	p.Bind()
	p.SetFloat("u_ambient", 0.5)
	d.SetBlendFunc(gpu.BlendAdditive)
	d.DrawArray(va, 3, gpu.Triangles)

	p.SetFloat("u_ambient", 0)
	d.SetBlendFunc(gpu.BlendNone)

	require.Len(t, d.Draws, 1)
	assert.Equal(t, float32(0.5), d.Draws[0].Uniforms["u_ambient"])
	assert.Equal(t, gpu.BlendAdditive, d.Draws[0].State.Blend)
	assert.Equal(t, []string{"DrawArray(3,triangles)"}, d.CallsWithPrefix("Draw"))
}

func TestBufferRecordsUploads(t *testing.T) {
	d := New()
	b, _ := d.NewVertexBuffer(16, nil)
	data := []byte{1, 2, 3, 4}
	b.SetData(unsafe.Pointer(&data[0]), len(data), 4)

	buf := b.(*Buffer)
	assert.Equal(t, []int{4}, buf.Uploads)
	assert.Equal(t, byte(3), buf.Data[6])
}
