package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// Framebuffer manages an offscreen target with any number of color
// attachments and an optional depth renderbuffer.
type Framebuffer struct {
	dev         *Device
	fbo         uint32
	depthRBO    uint32
	attachments []*Texture
	drawBuffers []int
	width       int32
	height      int32
}

func newFramebuffer(d *Device, desc gpu.FramebufferDesc) (*Framebuffer, error) {
	width, height := desc.Width, desc.Height
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	fb := &Framebuffer{dev: d, width: width, height: height}

	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	for i, format := range desc.Attachments {
		t, err := newTexture(d, gpu.TextureDesc{Width: width, Height: height, Format: format, Nearest: true})
		if err != nil {
			fb.Dispose()
			return nil, fmt.Errorf("creating framebuffer attachment %d: %w", i, err)
		}
		fb.attachments = append(fb.attachments, t)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(i), gl.TEXTURE_2D, t.id, 0)
	}

	if desc.Depth {
		gl.GenRenderbuffers(1, &fb.depthRBO)
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, width, height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)
	}

	all := make([]int, len(fb.attachments))
	for i := range all {
		all[i] = i
	}
	fb.SetDrawBuffers(all)

	// An incomplete target renders garbage but is not fatal.
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		d.log.Warn("framebuffer incomplete", zap.String("status", fmt.Sprintf("0x%x", status)))
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	d.ledger.Register(fb)
	return fb, nil
}

// Bind makes this framebuffer the current render target.
func (fb *Framebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, fb.width, fb.height)
}

// Unbind restores the default framebuffer.
func (fb *Framebuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (fb *Framebuffer) Attachment(i int) gpu.Texture {
	if i < 0 || i >= len(fb.attachments) {
		return nil
	}
	return fb.attachments[i]
}

// SetDrawBuffers expects the framebuffer to be bound.
func (fb *Framebuffer) SetDrawBuffers(attachments []int) {
	fb.drawBuffers = append(fb.drawBuffers[:0], attachments...)
	if len(attachments) == 0 {
		gl.DrawBuffer(gl.NONE)
		return
	}
	bufs := make([]uint32, len(attachments))
	for i, a := range attachments {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(a)
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

// ClearAttachment clears attachment i, which must be in the current draw
// buffer list. The framebuffer must be bound.
func (fb *Framebuffer) ClearAttachment(i int, v mgl32.Vec4) {
	slot := -1
	for j, a := range fb.drawBuffers {
		if a == i {
			slot = j
			break
		}
	}
	if slot < 0 || i >= len(fb.attachments) {
		fb.dev.log.Warn("clear of disabled attachment skipped", zap.Int("attachment", i))
		return
	}
	if fb.attachments[i].Format().Integer() {
		iv := [4]int32{int32(v[0]), 0, 0, 0}
		gl.ClearBufferiv(gl.COLOR, int32(slot), &iv[0])
		return
	}
	gl.ClearBufferfv(gl.COLOR, int32(slot), &v[0])
}

// Resize reallocates every attachment if the size changed.
func (fb *Framebuffer) Resize(width, height int32) {
	if width == fb.width && height == fb.height {
		return
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	fb.width = width
	fb.height = height

	for _, t := range fb.attachments {
		t.resize(width, height)
	}
	if fb.depthRBO != 0 {
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, width, height)
	}
}

func (fb *Framebuffer) Size() (width, height int32) {
	return fb.width, fb.height
}

// ReadPixel reads one texel of an R32I attachment. x and y are in GL window
// coordinates (origin bottom-left).
func (fb *Framebuffer) ReadPixel(attachment int, x, y int32) int32 {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return 0
	}
	var prevFBO int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prevFBO)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0 + uint32(attachment))
	var v int32
	gl.ReadPixels(x, y, 1, 1, gl.RED_INTEGER, gl.INT, gl.Ptr(&v))

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prevFBO))
	return v
}

// BlitToScreen copies one attachment to the default framebuffer.
func (fb *Framebuffer) BlitToScreen(attachment int, width, height int32) {
	filter := uint32(gl.LINEAR)
	if t := fb.Attachment(attachment); t == nil || t.Format().Integer() || (width == fb.width && height == fb.height) {
		filter = gl.NEAREST
	}

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0 + uint32(attachment))
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, fb.width, fb.height, 0, 0, width, height, gl.COLOR_BUFFER_BIT, filter)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Dispose releases the framebuffer and every attachment.
func (fb *Framebuffer) Dispose() {
	if fb.fbo == 0 {
		return
	}
	for _, t := range fb.attachments {
		t.Dispose()
	}
	fb.attachments = nil
	if fb.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.depthRBO)
		fb.depthRBO = 0
	}
	gl.DeleteFramebuffers(1, &fb.fbo)
	fb.fbo = 0
	fb.dev.ledger.Unregister(fb)
}
