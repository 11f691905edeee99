package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// Texture wraps a 2D GL texture.
type Texture struct {
	dev    *Device
	id     uint32
	desc   gpu.TextureDesc
	format uint32
	xtype  uint32
}

func newTexture(d *Device, desc gpu.TextureDesc) (*Texture, error) {
	if desc.Width < 1 || desc.Height < 1 {
		return nil, fmt.Errorf("texture: invalid size %dx%d", desc.Width, desc.Height)
	}
	if desc.Pixels != nil && len(desc.Pixels) < desc.Size() {
		return nil, fmt.Errorf("texture: %d bytes for %dx%d %s", len(desc.Pixels), desc.Width, desc.Height, desc.Format)
	}

	internal, format, xtype := textureFormat(desc.Format)
	t := &Texture{dev: d, desc: desc, format: format, xtype: xtype}

	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)

	var pixels unsafe.Pointer
	if desc.Pixels != nil {
		pixels = gl.Ptr(desc.Pixels)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, desc.Width, desc.Height, 0, format, xtype, pixels)

	// Integer textures are not filterable.
	filter := int32(gl.LINEAR)
	if desc.Nearest || desc.Format.Integer() {
		filter = gl.NEAREST
	}
	wrap := int32(gl.CLAMP_TO_EDGE)
	if desc.Repeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	d.ledger.Register(t)
	return t, nil
}

func (t *Texture) Bind(slot int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(gl.TEXTURE_2D, t.id)
}

func (t *Texture) Unbind() {
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// SetData uploads whole rows. offset and size are rounded down to row boundaries.
func (t *Texture) SetData(data unsafe.Pointer, size, offset int) {
	row := int(t.desc.Width) * t.desc.Format.BytesPerPixel()
	firstRow := offset / row
	rows := size / row
	if firstRow+rows > int(t.desc.Height) {
		rows = int(t.desc.Height) - firstRow
	}
	if rows <= 0 {
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, int32(firstRow), t.desc.Width, int32(rows), t.format, t.xtype, data)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// resize reallocates storage, discarding contents.
func (t *Texture) resize(width, height int32) {
	t.desc.Width, t.desc.Height = width, height
	internal, format, xtype := textureFormat(t.desc.Format)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, width, height, 0, format, xtype, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (t *Texture) Width() int32              { return t.desc.Width }
func (t *Texture) Height() int32             { return t.desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.desc.Format }

// ID returns the GL texture name.
func (t *Texture) ID() uint32 { return t.id }

func (t *Texture) Dispose() {
	if t.id == 0 {
		return
	}
	gl.DeleteTextures(1, &t.id)
	t.id = 0
	t.dev.ledger.Unregister(t)
}
