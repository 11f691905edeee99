package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/engine/gpu"
)

// Buffer wraps a GL buffer object.
type Buffer struct {
	dev    *Device
	id     uint32
	target uint32
	size   int
}

func newBuffer(d *Device, target uint32, size int, data unsafe.Pointer, usage uint32) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer: invalid size %d", size)
	}
	b := &Buffer{dev: d, target: target, size: size}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(target, b.id)
	gl.BufferData(target, size, data, usage)
	gl.BindBuffer(target, 0)

	d.ledger.Register(b)
	return b, nil
}

func (b *Buffer) Bind()   { gl.BindBuffer(b.target, b.id) }
func (b *Buffer) Unbind() { gl.BindBuffer(b.target, 0) }
func (b *Buffer) Size() int {
	return b.size
}

// SetData uploads into the existing storage. Writes past the end are clipped.
func (b *Buffer) SetData(data unsafe.Pointer, size, offset int) {
	if offset+size > b.size {
		b.dev.log.Warn("buffer upload clipped", zap.Uint32("buffer", b.id), zap.Int("size", size), zap.Int("capacity", b.size))
		size = b.size - offset
	}
	if size <= 0 {
		return
	}
	gl.BindBuffer(b.target, b.id)
	gl.BufferSubData(b.target, offset, size, data)
	gl.BindBuffer(b.target, 0)
}

func (b *Buffer) Dispose() {
	if b.id == 0 {
		return
	}
	gl.DeleteBuffers(1, &b.id)
	b.id = 0
	b.dev.ledger.Unregister(b)
}

// VertexArray wraps a VAO.
type VertexArray struct {
	dev *Device
	id  uint32
}

func newVertexArray(d *Device, vb gpu.Buffer, layout gpu.Layout, ib gpu.Buffer) *VertexArray {
	va := &VertexArray{dev: d}
	gl.GenVertexArrays(1, &va.id)
	gl.BindVertexArray(va.id)

	if vb != nil {
		vb.Bind()
		for _, a := range layout.Attributes {
			gl.EnableVertexAttribArray(a.Location)
			if a.Type == gpu.Int {
				gl.VertexAttribIPointer(a.Location, a.Components, attribType(a.Type), layout.Stride, gl.PtrOffset(a.Offset))
				continue
			}
			gl.VertexAttribPointer(a.Location, a.Components, attribType(a.Type), false, layout.Stride, gl.PtrOffset(a.Offset))
		}
	}
	// The element binding is VAO state, so it stays bound.
	if ib != nil {
		ib.Bind()
	}

	gl.BindVertexArray(0)
	if vb != nil {
		vb.Unbind()
	}

	d.ledger.Register(va)
	return va
}

func (v *VertexArray) Bind()   { gl.BindVertexArray(v.id) }
func (v *VertexArray) Unbind() { gl.BindVertexArray(0) }

func (v *VertexArray) Dispose() {
	if v.id == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &v.id)
	v.id = 0
	v.dev.ledger.Unregister(v)
}
