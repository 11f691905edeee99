package gpu

import "fmt"

// TextureFormat is the texel layout of a texture or attachment.
type TextureFormat int

const (
	RGBA8 TextureFormat = iota
	R32I
	R16F
	RGBA16F
	Depth24
)

// BytesPerPixel returns the texel size. Unknown formats panic.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case RGBA8, R32I, Depth24:
		return 4
	case R16F:
		return 2
	case RGBA16F:
		return 8
	default:
		panic(fmt.Sprintf("gpu: unknown texture format %d", int(f)))
	}
}

// Integer reports whether the format stores integer texels.
func (f TextureFormat) Integer() bool {
	return f == R32I
}

func (f TextureFormat) String() string {
	switch f {
	case RGBA8:
		return "rgba8"
	case R32I:
		return "r32i"
	case R16F:
		return "r16f"
	case RGBA16F:
		return "rgba16f"
	case Depth24:
		return "depth24"
	default:
		return fmt.Sprintf("TextureFormat(%d)", int(f))
	}
}

// AttribType is the component type of a vertex attribute.
type AttribType int

const (
	Float AttribType = iota
	Int
)

// Attribute is one vertex attribute within an interleaved layout.
type Attribute struct {
	Location   uint32
	Components int32
	Type       AttribType
	Offset     int
}

// Layout describes an interleaved vertex format.
type Layout struct {
	Stride     int32
	Attributes []Attribute
}

// TextureDesc describes a 2D texture. Pixels may be nil.
type TextureDesc struct {
	Width   int32
	Height  int32
	Format  TextureFormat
	Pixels  []byte
	Nearest bool
	Repeat  bool
}

// Size returns the number of bytes a full upload occupies.
func (d TextureDesc) Size() int {
	return int(d.Width) * int(d.Height) * d.Format.BytesPerPixel()
}

// FramebufferDesc describes an offscreen target.
type FramebufferDesc struct {
	Width       int32
	Height      int32
	Attachments []TextureFormat
	Depth       bool
}
