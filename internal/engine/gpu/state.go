package gpu

import "fmt"

// DepthFunc selects the depth test.
type DepthFunc int

const (
	DepthNone DepthFunc = iota // test disabled
	DepthLess
	DepthLessEqual
	DepthAlways
)

func (d DepthFunc) String() string {
	switch d {
	case DepthNone:
		return "none"
	case DepthLess:
		return "less"
	case DepthLessEqual:
		return "lequal"
	case DepthAlways:
		return "always"
	default:
		return fmt.Sprintf("DepthFunc(%d)", int(d))
	}
}

// BlendFunc selects the fixed-function blend equation.
type BlendFunc int

const (
	BlendNone     BlendFunc = iota
	BlendAlpha              // src*a + dst*(1-a)
	BlendAdditive           // src + dst
	BlendMultiply           // src * dst
)

func (b BlendFunc) String() string {
	switch b {
	case BlendNone:
		return "none"
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	default:
		return fmt.Sprintf("BlendFunc(%d)", int(b))
	}
}

// BlendMode is how a primitive or object is composited.
type BlendMode int

const (
	Opaque BlendMode = iota
	Blend
	Clip // alpha tested, drawn without blending
	Add
)

// Func maps the mode to the device blend function.
func (m BlendMode) Func() BlendFunc {
	switch m {
	case Opaque, Clip:
		return BlendNone
	case Blend:
		return BlendAlpha
	case Add:
		return BlendAdditive
	default:
		panic(fmt.Sprintf("gpu: unknown blend mode %d", int(m)))
	}
}

// Transparent reports whether objects in this mode must be drawn after
// opaque geometry, back to front.
func (m BlendMode) Transparent() bool {
	return m == Blend || m == Add
}

func (m BlendMode) String() string {
	switch m {
	case Opaque:
		return "opaque"
	case Blend:
		return "blend"
	case Clip:
		return "clip"
	case Add:
		return "add"
	default:
		return fmt.Sprintf("BlendMode(%d)", int(m))
	}
}

// CullMode selects which faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

func (c CullMode) String() string {
	switch c {
	case CullNone:
		return "none"
	case CullBack:
		return "back"
	case CullFront:
		return "front"
	default:
		return fmt.Sprintf("CullMode(%d)", int(c))
	}
}

// PolygonMode selects filled or wireframe rasterization.
type PolygonMode int

const (
	Solid PolygonMode = iota
	Wireframe
)

func (p PolygonMode) String() string {
	if p == Wireframe {
		return "wireframe"
	}
	if p == Solid {
		return "solid"
	}
	return fmt.Sprintf("PolygonMode(%d)", int(p))
}

// Primitive is the topology for non-indexed draws.
type Primitive int

const (
	Triangles Primitive = iota
	Lines
	TriangleStrip
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case Lines:
		return "lines"
	case TriangleStrip:
		return "triangle_strip"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}
