// Package lighting describes scene lights and packs them into fixed-size
// uniform batches for the deferred light pass.
package lighting

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind tags the light variant.
type Kind int

const (
	Point Kind = iota
	Spot
	Directional
	Ambient
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Spot:
		return "spot"
	case Directional:
		return "directional"
	case Ambient:
		return "ambient"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Falloff holds distance attenuation coefficients: 1 / (c + l*d + q*d*d).
type Falloff struct {
	Constant  float32
	Linear    float32
	Quadratic float32
}

// FalloffForRange returns coefficients that fade a light to roughly 1% at r.
func FalloffForRange(r float32) Falloff {
	if r <= 0 {
		r = 100
	}
	return Falloff{Constant: 1, Linear: 4.5 / r, Quadratic: 75 / (r * r)}
}

func (f Falloff) vec() mgl32.Vec3 { return mgl32.Vec3{f.Constant, f.Linear, f.Quadratic} }

// Light is a scene light. Which fields matter depends on Kind.
type Light struct {
	Kind      Kind
	Position  mgl32.Vec3 // point, spot
	Direction mgl32.Vec3 // spot, directional; the way light travels
	Color     mgl32.Vec3
	Intensity float32
	Falloff   Falloff // point, spot
	InnerCone float32 // spot, radians
	OuterCone float32 // spot, radians
}

// NewPoint creates a point light that fades out around rng.
func NewPoint(position, color mgl32.Vec3, intensity, rng float32) Light {
	return Light{
		Kind:      Point,
		Position:  position,
		Color:     clampColor(color),
		Intensity: intensity,
		Falloff:   FalloffForRange(rng),
	}
}

// NewSpot creates a spot light. Cone angles are half-angles in radians.
func NewSpot(position, direction, color mgl32.Vec3, intensity, inner, outer, rng float32) Light {
	if inner > outer {
		inner, outer = outer, inner
	}
	return Light{
		Kind:      Spot,
		Position:  position,
		Direction: normalize(direction),
		Color:     clampColor(color),
		Intensity: intensity,
		Falloff:   FalloffForRange(rng),
		InnerCone: inner,
		OuterCone: outer,
	}
}

// NewDirectional creates a light with parallel rays travelling along direction.
func NewDirectional(direction, color mgl32.Vec3, intensity float32) Light {
	return Light{
		Kind:      Directional,
		Direction: normalize(direction),
		Color:     clampColor(color),
		Intensity: intensity,
	}
}

// NewAmbient creates a uniform ambient term.
func NewAmbient(color mgl32.Vec3, intensity float32) Light {
	return Light{Kind: Ambient, Color: clampColor(color), Intensity: intensity}
}

// Radiance is color scaled by intensity.
func (l Light) Radiance() mgl32.Vec3 { return l.Color.Mul(l.Intensity) }

// Luminance is the perceived brightness of the radiance.
func (l Light) Luminance() float32 {
	return l.Radiance().Dot(luma)
}

var luma = mgl32.Vec3{0.2126, 0.7152, 0.0722}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return v.Normalize()
}

// Some authored colors exceed 1; clamp to 0-1.
func clampColor(c mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c
}
