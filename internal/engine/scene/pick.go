package scene

import (
	"github.com/Faultbox/midgard-render/internal/engine/volume"
)

// Pick returns the visible object whose world bounds the ray hits first.
// Objects without bounds cannot be picked.
func Pick(objects []*Object, ray volume.Ray) (hit *Object, distance float32) {
	for _, o := range objects {
		if !o.Visible {
			continue
		}
		b := o.WorldBounds()
		if b == nil {
			continue
		}
		if d, ok := ray.Intersect(b); ok && (hit == nil || d < distance) {
			hit, distance = o, d
		}
	}
	return hit, distance
}
