package lighting

// DefaultBatchSize is the per-type light capacity of one batch.
const DefaultBatchSize = 16

// Batcher splits a frame's lights into bounded uniform batches.
type Batcher struct {
	uniforms *Uniforms
}

// NewBatcher creates a batcher holding up to capacity lights of each type per batch.
func NewBatcher(capacity int) *Batcher {
	if capacity < 1 {
		capacity = DefaultBatchSize
	}
	return &Batcher{uniforms: NewUniforms(capacity)}
}

// Capacity returns the per-type batch size.
func (b *Batcher) Capacity() int { return b.uniforms.Capacity() }

// Run feeds lights in order, calling flush whenever a type fills up and once
// more after the last light, so even an ambient-only frame draws. Ambient
// lights are summed and applied on the first flush only. It returns the
// number of flushes.
func (b *Batcher) Run(lights []Light, flush func(*Uniforms)) int {
	var ambient float32
	for _, l := range lights {
		if l.Kind == Ambient {
			ambient += l.Luminance()
		}
	}

	u := b.uniforms
	u.Reset()
	flushes := 0
	emit := func() {
		if flushes == 0 {
			u.Ambient = ambient
		} else {
			u.Ambient = 0
		}
		flush(u)
		flushes++
		u.Reset()
	}

	for _, l := range lights {
		if l.Kind == Ambient {
			continue
		}
		u.add(l)
		if u.Full() {
			emit()
		}
	}
	emit()
	return flushes
}
