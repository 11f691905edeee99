// Package shaders embeds the GLSL sources used by the render core.
package shaders

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed *.vert *.frag
var files embed.FS

// Source returns the contents of an embedded shader file. Unknown names panic.
func Source(name string) string {
	data, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("shaders: %s not embedded", name))
	}
	return string(data)
}

// BatchVertex is the batched primitive vertex shader.
func BatchVertex() string { return Source("batch.vert") }

// BatchFragment returns the batched primitive fragment shader sized for slots
// textures. The clip variant discards texels with alpha below one half.
func BatchFragment(slots int, clip bool) string {
	test := ""
	if clip {
		test = "    if (color.a < 0.5) {\n        discard;\n    }"
	}
	return strings.NewReplacer(
		"{{MAX_TEXTURE_SLOTS}}", strconv.Itoa(slots),
		"{{ALPHA_TEST}}", test,
	).Replace(Source("batch.frag"))
}

// LightFragment returns the light accumulation shader with uniform arrays
// sized for capacity lights of each type.
func LightFragment(capacity int) string {
	return strings.ReplaceAll(Source("light.frag"), "{{MAX_LIGHTS}}", strconv.Itoa(capacity))
}

// FullscreenVertex emits a single viewport-covering triangle at far depth.
func FullscreenVertex() string { return Source("fullscreen.vert") }
