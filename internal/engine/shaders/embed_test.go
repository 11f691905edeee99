package shaders

import (
	"strings"
	"testing"
)

func TestBatchFragment(t *testing.T) {
	src := BatchFragment(8, false)
	if !strings.Contains(src, "#define MAX_TEXTURE_SLOTS 8") {
		t.Error("slot count not injected")
	}
	if strings.Contains(src, "discard") {
		t.Error("opaque variant must not discard")
	}
	if strings.Contains(src, "{{") {
		t.Error("unreplaced placeholder")
	}

	clip := BatchFragment(8, true)
	if !strings.Contains(clip, "discard") {
		t.Error("clip variant must discard")
	}
}

func TestLightFragment(t *testing.T) {
	src := LightFragment(16)
	if !strings.Contains(src, "#define MAX_LIGHTS 16") {
		t.Error("light capacity not injected")
	}
}

func TestAllSourcesEmbedded(t *testing.T) {
	for _, name := range []string{
		"batch.vert", "batch.frag", "mesh.vert", "mesh.frag", "fullscreen.vert",
		"light.frag", "composite.frag", "skybox.frag", "fog.frag",
	} {
		if !strings.HasPrefix(Source(name), "#version 410 core") {
			t.Errorf("%s: missing version header", name)
		}
	}
}

func TestSourceUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Source("nope.frag")
}
