package deferred

import "github.com/Faultbox/midgard-render/internal/engine/gpu"

// G-buffer color attachments.
const (
	AttachColor    = 0 // RGBA8 albedo, lit in place by the light pass
	AttachID       = 1 // R32I object id, 0 for background
	AttachPosition = 2 // RGBA16F world position, w = 0 for background
	AttachNormal   = 3 // RGBA16F world normal
)

var gbufferAttachments = []int{AttachColor, AttachID, AttachPosition, AttachNormal}

func gbufferDesc(width, height int32) gpu.FramebufferDesc {
	return gpu.FramebufferDesc{
		Width:  width,
		Height: height,
		Attachments: []gpu.TextureFormat{
			AttachColor:    gpu.RGBA8,
			AttachID:       gpu.R32I,
			AttachPosition: gpu.RGBA16F,
			AttachNormal:   gpu.RGBA16F,
		},
		Depth: true,
	}
}
