package swapchain

import (
	"slices"

	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
)

// DefaultSurfaceFormat is the format preferred when the surface offers it: 8 bits per BGRA channel, sRGB encoded.
var DefaultSurfaceFormat = device.SurfaceFormat{
	Format:     device.FormatB8G8R8A8Srgb,
	ColorSpace: device.ColorSpaceSrgbNonlinear,
}

// presentModeFallbacks is walked in order when the preferred mode is unsupported. Fifo comes last because every surface supports it.
var presentModeFallbacks = []device.PresentMode{
	device.PresentModeMailbox,
	device.PresentModeFifoRelaxed,
	device.PresentModeFifo,
}

// chooseSurfaceFormat picks preferred when offered, otherwise the first supported format.
// A lone Undefined entry means the surface has no preference.
func chooseSurfaceFormat(available []device.SurfaceFormat, preferred device.SurfaceFormat) device.SurfaceFormat {
	if len(available) == 1 && available[0].Format == device.FormatUndefined {
		return preferred
	}
	if slices.Contains(available, preferred) {
		return preferred
	}
	return available[0]
}

// choosePresentMode returns preferred if supported, otherwise the first supported fallback.
func choosePresentMode(available []device.PresentMode, preferred device.PresentMode) device.PresentMode {
	if slices.Contains(available, preferred) {
		return preferred
	}
	for _, mode := range presentModeFallbacks {
		if slices.Contains(available, mode) {
			return mode
		}
	}
	return device.PresentModeFifo
}

// chooseExtent uses the surface's current extent when it is defined, otherwise the framebuffer size clamped to the surface limits.
func chooseExtent(caps device.SurfaceCapabilities, fbWidth, fbHeight int) device.Extent2D {
	if caps.CurrentExtent.Width != device.UndefinedExtent {
		return caps.CurrentExtent
	}
	return device.Extent2D{
		Width:  common.Clamp(uint32(max(fbWidth, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: common.Clamp(uint32(max(fbHeight, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for one image more than the minimum unless desired is set, and respects the surface maximum when it has one.
func chooseImageCount(caps device.SurfaceCapabilities, desired uint32) uint32 {
	count := max(common.Coalesce(desired, caps.MinImageCount+1), caps.MinImageCount)
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// chooseCompositeAlpha prefers opaque composition, otherwise the lowest supported bit.
func chooseCompositeAlpha(supported device.CompositeAlpha) device.CompositeAlpha {
	if supported&device.CompositeAlphaOpaque != 0 || supported == 0 {
		return device.CompositeAlphaOpaque
	}
	return supported & -supported
}
