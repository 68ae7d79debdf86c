package swapchain

import (
	"testing"

	"github.com/DurnezG/ruby-go/engine/renderer/device"
)

func TestChooseSurfaceFormat(t *testing.T) {
	unormSrgb := device.SurfaceFormat{Format: device.FormatB8G8R8A8Unorm, ColorSpace: device.ColorSpaceSrgbNonlinear}
	rgba := device.SurfaceFormat{Format: device.FormatR8G8B8A8Unorm, ColorSpace: device.ColorSpaceSrgbNonlinear}

	for _, tc := range []struct {
		name      string
		available []device.SurfaceFormat
		want      device.SurfaceFormat
	}{
		{"preferred offered", []device.SurfaceFormat{unormSrgb, DefaultSurfaceFormat}, DefaultSurfaceFormat},
		{"preferred missing", []device.SurfaceFormat{rgba, unormSrgb}, rgba},
		{"no preference", []device.SurfaceFormat{{Format: device.FormatUndefined}}, DefaultSurfaceFormat},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := chooseSurfaceFormat(tc.available, DefaultSurfaceFormat); got != tc.want {
				t.Errorf("chooseSurfaceFormat() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	for _, tc := range []struct {
		name      string
		available []device.PresentMode
		preferred device.PresentMode
		want      device.PresentMode
	}{
		{"fifo always", []device.PresentMode{device.PresentModeFifo}, device.PresentModeFifo, device.PresentModeFifo},
		{"immediate supported", []device.PresentMode{device.PresentModeFifo, device.PresentModeImmediate}, device.PresentModeImmediate, device.PresentModeImmediate},
		{"fallback to mailbox", []device.PresentMode{device.PresentModeFifo, device.PresentModeMailbox}, device.PresentModeImmediate, device.PresentModeMailbox},
		{"fallback to relaxed", []device.PresentMode{device.PresentModeFifo, device.PresentModeFifoRelaxed}, device.PresentModeImmediate, device.PresentModeFifoRelaxed},
		{"fallback to fifo", []device.PresentMode{device.PresentModeFifo}, device.PresentModeMailbox, device.PresentModeFifo},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := choosePresentMode(tc.available, tc.preferred); got != tc.want {
				t.Errorf("choosePresentMode() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestChooseExtent(t *testing.T) {
	caps := device.SurfaceCapabilities{
		CurrentExtent:  device.Extent2D{Width: device.UndefinedExtent, Height: device.UndefinedExtent},
		MinImageExtent: device.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: device.Extent2D{Width: 1920, Height: 1080},
	}

	for _, tc := range []struct {
		name       string
		current    device.Extent2D
		fbW, fbH   int
		wantWidth  uint32
		wantHeight uint32
	}{
		{"defined extent wins", device.Extent2D{Width: 800, Height: 600}, 1024, 768, 800, 600},
		{"framebuffer in range", caps.CurrentExtent, 1024, 768, 1024, 768},
		{"clamped up", caps.CurrentExtent, 10, 20, 64, 64},
		{"clamped down", caps.CurrentExtent, 4000, 3000, 1920, 1080},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := caps
			c.CurrentExtent = tc.current
			got := chooseExtent(c, tc.fbW, tc.fbH)
			if got.Width != tc.wantWidth || got.Height != tc.wantHeight {
				t.Errorf("chooseExtent() = %dx%d, want %dx%d", got.Width, got.Height, tc.wantWidth, tc.wantHeight)
			}
		})
	}
}

func TestChooseImageCount(t *testing.T) {
	for _, tc := range []struct {
		name     string
		min, max uint32
		desired  uint32
		want     uint32
	}{
		{"min plus one", 2, 8, 0, 3},
		{"capped at max", 3, 3, 0, 3},
		{"no maximum", 2, 0, 0, 3},
		{"desired honored", 2, 8, 5, 5},
		{"desired raised to min", 3, 8, 1, 3},
		{"desired lowered to max", 2, 4, 9, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			caps := device.SurfaceCapabilities{MinImageCount: tc.min, MaxImageCount: tc.max}
			if got := chooseImageCount(caps, tc.desired); got != tc.want {
				t.Errorf("chooseImageCount() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestChooseCompositeAlpha(t *testing.T) {
	for _, tc := range []struct {
		supported device.CompositeAlpha
		want      device.CompositeAlpha
	}{
		{device.CompositeAlphaOpaque | device.CompositeAlphaInherit, device.CompositeAlphaOpaque},
		{device.CompositeAlphaPostMultiplied | device.CompositeAlphaInherit, device.CompositeAlphaPostMultiplied},
		{device.CompositeAlphaInherit, device.CompositeAlphaInherit},
		{0, device.CompositeAlphaOpaque},
	} {
		if got := chooseCompositeAlpha(tc.supported); got != tc.want {
			t.Errorf("chooseCompositeAlpha(%d) = %d, want %d", tc.supported, got, tc.want)
		}
	}
}
