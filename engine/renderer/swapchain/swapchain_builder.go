package swapchain

import "github.com/DurnezG/ruby-go/engine/renderer/device"

// SwapchainBuilderOption is a functional option applied to a swapchain during construction via NewSwapchain.
type SwapchainBuilderOption func(*swapchain)

// WithPresentMode sets the preferred present mode. When the surface does not support it the swapchain
// falls back to Mailbox, then FifoRelaxed, then Fifo.
//
// Parameters:
//   - mode: the preferred PresentMode (defaults to Fifo)
//
// Returns:
//   - SwapchainBuilderOption: a function that applies the present mode option to a swapchain
func WithPresentMode(mode device.PresentMode) SwapchainBuilderOption {
	return func(s *swapchain) {
		s.preferredMode = mode
	}
}

// WithPreferredFormat sets the surface format used when the surface offers it.
//
// Parameters:
//   - format: the preferred SurfaceFormat (defaults to DefaultSurfaceFormat)
//
// Returns:
//   - SwapchainBuilderOption: a function that applies the format option to a swapchain
func WithPreferredFormat(format device.SurfaceFormat) SwapchainBuilderOption {
	return func(s *swapchain) {
		s.preferredFormat = format
	}
}

// WithImageCount requests a specific number of presentable images. The request is raised to the surface
// minimum and lowered to the surface maximum. Zero keeps the default of one more than the minimum.
//
// Parameters:
//   - count: the requested image count
//
// Returns:
//   - SwapchainBuilderOption: a function that applies the image count option to a swapchain
func WithImageCount(count uint32) SwapchainBuilderOption {
	return func(s *swapchain) {
		s.desiredImageCount = count
	}
}
