package renderer

import (
	"time"

	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/pass"
	"github.com/DurnezG/ruby-go/engine/renderer/swapchain"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPass registers a pass at construction time. Passes run in the order they are given.
//
// Parameters:
//   - p: the pass to register
//
// Returns:
//   - RendererBuilderOption: a function that applies the pass option to a renderer
func WithPass(p pass.Pass) RendererBuilderOption {
	return func(r *renderer) {
		if p != nil {
			r.passes = append(r.passes, p)
		}
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the preferred PresentMode (defaults to PresentModeVSync)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode device.PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = &mode
	}
}

// WithAcquireTimeout bounds how long BeginFrame waits for a presentable image. Exceeding it is fatal.
//
// Parameters:
//   - timeout: the maximum wait (defaults to DefaultAcquireTimeout)
//
// Returns:
//   - RendererBuilderOption: a function that applies the acquire timeout option to a renderer
func WithAcquireTimeout(timeout time.Duration) RendererBuilderOption {
	return func(r *renderer) {
		r.acquireTimeout = timeout
	}
}

// WithFrameTimeout bounds how long BeginFrame waits for a frame slot's previous submission. Exceeding it is fatal.
//
// Parameters:
//   - timeout: the maximum wait (defaults to no timeout)
//
// Returns:
//   - RendererBuilderOption: a function that applies the frame timeout option to a renderer
func WithFrameTimeout(timeout time.Duration) RendererBuilderOption {
	return func(r *renderer) {
		r.frameTimeout = timeout
	}
}

// WithImmediateTimeout bounds how long immediate submissions on the command pool wait for the GPU.
//
// Parameters:
//   - timeout: the maximum wait (defaults to command.DefaultImmediateTimeout)
//
// Returns:
//   - RendererBuilderOption: a function that applies the immediate timeout option to a renderer
func WithImmediateTimeout(timeout time.Duration) RendererBuilderOption {
	return func(r *renderer) {
		r.immediateTimeout = timeout
	}
}

// WithPassRecreateWorkers lets pass rebuilds after a swapchain recreation run on a pool of reusable goroutines.
// Values of 1 or less rebuild passes one after another on the frame goroutine.
//
// Parameters:
//   - workers: the maximum number of concurrent pass rebuilds
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker option to a renderer
func WithPassRecreateWorkers(workers int) RendererBuilderOption {
	return func(r *renderer) {
		r.passRecreateWorkers = workers
	}
}

// WithSwapchainOptions forwards options to the swapchain, such as a preferred format or image count.
//
// Parameters:
//   - options: the swapchain options
//
// Returns:
//   - RendererBuilderOption: a function that applies the swapchain options to a renderer
func WithSwapchainOptions(options ...swapchain.SwapchainBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.swapchainOptions = append(r.swapchainOptions, options...)
	}
}
