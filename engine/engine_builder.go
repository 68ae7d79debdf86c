package engine

import (
	"time"

	"github.com/DurnezG/ruby-go/engine/renderer"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/pass"
	"github.com/DurnezG/ruby-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. The engine still closes it on shutdown.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowOptions configures the window the engine creates when no window is supplied.
//
// Parameters:
//   - options: window options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.windowOptions = append(e.windowOptions, options...)
	}
}

// WithDevice renders with a caller-owned device instead of bootstrapping Vulkan.
// The caller destroys it after Run returns.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(dev device.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = dev
	}
}

// WithValidation requests the Vulkan validation layer on the device the engine bootstraps.
//
// Parameters:
//   - enabled: whether to request validation
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithValidation(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.validation = enabled
	}
}

// WithRendererOptions forwards options to the renderer.
//
// Parameters:
//   - options: renderer options such as renderer.WithPresentMode
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithPass registers a pass with the renderer. Passes run in the order they are given.
//
// Parameters:
//   - p: the pass to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPass(p pass.Pass) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, renderer.WithPass(p))
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
