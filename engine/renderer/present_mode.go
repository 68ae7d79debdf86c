package renderer

import "github.com/DurnezG/ruby-go/engine/renderer/device"

// Present mode presets for callers that think in terms of vsync rather than surface modes.
// Unsupported modes fall back to Mailbox, then FifoRelaxed, then Fifo.
const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping the frame rate to the
	// monitor's refresh rate. Always supported.
	PresentModeVSync = device.PresentModeFifo

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped = device.PresentModeImmediate

	// PresentModeTripleBuffered replaces the queued frame at every vertical blank. No tearing, low latency.
	PresentModeTripleBuffered = device.PresentModeMailbox
)
