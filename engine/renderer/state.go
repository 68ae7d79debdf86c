package renderer

import (
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidFrameState is returned when a frame operation is called out of order. The call has no effect.
	ErrInvalidFrameState = errors.New("renderer: frame operation called in the wrong state")

	// ErrFrameSkipped is returned by BeginFrame when the swapchain was out of date and has been rebuilt.
	// Nothing was recorded; the caller starts over with the next BeginFrame.
	ErrFrameSkipped = errors.New("renderer: frame skipped, swapchain recreated")

	// ErrPassRegistrationClosed is returned by RegisterPass once the first frame has begun.
	ErrPassRegistrationClosed = errors.New("renderer: pass registration closed after the first frame")

	// ErrClosed is returned by frame operations after Close.
	ErrClosed = errors.New("renderer: closed")
)

// FrameState is the position of the renderer in the frame cycle.
type FrameState int

const (
	// FrameStateIdle is the state between frames. BeginFrame is the only valid frame call.
	FrameStateIdle FrameState = iota
	// FrameStateAcquiring covers the completion-guard wait and image acquisition.
	FrameStateAcquiring
	// FrameStateRecording is entered once an image is acquired and the command buffer is open.
	FrameStateRecording
	// FrameStateSubmitting covers closing and submitting the command buffer.
	FrameStateSubmitting
	// FrameStatePresenting covers the present request and any recreation it triggers.
	FrameStatePresenting
)

func (s FrameState) String() string {
	switch s {
	case FrameStateIdle:
		return "Idle"
	case FrameStateAcquiring:
		return "Acquiring"
	case FrameStateRecording:
		return "Recording"
	case FrameStateSubmitting:
		return "Submitting"
	case FrameStatePresenting:
		return "Presenting"
	default:
		return "Unknown"
	}
}

// FrameStats is a snapshot of the renderer's counters. It is safe to take from any goroutine.
type FrameStats struct {
	// Presented counts frames whose present request was accepted.
	Presented uint64
	// Skipped counts frames abandoned because acquisition reported the swapchain out of date.
	Skipped uint64
	// Recreations counts swapchain rebuilds.
	Recreations uint64
	// Generation is the swapchain generation after the last rebuild.
	Generation uint64
}

// presentState is the state every acquired image must be in when it is handed back for presentation.
var presentState = device.AccessState{
	Access: device.AccessNone,
	Stage:  device.PipelineStageBottomOfPipe,
	Layout: device.ImageLayoutPresentSrc,
}
