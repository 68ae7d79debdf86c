// Package pass defines the contract between the frame orchestrator and the code that records rendering work.
package pass

import (
	"github.com/DurnezG/ruby-go/engine/renderer/command"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/swapchain"
)

// Context is handed to every pass while a frame is recording.
// Its contents are only valid for the duration of the Record call.
type Context struct {
	Device    device.Device
	Commands  *command.Buffer
	Swapchain swapchain.Swapchain
	// Frame is the frame slot index in [0, swapchain.MaxFramesInFlight).
	Frame int
	// Image is the acquired image. Passes that need another image re-fetch it from Swapchain by index.
	Image *swapchain.PresentableImage
}

// Recorder records a pass's commands for one frame.
type Recorder interface {
	// Record appends the pass's commands to ctx.Commands for the image at imageIndex.
	//
	// Parameters:
	//   - ctx: the recording context of the current frame
	//   - imageIndex: the presentation index of the acquired image
	//
	// Returns:
	//   - error: a fatal recording error
	Record(ctx Context, imageIndex uint32) error
}

// Resizer rebuilds size-dependent resources after the swapchain has been recreated.
type Resizer interface {
	// Recreate is called once per swapchain recreation, after the new images exist.
	// Anything derived from the previous generation's images must be dropped here.
	//
	// Parameters:
	//   - sc: the swapchain, already rebuilt
	//
	// Returns:
	//   - error: a fatal rebuild error
	Recreate(sc swapchain.Swapchain) error
}

// Pass is a unit of rendering work registered with the renderer.
type Pass interface {
	Recorder
	Resizer
}
