package swapchain

import (
	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
)

// BarrierRecorder is anything that can record an image barrier into an open command buffer.
// *command.Buffer satisfies it.
type BarrierRecorder interface {
	PipelineBarrier(barrier device.ImageBarrier)
}

// PresentableImage wraps one surface-owned image together with the view this package created for it
// and the access state it was last left in.
//
// The image handle belongs to the presentation engine and is never destroyed here. The view is destroyed
// when the owning swapchain is rebuilt or torn down, after which the PresentableImage must not be used.
type PresentableImage struct {
	handle device.Image
	view   device.ImageView
	format device.Format
	index  uint32
	state  device.AccessState
}

func newPresentableImage(index uint32, handle device.Image, view device.ImageView, format device.Format) *PresentableImage {
	return &PresentableImage{
		handle: handle,
		view:   view,
		format: format,
		index:  index,
		state: device.AccessState{
			Access: device.AccessNone,
			Stage:  device.PipelineStageTopOfPipe,
			Layout: device.ImageLayoutUndefined,
		},
	}
}

// Handle returns the backend image handle.
func (i *PresentableImage) Handle() device.Image {
	return i.handle
}

// View returns the color view created for the image.
func (i *PresentableImage) View() device.ImageView {
	return i.view
}

// Format returns the image's pixel format.
func (i *PresentableImage) Format() device.Format {
	return i.format
}

// Index returns the image's presentation index.
func (i *PresentableImage) Index() uint32 {
	return i.index
}

// State returns the access state the image was last left in.
func (i *PresentableImage) State() device.AccessState {
	return i.state
}

// NeedsTransition reports whether moving from the current state to next requires a barrier.
// A layout change always does. Staying in the same layout only does when the two uses differ
// and at least one of them writes to the image.
//
// Parameters:
//   - next: the state the next use requires
//
// Returns:
//   - bool: true if a barrier must be recorded
func (i *PresentableImage) NeedsTransition(next device.AccessState) bool {
	if i.state.Layout != next.Layout {
		return true
	}
	return (i.state.Access.HasWrite() || next.Access.HasWrite()) && i.state != next
}

// Transition records a barrier moving the image into next, but only when NeedsTransition says one is required,
// and then stores next as the image's current state.
//
// Parameters:
//   - rec: the command buffer recording the frame
//   - next: the state the next use requires
//
// Returns:
//   - bool: true if a barrier was recorded
func (i *PresentableImage) Transition(rec BarrierRecorder, next device.AccessState) bool {
	if !i.NeedsTransition(next) {
		i.state = next
		return false
	}
	rec.PipelineBarrier(device.ImageBarrier{
		Image:     i.handle,
		SrcAccess: i.state.Access,
		DstAccess: next.Access,
		SrcStage:  i.state.Stage,
		DstStage:  next.Stage,
		OldLayout: i.state.Layout,
		NewLayout: next.Layout,
	})
	common.Logger().Debug("image transition",
		"image", i.index, "from", i.state.Layout, "to", next.Layout)
	i.state = next
	return true
}

// MarkAcquired resets the tracked access after a successful acquire. The layout survives presentation, but
// the first barrier of the frame must chain with the image-available wait, which happens at the color output stage.
func (i *PresentableImage) MarkAcquired() {
	i.state.Access = device.AccessNone
	i.state.Stage = device.PipelineStageColorAttachmentOutput
}
