package command

import (
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/pkg/errors"
)

// ErrNotRecording is returned when a buffer is ended without having been begun.
var ErrNotRecording = errors.New("command: buffer is not recording")

// Buffer is a primary command buffer together with the device that records into it.
// Recording calls are only valid between Begin and End.
type Buffer struct {
	dev       device.Device
	handle    device.CommandBuffer
	recording bool
}

func newBuffer(dev device.Device, handle device.CommandBuffer) *Buffer {
	return &Buffer{dev: dev, handle: handle}
}

// Handle returns the backend command buffer handle.
func (b *Buffer) Handle() device.CommandBuffer {
	return b.handle
}

// Recording reports whether the buffer is between Begin and End.
func (b *Buffer) Recording() bool {
	return b.recording
}

// Reset discards everything previously recorded. The GPU must be done with the buffer.
func (b *Buffer) Reset() error {
	b.recording = false
	return errors.Wrap(b.dev.ResetCommandBuffer(b.handle), "reset command buffer")
}

// Begin opens the buffer for recording.
//
// Parameters:
//   - oneTimeSubmit: true if the buffer is submitted once and then reset or freed
//
// Returns:
//   - error: error if the device rejects the call
func (b *Buffer) Begin(oneTimeSubmit bool) error {
	if err := b.dev.BeginCommandBuffer(b.handle, oneTimeSubmit); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}
	b.recording = true
	return nil
}

// End closes the buffer so it can be submitted.
func (b *Buffer) End() error {
	if !b.recording {
		return ErrNotRecording
	}
	b.recording = false
	return errors.Wrap(b.dev.EndCommandBuffer(b.handle), "end command buffer")
}

// PipelineBarrier records an image memory barrier.
func (b *Buffer) PipelineBarrier(barrier device.ImageBarrier) {
	b.dev.CmdPipelineBarrier(b.handle, barrier)
}

// ClearColorImage records a clear of the whole color image, which must be in the given layout.
//
// Parameters:
//   - img: the image to clear
//   - layout: the layout the image is in when the command executes
//   - color: linear RGBA clear value
func (b *Buffer) ClearColorImage(img device.Image, layout device.ImageLayout, color [4]float32) {
	b.dev.CmdClearColorImage(b.handle, img, layout, color)
}
