package swapchain

import (
	"time"

	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/pkg/errors"
)

// MaxFramesInFlight is the size of the frame slot ring. It bounds how many frames the host may record
// ahead of the GPU and never changes across swapchain recreation.
const MaxFramesInFlight = 2

// FrameSlot is one position in the ring of per-frame synchronization objects.
//
// ImageAvailable is signaled by acquisition and waited on by the frame's submission. RenderFinished is signaled by
// the submission and waited on by presentation. InFlight is the completion guard: it is signaled when the GPU finishes
// the slot's last submission and must be observed before the slot's command buffer or semaphores are reused.
type FrameSlot struct {
	dev device.Device

	ImageAvailable device.Semaphore
	RenderFinished device.Semaphore
	InFlight       device.Fence
}

func newFrameSlot(dev device.Device) (*FrameSlot, error) {
	s := &FrameSlot{dev: dev}
	var err error
	if s.ImageAvailable, err = dev.CreateSemaphore(); err != nil {
		return nil, errors.Wrap(err, "create image-available semaphore")
	}
	if s.RenderFinished, err = dev.CreateSemaphore(); err != nil {
		s.destroy()
		return nil, errors.Wrap(err, "create render-finished semaphore")
	}
	// Created signaled so the first wait on a fresh slot returns immediately.
	if s.InFlight, err = dev.CreateFence(true); err != nil {
		s.destroy()
		return nil, errors.Wrap(err, "create in-flight fence")
	}
	return s, nil
}

// Wait blocks until the slot's previous submission has completed on the GPU.
//
// Parameters:
//   - timeout: the longest time to wait
//
// Returns:
//   - error: wraps device.ErrTimeout if the GPU did not finish in time
func (s *FrameSlot) Wait(timeout time.Duration) error {
	return errors.Wrap(s.dev.WaitForFence(s.InFlight, timeout), "wait for frame slot")
}

// Reset re-arms the completion guard. Only call it after Wait succeeded and right before the slot is submitted again.
func (s *FrameSlot) Reset() error {
	return errors.Wrap(s.dev.ResetFence(s.InFlight), "reset frame slot")
}

func (s *FrameSlot) destroy() {
	if s.ImageAvailable != nil {
		s.dev.DestroySemaphore(s.ImageAvailable)
		s.ImageAvailable = nil
	}
	if s.RenderFinished != nil {
		s.dev.DestroySemaphore(s.RenderFinished)
		s.RenderFinished = nil
	}
	if s.InFlight != nil {
		s.dev.DestroyFence(s.InFlight)
		s.InFlight = nil
	}
}

// frameRing is the fixed-size ring of frame slots.
type frameRing [MaxFramesInFlight]*FrameSlot

func newFrameRing(dev device.Device) (frameRing, error) {
	var ring frameRing
	for i := range ring {
		slot, err := newFrameSlot(dev)
		if err != nil {
			ring.destroy()
			return frameRing{}, errors.Wrapf(err, "frame slot %d", i)
		}
		ring[i] = slot
	}
	return ring, nil
}

func (r *frameRing) destroy() {
	for i, slot := range r {
		if slot != nil {
			slot.destroy()
			r[i] = nil
		}
	}
}
