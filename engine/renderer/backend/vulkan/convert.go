package vulkan

import (
	"strings"
	"time"

	"github.com/DurnezG/ruby-go/engine/renderer/device"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// cString returns s terminated by exactly one NUL, the form goki/vulkan expects for names.
func cString(s string) string {
	return strings.TrimRight(s, "\x00") + "\x00"
}

// timeoutNanos converts a wait duration to the nanosecond count Vulkan expects.
func timeoutNanos(d time.Duration) uint64 {
	if d == device.NoTimeout || d < 0 {
		return vk.MaxUint64
	}
	return uint64(d.Nanoseconds())
}

// toStatus maps an acquire or present result to a Status.
func toStatus(res vk.Result) device.Status {
	switch res {
	case vk.Success:
		return device.StatusSuccess
	case vk.Suboptimal:
		return device.StatusSuboptimal
	case vk.ErrorOutOfDate:
		return device.StatusOutOfDate
	case vk.Timeout, vk.NotReady:
		return device.StatusTimeout
	case vk.ErrorDeviceLost, vk.ErrorSurfaceLost:
		return device.StatusDeviceLost
	default:
		return device.StatusError
	}
}

// resultErr wraps a failed result with a sentinel where one exists so callers can match it with errors.Is.
func resultErr(res vk.Result, msg string) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Timeout:
		return errors.Wrap(device.ErrTimeout, msg)
	case vk.ErrorDeviceLost:
		return errors.Wrap(device.ErrDeviceLost, msg)
	case vk.ErrorOutOfDate:
		return errors.Wrap(device.ErrOutOfDate, msg)
	default:
		return errors.Wrap(vk.Error(res), msg)
	}
}

func toSurfaceCapabilities(caps vk.SurfaceCapabilities) device.SurfaceCapabilities {
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return device.SurfaceCapabilities{
		MinImageCount:           caps.MinImageCount,
		MaxImageCount:           caps.MaxImageCount,
		CurrentExtent:           toExtent(caps.CurrentExtent),
		MinImageExtent:          toExtent(caps.MinImageExtent),
		MaxImageExtent:          toExtent(caps.MaxImageExtent),
		CurrentTransform:        uint32(caps.CurrentTransform),
		SupportedCompositeAlpha: device.CompositeAlpha(caps.SupportedCompositeAlpha),
	}
}

func toExtent(e vk.Extent2D) device.Extent2D {
	return device.Extent2D{Width: e.Width, Height: e.Height}
}

func fromExtent(e device.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func colorRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: 1,
		LayerCount: 1,
	}
}

// Handle assertions. A handle from another backend, or nil, maps to the null handle.

func swapchainHandle(h device.Swapchain) vk.Swapchain {
	if sc, ok := h.(vk.Swapchain); ok {
		return sc
	}
	return vk.NullSwapchain
}

func imageHandle(h device.Image) vk.Image {
	if img, ok := h.(vk.Image); ok {
		return img
	}
	return vk.NullImage
}

func imageViewHandle(h device.ImageView) vk.ImageView {
	if v, ok := h.(vk.ImageView); ok {
		return v
	}
	return vk.NullImageView
}

func semaphoreHandle(h device.Semaphore) vk.Semaphore {
	if s, ok := h.(vk.Semaphore); ok {
		return s
	}
	return vk.NullSemaphore
}

func fenceHandle(h device.Fence) vk.Fence {
	if f, ok := h.(vk.Fence); ok {
		return f
	}
	return vk.NullFence
}

func commandPoolHandle(h device.CommandPool) vk.CommandPool {
	if p, ok := h.(vk.CommandPool); ok {
		return p
	}
	return vk.NullCommandPool
}

func commandBufferHandle(h device.CommandBuffer) vk.CommandBuffer {
	if cb, ok := h.(vk.CommandBuffer); ok {
		return cb
	}
	return nil
}
