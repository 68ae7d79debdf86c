// Package device defines the contract between the frame orchestration core and a GPU backend.
// The core only ever talks to a Device; concrete backends (see backend/vulkan) translate these calls to a native API.
package device

import "time"

// Device is the device/queue collaborator consumed by the swapchain, command pool and renderer.
// It exposes one graphics-capable queue, one presentation-capable queue (which may be the same),
// and the surface capability queries needed for swapchain negotiation.
//
// All methods are called from the single render goroutine unless stated otherwise.
type Device interface {
	// SurfaceSupport queries the presentation surface's capabilities, formats and present modes.
	//
	// Returns:
	//   - SurfaceSupport: a fresh snapshot of the surface's reported support
	//   - error: error if the surface could not be queried
	SurfaceSupport() (SurfaceSupport, error)

	// CreateSwapchain creates a swapchain for the presentation surface.
	//
	// Parameters:
	//   - desc: the negotiated swapchain parameters
	//   - old: the swapchain being replaced, used as a creation hint (nil for none)
	//
	// Returns:
	//   - Swapchain: the new swapchain handle
	//   - error: error if creation was rejected
	CreateSwapchain(desc SwapchainDescriptor, old Swapchain) (Swapchain, error)

	// DestroySwapchain destroys a swapchain handle. Images owned by it become invalid.
	DestroySwapchain(sc Swapchain)

	// SwapchainImages returns the presentation images owned by a swapchain, in presentation index order.
	//
	// Parameters:
	//   - sc: the swapchain to query
	//
	// Returns:
	//   - []Image: the images, index i being presentation index i
	//   - error: error if the images could not be queried
	SwapchainImages(sc Swapchain) ([]Image, error)

	// CreateImageView creates a 2D color view over a swapchain image.
	//
	// Parameters:
	//   - img: the image to view
	//   - format: the view format
	//
	// Returns:
	//   - ImageView: the new view
	//   - error: error if creation failed
	CreateImageView(img Image, format Format) (ImageView, error)

	// DestroyImageView destroys an image view.
	DestroyImageView(view ImageView)

	// CreateSemaphore creates a binary semaphore.
	CreateSemaphore() (Semaphore, error)

	// DestroySemaphore destroys a semaphore.
	DestroySemaphore(s Semaphore)

	// CreateFence creates a fence.
	//
	// Parameters:
	//   - signaled: whether the fence starts in the signaled state
	//
	// Returns:
	//   - Fence: the new fence
	//   - error: error if creation failed
	CreateFence(signaled bool) (Fence, error)

	// DestroyFence destroys a fence.
	DestroyFence(f Fence)

	// WaitForFence blocks until the fence is signaled or the timeout expires.
	//
	// Parameters:
	//   - f: the fence to wait on
	//   - timeout: the longest time to wait, NoTimeout to wait indefinitely
	//
	// Returns:
	//   - error: ErrTimeout if the timeout expired, another error on device failure
	WaitForFence(f Fence, timeout time.Duration) error

	// ResetFence returns a signaled fence to the unsignaled state.
	ResetFence(f Fence) error

	// AcquireNextImage acquires the next presentable image and arranges for sem to be signaled when it is usable.
	//
	// Parameters:
	//   - sc: the swapchain to acquire from
	//   - timeout: the longest time to block
	//   - sem: the semaphore to signal
	//
	// Returns:
	//   - uint32: the acquired image index, valid only when the status is usable
	//   - Status: the acquisition outcome
	AcquireNextImage(sc Swapchain, timeout time.Duration, sem Semaphore) (uint32, Status)

	// Submit submits one command buffer to the graphics queue.
	Submit(info SubmitInfo) error

	// Present queues an image for presentation on the presentation queue.
	Present(info PresentInfo) Status

	// WaitIdle blocks until all submitted work on the device has completed.
	WaitIdle() error

	// CreateCommandPool creates a command pool on the graphics queue family.
	//
	// Parameters:
	//   - resettable: whether individual buffers may be reset rather than only the whole pool
	//
	// Returns:
	//   - CommandPool: the new pool
	//   - error: error if creation failed
	CreateCommandPool(resettable bool) (CommandPool, error)

	// DestroyCommandPool destroys a command pool and every buffer allocated from it.
	DestroyCommandPool(pool CommandPool)

	// AllocateCommandBuffers allocates primary command buffers from a pool.
	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)

	// FreeCommandBuffers returns command buffers to their pool.
	FreeCommandBuffers(pool CommandPool, buffers []CommandBuffer)

	// ResetCommandBuffer returns a command buffer to the initial state.
	ResetCommandBuffer(cb CommandBuffer) error

	// BeginCommandBuffer starts recording into a command buffer.
	//
	// Parameters:
	//   - cb: the command buffer
	//   - oneTimeSubmit: whether the buffer will be submitted once and then discarded
	BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error

	// EndCommandBuffer finishes recording.
	EndCommandBuffer(cb CommandBuffer) error

	// CmdPipelineBarrier records an image memory barrier.
	CmdPipelineBarrier(cb CommandBuffer, barrier ImageBarrier)

	// CmdClearColorImage records a clear of the whole color subresource of an image.
	//
	// Parameters:
	//   - cb: the command buffer
	//   - img: the image to clear
	//   - layout: the layout the image is in (General or TransferDst)
	//   - color: linear RGBA clear value
	CmdClearColorImage(cb CommandBuffer, img Image, layout ImageLayout, color [4]float32)
}
