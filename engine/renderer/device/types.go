package device

import (
	"math"
	"time"
)

// Opaque handle types. A backend stores its native handle in them and type-asserts on the way back in.
// Handles never cross backends.
type (
	Swapchain     any
	Image         any
	ImageView     any
	Semaphore     any
	Fence         any
	CommandPool   any
	CommandBuffer any
)

// NoTimeout is the longest wait a Device accepts; backends treat it as "wait forever".
const NoTimeout = time.Duration(math.MaxInt64)

// UndefinedExtent is the sentinel a surface reports in CurrentExtent when the swapchain decides the size.
const UndefinedExtent = math.MaxUint32

// Format identifies a pixel format. Values match VkFormat.
type Format uint32

const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatR8G8B8A8Srgb  Format = 43
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
)

// ColorSpace identifies how presented pixels are interpreted. Values match VkColorSpaceKHR.
type ColorSpace uint32

const (
	ColorSpaceSrgbNonlinear ColorSpace = 0
)

// PresentMode controls how presented images are queued to the display. Values match VkPresentModeKHR.
type PresentMode uint32

const (
	// PresentModeImmediate presents without waiting for vertical blank. May tear.
	PresentModeImmediate PresentMode = 0
	// PresentModeMailbox replaces the queued image each vertical blank. No tearing, low latency.
	PresentModeMailbox PresentMode = 1
	// PresentModeFifo queues images for vertical blank. Always supported.
	PresentModeFifo PresentMode = 2
	// PresentModeFifoRelaxed behaves like Fifo but presents late images immediately.
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFifo:
		return "Fifo"
	case PresentModeFifoRelaxed:
		return "FifoRelaxed"
	default:
		return "Unknown"
	}
}

// ImageLayout is the memory layout of an image. Values match VkImageLayout.
type ImageLayout uint32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutGeneral                ImageLayout = 1
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutTransferSrc            ImageLayout = 6
	ImageLayoutTransferDst            ImageLayout = 7
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

// AccessFlags is a mask of memory access types. Values match VkAccessFlagBits.
type AccessFlags uint32

const (
	AccessNone                 AccessFlags = 0
	AccessShaderRead           AccessFlags = 0x00000020
	AccessShaderWrite          AccessFlags = 0x00000040
	AccessColorAttachmentRead  AccessFlags = 0x00000080
	AccessColorAttachmentWrite AccessFlags = 0x00000100
	AccessTransferRead         AccessFlags = 0x00000800
	AccessTransferWrite        AccessFlags = 0x00001000
	AccessMemoryRead           AccessFlags = 0x00008000
	AccessMemoryWrite          AccessFlags = 0x00010000
)

const accessWriteMask = AccessShaderWrite | AccessColorAttachmentWrite | AccessTransferWrite | AccessMemoryWrite

// HasWrite reports whether the mask includes any write access.
func (a AccessFlags) HasWrite() bool {
	return a&accessWriteMask != 0
}

// PipelineStage is a mask of pipeline stages. Values match VkPipelineStageFlagBits.
type PipelineStage uint32

const (
	PipelineStageTopOfPipe             PipelineStage = 0x00000001
	PipelineStageFragmentShader        PipelineStage = 0x00000080
	PipelineStageColorAttachmentOutput PipelineStage = 0x00000400
	PipelineStageTransfer              PipelineStage = 0x00001000
	PipelineStageBottomOfPipe          PipelineStage = 0x00002000
)

// CompositeAlpha selects how the surface alpha channel is composited. Values match VkCompositeAlphaFlagBitsKHR.
type CompositeAlpha uint32

const (
	CompositeAlphaOpaque         CompositeAlpha = 0x1
	CompositeAlphaPreMultiplied  CompositeAlpha = 0x2
	CompositeAlphaPostMultiplied CompositeAlpha = 0x4
	CompositeAlphaInherit        CompositeAlpha = 0x8
)

// Extent2D is a width/height pair in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// SurfaceFormat pairs a pixel format with its color space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// SurfaceCapabilities is the subset of surface capabilities swapchain negotiation needs.
type SurfaceCapabilities struct {
	// MinImageCount is the minimum number of images the surface supports.
	MinImageCount uint32
	// MaxImageCount is the maximum number of images, or 0 for no limit.
	MaxImageCount uint32

	// CurrentExtent is the surface size, or UndefinedExtent in both fields when the swapchain decides.
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D

	// CurrentTransform is passed through as the swapchain pre-transform.
	CurrentTransform uint32
	// SupportedCompositeAlpha is a mask of CompositeAlpha bits.
	SupportedCompositeAlpha CompositeAlpha
}

// SurfaceSupport is a snapshot of everything the surface reports about itself.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// SwapchainDescriptor describes a swapchain to create.
type SwapchainDescriptor struct {
	MinImageCount  uint32
	Format         SurfaceFormat
	Extent         Extent2D
	PresentMode    PresentMode
	PreTransform   uint32
	CompositeAlpha CompositeAlpha
}

// AccessState is how an image was last used: the access mask, the pipeline stage and the layout.
type AccessState struct {
	Access AccessFlags
	Stage  PipelineStage
	Layout ImageLayout
}

// ImageBarrier is a single image memory barrier over the whole color subresource.
type ImageBarrier struct {
	Image     Image
	SrcAccess AccessFlags
	DstAccess AccessFlags
	SrcStage  PipelineStage
	DstStage  PipelineStage
	OldLayout ImageLayout
	NewLayout ImageLayout
}

// SubmitInfo describes one command buffer submission to the graphics queue.
// Nil semaphores and fences are omitted from the submission.
type SubmitInfo struct {
	CommandBuffer CommandBuffer
	Wait          Semaphore
	WaitStage     PipelineStage
	Signal        Semaphore
	Fence         Fence
}

// PresentInfo describes one presentation request.
type PresentInfo struct {
	Wait       Semaphore
	Swapchain  Swapchain
	ImageIndex uint32
}
