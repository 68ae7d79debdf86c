package swapchain

import (
	"time"

	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/pkg/errors"
)

// ErrSurfaceClosed is returned by Recreate when the window closes while the swapchain is waiting for a non-zero size.
var ErrSurfaceClosed = errors.New("swapchain: surface closed while minimized")

// Surface is the window collaborator the swapchain negotiates against.
// If the value also implements IsRunning() bool, the minimize stall gives up once it reports false.
type Surface interface {
	// FramebufferSize returns the current framebuffer size in pixels.
	FramebufferSize() (width, height int)

	// WaitEvents blocks until the platform delivers at least one event.
	WaitEvents()
}

type runningChecker interface {
	IsRunning() bool
}

// swapchainState is everything replaced by a recreation. The swapchain wrapper keeps its identity while the state is swapped.
type swapchainState struct {
	handle      device.Swapchain
	format      device.SurfaceFormat
	extent      device.Extent2D
	presentMode device.PresentMode
	support     device.SurfaceSupport
	images      []*PresentableImage
}

// swapchain is the implementation of the Swapchain interface.
type swapchain struct {
	dev     device.Device
	surface Surface

	preferredFormat   device.SurfaceFormat
	preferredMode     device.PresentMode
	desiredImageCount uint32

	state      *swapchainState
	ring       frameRing
	generation uint64
}

// Swapchain owns the presentable images, the negotiated surface parameters and the frame slot ring.
//
// The Swapchain value stays valid across Recreate; everything it hands out (images, slots, the native handle) does not,
// so callers must re-fetch them after a recreation instead of caching them.
type Swapchain interface {
	// Handle returns the native swapchain handle of the current generation.
	//
	// Returns:
	//   - device.Swapchain: the backend handle
	Handle() device.Swapchain

	// Format returns the negotiated surface format.
	//
	// Returns:
	//   - device.SurfaceFormat: the pixel format and color space of the images
	Format() device.SurfaceFormat

	// Extent returns the negotiated image size.
	//
	// Returns:
	//   - device.Extent2D: the width and height of every image in pixels
	Extent() device.Extent2D

	// PresentMode returns the present mode in use.
	//
	// Returns:
	//   - device.PresentMode: the negotiated present mode
	PresentMode() device.PresentMode

	// SetPresentMode stores a new preferred present mode. It takes effect on the next Recreate.
	//
	// Parameters:
	//   - mode: the preferred present mode
	SetPresentMode(mode device.PresentMode)

	// Support returns the surface support snapshot taken at the last (re)build.
	//
	// Returns:
	//   - device.SurfaceSupport: capabilities, formats and present modes
	Support() device.SurfaceSupport

	// ImageCount returns the number of presentable images.
	//
	// Returns:
	//   - int: the image count of the current generation
	ImageCount() int

	// Image returns the presentable image at a presentation index, or nil if the index is out of range.
	//
	// Parameters:
	//   - index: the presentation index returned by AcquireNextImage
	//
	// Returns:
	//   - *PresentableImage: the image
	Image(index uint32) *PresentableImage

	// Images returns a copy of the image list in presentation index order.
	//
	// Returns:
	//   - []*PresentableImage: the images of the current generation
	Images() []*PresentableImage

	// FrameSlot returns the frame slot at a ring position.
	//
	// Parameters:
	//   - index: the ring position in [0, MaxFramesInFlight)
	//
	// Returns:
	//   - *FrameSlot: the slot
	FrameSlot(index int) *FrameSlot

	// Generation returns how many times the swapchain has been rebuilt.
	//
	// Returns:
	//   - uint64: 0 after construction, incremented by every successful Recreate
	Generation() uint64

	// AcquireNextImage acquires the next image and signals the slot's image-available semaphore when it is usable.
	// The caller must already have waited on the slot's completion guard.
	//
	// Parameters:
	//   - timeout: the longest time to block
	//   - slot: the frame slot whose semaphore is signaled
	//
	// Returns:
	//   - uint32: the presentation index of the acquired image
	//   - device.Status: success, suboptimal, out-of-date, or a failure
	AcquireNextImage(timeout time.Duration, slot int) (uint32, device.Status)

	// Recreate rebuilds the swapchain, its images and the frame slot ring in place.
	// It blocks while the surface reports a zero size and drains the device before touching anything.
	// If the rebuild fails the swapchain has no images or frame slots; AcquireNextImage reports StatusError
	// until a later Recreate succeeds.
	//
	// Returns:
	//   - error: ErrSurfaceClosed if the window closed while minimized, otherwise a fatal rebuild error
	Recreate() error

	// Destroy drains the device and releases every object the swapchain owns.
	Destroy()
}

var _ Swapchain = &swapchain{}

// NewSwapchain negotiates and builds a swapchain for the surface, with its images and frame slot ring.
//
// Parameters:
//   - surface: the window collaborator providing framebuffer size and event waits
//   - dev: the device that owns the presentation surface
//   - options: functional options for preferred format, present mode and image count
//
// Returns:
//   - Swapchain: the new swapchain
//   - error: error if the surface cannot produce a swapchain
func NewSwapchain(surface Surface, dev device.Device, options ...SwapchainBuilderOption) (Swapchain, error) {
	s := &swapchain{
		dev:             dev,
		surface:         surface,
		preferredFormat: DefaultSurfaceFormat,
		preferredMode:   device.PresentModeFifo,
	}
	for _, opt := range options {
		opt(s)
	}

	state, err := s.buildVisible(nil)
	if err != nil {
		return nil, err
	}
	ring, err := newFrameRing(dev)
	if err != nil {
		s.destroyState(state)
		return nil, errors.Wrap(err, "create frame ring")
	}
	s.state = state
	s.ring = ring

	s.logState("swapchain created")
	return s, nil
}

func (s *swapchain) Handle() device.Swapchain {
	return s.state.handle
}

func (s *swapchain) Format() device.SurfaceFormat {
	return s.state.format
}

func (s *swapchain) Extent() device.Extent2D {
	return s.state.extent
}

func (s *swapchain) PresentMode() device.PresentMode {
	return s.state.presentMode
}

func (s *swapchain) SetPresentMode(mode device.PresentMode) {
	s.preferredMode = mode
}

func (s *swapchain) Support() device.SurfaceSupport {
	return s.state.support
}

func (s *swapchain) ImageCount() int {
	return len(s.state.images)
}

func (s *swapchain) Image(index uint32) *PresentableImage {
	if int(index) >= len(s.state.images) {
		return nil
	}
	return s.state.images[index]
}

func (s *swapchain) Images() []*PresentableImage {
	return append([]*PresentableImage(nil), s.state.images...)
}

func (s *swapchain) FrameSlot(index int) *FrameSlot {
	return s.ring[index]
}

func (s *swapchain) Generation() uint64 {
	return s.generation
}

func (s *swapchain) AcquireNextImage(timeout time.Duration, slot int) (uint32, device.Status) {
	if !s.usable() {
		common.Logger().Error("acquire on a swapchain whose last rebuild failed", "slot", slot)
		return 0, device.StatusError
	}
	return s.dev.AcquireNextImage(s.state.handle, timeout, s.ring[slot].ImageAvailable)
}

func (s *swapchain) Recreate() error {
	if err := s.waitForSize(); err != nil {
		return err
	}
	if err := s.dev.WaitIdle(); err != nil {
		return errors.Wrap(err, "drain device before recreate")
	}

	old := s.state
	s.destroyViews(old)
	s.ring.destroy()

	state, err := s.buildVisible(old.handle)
	if err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	s.dev.DestroySwapchain(old.handle)
	s.state = state

	ring, err := newFrameRing(s.dev)
	if err != nil {
		return errors.Wrap(err, "recreate frame ring")
	}
	s.ring = ring
	s.generation++

	s.logState("swapchain recreated")
	return nil
}

// usable reports whether the images and the frame slot ring of the current generation exist.
func (s *swapchain) usable() bool {
	if s.state == nil || len(s.state.images) == 0 {
		return false
	}
	for _, slot := range s.ring {
		if slot == nil {
			return false
		}
	}
	return true
}

func (s *swapchain) Destroy() {
	if s.state == nil {
		return
	}
	if err := s.dev.WaitIdle(); err != nil {
		common.Logger().Warn("wait idle before swapchain destroy", "err", err)
	}
	s.ring.destroy()
	s.destroyState(s.state)
	s.state = nil
}

// waitForSize blocks on the platform event pump while the framebuffer has a zero dimension.
func (s *swapchain) waitForSize() error {
	w, h := s.surface.FramebufferSize()
	if w > 0 && h > 0 {
		return nil
	}
	common.Logger().Debug("surface minimized, waiting for events", "width", w, "height", h)
	rc, canClose := s.surface.(runningChecker)
	for w <= 0 || h <= 0 {
		if canClose && !rc.IsRunning() {
			return ErrSurfaceClosed
		}
		s.surface.WaitEvents()
		w, h = s.surface.FramebufferSize()
	}
	return nil
}

// buildVisible waits for a non-zero framebuffer and builds, pumping events again whenever the surface
// capabilities still report a zero extent.
func (s *swapchain) buildVisible(old device.Swapchain) (*swapchainState, error) {
	if err := s.waitForSize(); err != nil {
		return nil, err
	}
	for {
		state, err := s.build(old)
		if err != nil || state != nil {
			return state, err
		}
		if rc, ok := s.surface.(runningChecker); ok && !rc.IsRunning() {
			return nil, ErrSurfaceClosed
		}
		s.surface.WaitEvents()
		if err := s.waitForSize(); err != nil {
			return nil, err
		}
	}
}

// build negotiates against a fresh surface snapshot and creates the swapchain, its images and their views.
// It returns a nil state and nil error when the negotiated extent is zero, leaving the caller to wait and retry.
func (s *swapchain) build(old device.Swapchain) (*swapchainState, error) {
	support, err := s.dev.SurfaceSupport()
	if err != nil {
		return nil, errors.Wrap(err, "query surface support")
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return nil, errors.New("surface reports no formats or present modes")
	}

	fbWidth, fbHeight := s.surface.FramebufferSize()
	state := &swapchainState{
		support:     support,
		format:      chooseSurfaceFormat(support.Formats, s.preferredFormat),
		presentMode: choosePresentMode(support.PresentModes, s.preferredMode),
		extent:      chooseExtent(support.Capabilities, fbWidth, fbHeight),
	}
	if state.extent.IsZero() {
		return nil, nil
	}
	if state.presentMode != s.preferredMode {
		common.Logger().Warn("preferred present mode unsupported, falling back",
			"preferred", s.preferredMode, "using", state.presentMode)
	}

	desc := device.SwapchainDescriptor{
		MinImageCount:  chooseImageCount(support.Capabilities, s.desiredImageCount),
		Format:         state.format,
		Extent:         state.extent,
		PresentMode:    state.presentMode,
		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: chooseCompositeAlpha(support.Capabilities.SupportedCompositeAlpha),
	}
	if state.handle, err = s.dev.CreateSwapchain(desc, old); err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}

	handles, err := s.dev.SwapchainImages(state.handle)
	if err != nil {
		s.dev.DestroySwapchain(state.handle)
		return nil, errors.Wrap(err, "get swapchain images")
	}
	state.images = make([]*PresentableImage, 0, len(handles))
	for i, img := range handles {
		view, err := s.dev.CreateImageView(img, state.format.Format)
		if err != nil {
			s.destroyState(state)
			return nil, errors.Wrapf(err, "create view for swapchain image %d", i)
		}
		state.images = append(state.images, newPresentableImage(uint32(i), img, view, state.format.Format))
	}
	return state, nil
}

func (s *swapchain) destroyViews(state *swapchainState) {
	for _, img := range state.images {
		s.dev.DestroyImageView(img.view)
	}
	state.images = nil
}

func (s *swapchain) destroyState(state *swapchainState) {
	s.destroyViews(state)
	if state.handle != nil {
		s.dev.DestroySwapchain(state.handle)
		state.handle = nil
	}
}

func (s *swapchain) logState(msg string) {
	common.Logger().Info(msg,
		"generation", s.generation,
		"width", s.state.extent.Width,
		"height", s.state.extent.Height,
		"format", s.state.format.Format,
		"presentMode", s.state.presentMode,
		"images", len(s.state.images))
}
