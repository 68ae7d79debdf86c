package renderer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/renderer/command"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/pass"
	"github.com/DurnezG/ruby-go/engine/renderer/swapchain"
	"github.com/pkg/errors"
)

const (
	// DefaultAcquireTimeout bounds how long BeginFrame waits for the presentation engine to release an image.
	DefaultAcquireTimeout = time.Second

	// DefaultFrameTimeout bounds how long BeginFrame waits for the GPU to finish a frame slot's previous submission.
	DefaultFrameTimeout = device.NoTimeout
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	dev       device.Device
	swapchain swapchain.Swapchain
	commands  command.Pool

	passes       []pass.Pass
	passesClosed bool
	workers      worker.DynamicWorkerPool

	state        FrameState
	currentFrame int
	imageIndex   uint32

	resizePending atomic.Bool
	pendingMode   *device.PresentMode

	presented   atomic.Uint64
	skipped     atomic.Uint64
	recreations atomic.Uint64
	generation  atomic.Uint64

	closeOnce sync.Once
	closed    bool

	// failed is the first fatal frame error. Once set the frame ring may hold an unsubmitted, unsignaled fence,
	// so no frame operation touches the device again.
	failed error

	// Pre-creation config collected from builder options
	acquireTimeout      time.Duration
	frameTimeout        time.Duration
	immediateTimeout    time.Duration
	passRecreateWorkers int
	presentMode         *device.PresentMode
	swapchainOptions    []swapchain.SwapchainBuilderOption
}

// Renderer drives the frame cycle: it paces the CPU against the GPU with a fixed ring of frame slots, acquires
// presentable images, runs the registered passes, submits, presents, and rebuilds the swapchain when the surface changes.
//
// A frame is BeginFrame, RecordPasses, EndFrame, in that order, on a single goroutine. Render does all three.
// RequestResize and SetPresentMode may be called from any goroutine.
//
// A fatal error from any frame operation stops the renderer: from then on BeginFrame, RecordPasses and EndFrame
// return that error without touching the device, and only Close remains useful.
type Renderer interface {
	// BeginFrame waits for the current frame slot to be free, acquires the next image and opens the slot's command buffer.
	// If the swapchain is out of date it is rebuilt and ErrFrameSkipped is returned; the renderer is Idle again.
	//
	// Returns:
	//   - uint32: the presentation index of the acquired image
	//   - error: ErrFrameSkipped, ErrInvalidFrameState, or a fatal acquisition error
	BeginFrame() (uint32, error)

	// RecordPasses records every registered pass, in registration order, into the frame's command buffer.
	//
	// Returns:
	//   - error: ErrInvalidFrameState, or the first pass error
	RecordPasses() error

	// EndFrame moves the image to the present layout, submits the frame, advances the frame slot and presents.
	// The swapchain is rebuilt afterwards when the present result or a pending resize asks for it.
	//
	// Returns:
	//   - error: ErrInvalidFrameState, or a fatal submission, presentation or recreation error
	EndFrame() error

	// Render runs one full frame. A skipped frame is not an error.
	//
	// Returns:
	//   - bool: true if an image was handed to the presentation engine
	//   - error: a fatal error from any step
	Render() (bool, error)

	// RegisterPass appends a pass to the ordered pass list. Passes run in registration order.
	// Registration closes with the first BeginFrame; passes cannot be unregistered.
	//
	// Parameters:
	//   - p: the pass to add
	//
	// Returns:
	//   - error: ErrPassRegistrationClosed after the first frame
	RegisterPass(p pass.Pass) error

	// Passes returns a copy of the registered pass list.
	//
	// Returns:
	//   - []pass.Pass: the passes in registration order
	Passes() []pass.Pass

	// RequestResize schedules a swapchain rebuild at the end of the next frame.
	// Wire it to the window's framebuffer resize callback.
	RequestResize()

	// SetPresentMode stores a new preferred present mode and schedules a rebuild to apply it.
	//
	// Parameters:
	//   - mode: the preferred present mode
	SetPresentMode(mode device.PresentMode)

	// CurrentFrame returns the frame slot the next BeginFrame will use.
	//
	// Returns:
	//   - int: the slot index in [0, swapchain.MaxFramesInFlight)
	CurrentFrame() int

	// State returns the renderer's position in the frame cycle.
	//
	// Returns:
	//   - FrameState: the current state
	State() FrameState

	// ImageIndex returns the presentation index acquired by the last successful BeginFrame.
	//
	// Returns:
	//   - uint32: the image index
	ImageIndex() uint32

	// Swapchain returns the swapchain. Its images and slots change on every rebuild.
	//
	// Returns:
	//   - swapchain.Swapchain: the swapchain
	Swapchain() swapchain.Swapchain

	// CommandPool returns the command pool, for immediate submissions outside the frame cycle.
	//
	// Returns:
	//   - command.Pool: the command pool
	CommandPool() command.Pool

	// Device returns the device the renderer was built on.
	//
	// Returns:
	//   - device.Device: the device
	Device() device.Device

	// Stats returns a snapshot of the frame counters.
	//
	// Returns:
	//   - FrameStats: the counters
	Stats() FrameStats

	// Close waits for the GPU and releases the command pool and swapchain. It is safe to call more than once.
	//
	// Returns:
	//   - error: error if the device could not be drained; resources are released regardless
	Close() error
}

var _ Renderer = &renderer{}

// NewRenderer builds the swapchain and the command pool for a surface and returns a Renderer in the Idle state.
//
// Parameters:
//   - dev: the device to render with
//   - surface: the window collaborator the swapchain is sized against
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the new renderer
//   - error: error if the swapchain or command pool could not be created
func NewRenderer(dev device.Device, surface swapchain.Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:               &sync.Mutex{},
		dev:              dev,
		acquireTimeout:   DefaultAcquireTimeout,
		frameTimeout:     DefaultFrameTimeout,
		immediateTimeout: command.DefaultImmediateTimeout,
	}
	for _, opt := range options {
		opt(r)
	}

	scOpts := r.swapchainOptions
	if r.presentMode != nil {
		scOpts = append(scOpts, swapchain.WithPresentMode(*r.presentMode))
	}
	sc, err := swapchain.NewSwapchain(surface, dev, scOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	r.swapchain = sc
	r.generation.Store(sc.Generation())

	pool, err := command.NewPool(dev,
		command.WithFrameCount(swapchain.MaxFramesInFlight),
		command.WithImmediateTimeout(r.immediateTimeout),
	)
	if err != nil {
		sc.Destroy()
		return nil, errors.Wrap(err, "create command pool")
	}
	r.commands = pool

	if r.passRecreateWorkers > 1 {
		r.workers = worker.NewDynamicWorkerPool(r.passRecreateWorkers, 64, time.Second)
	}

	common.Logger().Info("renderer created",
		"framesInFlight", swapchain.MaxFramesInFlight,
		"passes", len(r.passes),
		"acquireTimeout", r.acquireTimeout)
	return r, nil
}

func (r *renderer) BeginFrame() (uint32, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if r.failed != nil {
		return 0, r.latched()
	}
	if r.state != FrameStateIdle {
		return 0, r.invalidState("BeginFrame")
	}
	r.passesClosed = true
	r.state = FrameStateAcquiring

	slot := r.swapchain.FrameSlot(r.currentFrame)
	if err := slot.Wait(r.frameTimeout); err != nil {
		return 0, r.fatal(errors.Wrapf(err, "frame slot %d", r.currentFrame))
	}

	index, status := r.swapchain.AcquireNextImage(r.acquireTimeout, r.currentFrame)
	switch status {
	case device.StatusSuccess:
	case device.StatusSuboptimal:
		common.Logger().Debug("suboptimal acquire, rebuilding after this frame", "frame", r.currentFrame)
		r.resizePending.Store(true)
	case device.StatusOutOfDate:
		// The slot's fence was not reset and its semaphore was not signaled, so the slot is reusable as is.
		r.state = FrameStateIdle
		common.Logger().Debug("swapchain out of date on acquire, skipping frame", "frame", r.currentFrame)
		if err := r.recreate(); err != nil {
			return 0, r.fatal(err)
		}
		r.skipped.Add(1)
		return 0, ErrFrameSkipped
	default:
		return 0, r.fatal(errors.Wrapf(status.Err(), "acquire next image (status %s)", status))
	}

	if err := slot.Reset(); err != nil {
		return 0, r.fatal(err)
	}
	r.swapchain.Image(index).MarkAcquired()

	buf := r.commands.FrameBuffer(r.currentFrame)
	if err := buf.Reset(); err != nil {
		return 0, r.fatal(err)
	}
	if err := buf.Begin(true); err != nil {
		return 0, r.fatal(err)
	}

	r.imageIndex = index
	r.state = FrameStateRecording
	return index, nil
}

func (r *renderer) RecordPasses() error {
	if r.failed != nil {
		return r.latched()
	}
	if r.state != FrameStateRecording {
		return r.invalidState("RecordPasses")
	}
	ctx := pass.Context{
		Device:    r.dev,
		Commands:  r.commands.FrameBuffer(r.currentFrame),
		Swapchain: r.swapchain,
		Frame:     r.currentFrame,
		Image:     r.swapchain.Image(r.imageIndex),
	}
	for i, p := range r.passes {
		if err := p.Record(ctx, r.imageIndex); err != nil {
			return r.fatal(errors.Wrapf(err, "record pass %d", i))
		}
	}
	return nil
}

func (r *renderer) EndFrame() error {
	_, err := r.endFrame()
	return err
}

// endFrame reports whether the present request was accepted, so Render can count it.
func (r *renderer) endFrame() (bool, error) {
	if r.failed != nil {
		return false, r.latched()
	}
	if r.state != FrameStateRecording {
		return false, r.invalidState("EndFrame")
	}
	r.state = FrameStateSubmitting

	frame := r.currentFrame
	slot := r.swapchain.FrameSlot(frame)
	buf := r.commands.FrameBuffer(frame)
	r.swapchain.Image(r.imageIndex).Transition(buf, presentState)

	if err := buf.End(); err != nil {
		return false, r.fatal(err)
	}
	err := r.dev.Submit(device.SubmitInfo{
		CommandBuffer: buf.Handle(),
		Wait:          slot.ImageAvailable,
		WaitStage:     device.PipelineStageColorAttachmentOutput,
		Signal:        slot.RenderFinished,
		Fence:         slot.InFlight,
	})
	if err != nil {
		return false, r.fatal(errors.Wrapf(err, "submit frame %d", frame))
	}

	// The submission is in flight, so the slot advances no matter what presentation reports.
	r.currentFrame = (r.currentFrame + 1) % swapchain.MaxFramesInFlight
	r.state = FrameStatePresenting

	status := r.dev.Present(device.PresentInfo{
		Wait:       slot.RenderFinished,
		Swapchain:  r.swapchain.Handle(),
		ImageIndex: r.imageIndex,
	})
	resize := r.resizePending.Swap(false)

	presented := status.Usable()
	if presented {
		r.presented.Add(1)
	}

	switch status {
	case device.StatusSuccess:
		if !resize {
			r.state = FrameStateIdle
			return true, nil
		}
	case device.StatusSuboptimal, device.StatusOutOfDate:
		common.Logger().Debug("present requested a rebuild", "status", status)
	default:
		return false, r.fatal(errors.Wrapf(status.Err(), "present image %d (status %s)", r.imageIndex, status))
	}

	if err := r.recreate(); err != nil {
		return presented, r.fatal(err)
	}
	r.state = FrameStateIdle
	return presented, nil
}

func (r *renderer) Render() (bool, error) {
	if _, err := r.BeginFrame(); err != nil {
		if errors.Is(err, ErrFrameSkipped) {
			return false, nil
		}
		return false, err
	}
	if err := r.RecordPasses(); err != nil {
		return false, err
	}
	return r.endFrame()
}

func (r *renderer) RegisterPass(p pass.Pass) error {
	if p == nil {
		return errors.New("renderer: cannot register a nil pass")
	}
	if r.passesClosed {
		return ErrPassRegistrationClosed
	}
	r.passes = append(r.passes, p)
	return nil
}

func (r *renderer) Passes() []pass.Pass {
	return append([]pass.Pass(nil), r.passes...)
}

func (r *renderer) RequestResize() {
	r.resizePending.Store(true)
}

func (r *renderer) SetPresentMode(mode device.PresentMode) {
	r.mu.Lock()
	r.pendingMode = &mode
	r.mu.Unlock()
	r.resizePending.Store(true)
}

func (r *renderer) CurrentFrame() int {
	return r.currentFrame
}

func (r *renderer) State() FrameState {
	return r.state
}

func (r *renderer) ImageIndex() uint32 {
	return r.imageIndex
}

func (r *renderer) Swapchain() swapchain.Swapchain {
	return r.swapchain
}

func (r *renderer) CommandPool() command.Pool {
	return r.commands
}

func (r *renderer) Device() device.Device {
	return r.dev
}

func (r *renderer) Stats() FrameStats {
	return FrameStats{
		Presented:   r.presented.Load(),
		Skipped:     r.skipped.Load(),
		Recreations: r.recreations.Load(),
		Generation:  r.generation.Load(),
	}
}

func (r *renderer) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = errors.Wrap(r.dev.WaitIdle(), "drain device before close")
		if r.workers != nil {
			r.workers.Stop()
		}
		r.commands.Destroy()
		r.swapchain.Destroy()
		r.closed = true
		common.Logger().Info("renderer closed", "presented", r.presented.Load(), "recreations", r.recreations.Load())
	})
	return err
}

// fatal latches the first unrecoverable frame error and returns the renderer to Idle.
func (r *renderer) fatal(err error) error {
	if r.failed == nil {
		r.failed = err
		common.Logger().Error("renderer stopped by a fatal frame error", "error", err, "frame", r.currentFrame)
	}
	r.state = FrameStateIdle
	return err
}

// latched returns the error that stopped the renderer. The cause stays reachable through errors.Is.
func (r *renderer) latched() error {
	return errors.WithMessage(r.failed, "renderer stopped earlier")
}

func (r *renderer) invalidState(op string) error {
	return errors.Wrapf(ErrInvalidFrameState, "%s in state %s", op, r.state)
}
