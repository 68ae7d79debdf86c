package engine

import (
	"sync"
	"time"

	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/profiler"
	"github.com/DurnezG/ruby-go/engine/renderer"
	"github.com/DurnezG/ruby-go/engine/renderer/backend/vulkan"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/pass"
	"github.com/DurnezG/ruby-go/engine/renderer/swapchain"
	"github.com/DurnezG/ruby-go/engine/window"
	"github.com/pkg/errors"
)

// engine implements the Engine interface.
// Coordinates the tick goroutine with the window message loop, which also drives rendering.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	device   device.Device
	renderer renderer.Renderer

	// ownedDevice is set when the engine bootstrapped the device itself and must destroy it.
	ownedDevice vulkan.Device

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastRender       time.Time

	errMu    sync.Mutex
	frameErr error

	// Pre-creation config collected from builder options
	validation      bool
	windowOptions   []window.WindowBuilderOption
	rendererOptions []renderer.RendererBuilderOption
}

// Engine is the main entry point for the engine.
// It owns the window, the device and the renderer, and runs the tick loop and the frame loop.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the frame renderer.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// RegisterPass appends a pass to the renderer. Only valid before Run.
	//
	// Parameters:
	//   - p: the pass to add
	//
	// Returns:
	//   - error: error if the renderer has already started rendering
	RegisterPass(p pass.Pass) error

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick on the tick goroutine.
	// It must not call frame operations on the renderer; RequestResize and SetPresentMode are safe.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called on the render thread before each frame.
	// Use this to update pass state for the coming frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the engine and blocks until the window closes or Quit is called, then releases everything.
	//
	// Returns:
	//   - error: the fatal frame error that stopped the engine, if any
	Run() error

	// Quit signals all engine goroutines to stop and asks the window to close.
	// Safe to call multiple times and from any goroutine; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine with the provided options.
// Without WithWindow a window is created; without WithDevice a Vulkan device is bootstrapped for it.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, renderer, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if the device or renderer could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		running:          false,
		wg:               sync.WaitGroup{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	ownedWindow := e.window == nil
	if ownedWindow {
		e.window = window.NewWindow(e.windowOptions...)
	}
	if e.device == nil {
		dev, err := vulkan.NewDevice(e.window, vulkan.WithValidation(e.validation))
		if err != nil {
			if ownedWindow {
				e.window.Close()
			}
			return nil, errors.Wrap(err, "create device")
		}
		e.device = dev
		e.ownedDevice = dev
	}

	r, err := renderer.NewRenderer(e.device, e.window, e.rendererOptions...)
	if err != nil {
		e.releaseDevice()
		if ownedWindow {
			e.window.Close()
		}
		return nil, errors.Wrap(err, "create renderer")
	}
	e.renderer = r

	e.window.SetResizeCallback(func(width, height int) {
		e.renderer.RequestResize()
	})

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) RegisterPass(p pass.Pass) error {
	return e.renderer.RegisterPass(p)
}

func (e *engine) Run() error {
	e.running = true
	e.lastRender = time.Now()
	e.handle()
	e.window.SetUpdateCallback(e.renderFrame)
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.shutdown()

	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.frameErr
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
	e.window.RequestClose()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// fail records the first fatal error and stops the engine.
func (e *engine) fail(err error) {
	e.errMu.Lock()
	if e.frameErr == nil {
		e.frameErr = err
	}
	e.errMu.Unlock()
	e.signalQuit()
}

// handle launches the engine tick and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// renderFrame runs one frame on the window thread. It is the window's update callback.
// Recovers from panics so a broken pass stops the engine instead of the process.
func (e *engine) renderFrame() {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render frame recovered from panic", "panic", r)
			e.fail(errors.Errorf("render panic: %v", r))
		}
	}()

	select {
	case <-e.quitChannel:
		e.window.RequestClose()
		return
	default:
	}

	now := time.Now()
	dt := float32(now.Sub(e.lastRender).Seconds())
	e.lastRender = now

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}

	if _, err := e.renderer.Render(); err != nil {
		if errors.Is(err, swapchain.ErrSurfaceClosed) {
			e.signalQuit()
			return
		}
		common.Logger().Error("frame failed", "error", err, "state", e.renderer.State())
		e.fail(err)
		return
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(e.renderer.Stats())
	}

	// Frame rate limiting
	if e.renderFrameLimit > 0 {
		elapsed := time.Since(now)
		if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// shutdown releases GPU objects before the window they present to.
func (e *engine) shutdown() {
	if err := e.renderer.Close(); err != nil {
		common.Logger().Warn("renderer close", "error", err)
	}
	e.releaseDevice()
	if err := e.window.Close(); err != nil {
		common.Logger().Warn("window close", "error", err)
	}
}

func (e *engine) releaseDevice() {
	if e.ownedDevice != nil {
		e.ownedDevice.Destroy()
		e.ownedDevice = nil
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}
