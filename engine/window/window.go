package window

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Window provides platform windowing, input event handling and the hooks a Vulkan backend needs.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized, including to 0x0 on minimize.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// FramebufferSize queries the current framebuffer size in pixels from the platform.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	FramebufferSize() (int, int)

	// WaitEvents blocks until at least one platform event arrives and dispatches it.
	// Used while the window is minimized so the render thread sleeps instead of spinning.
	WaitEvents()

	// RequiredInstanceExtensions returns the Vulkan instance extensions needed to present to this window.
	//
	// Returns:
	//   - []string: the extension names
	RequiredInstanceExtensions() []string

	// VulkanProcAddr returns the platform loader's vkGetInstanceProcAddr.
	//
	// Returns:
	//   - unsafe.Pointer: the function address
	VulkanProcAddr() unsafe.Pointer

	// CreateVulkanSurface creates a presentation surface for this window.
	//
	// Parameters:
	//   - instance: the Vulkan instance handle
	//
	// Returns:
	//   - uintptr: the surface handle
	//   - error: error if the window is not initialized or creation fails
	CreateVulkanSurface(instance any) (uintptr, error)

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose asks the message loop to stop after the current iteration without destroying the window.
	// Safe to call from any goroutine.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()

	// Width returns the last known framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the last known framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// maxWidth is the maximum allowed window width during resize. Zero means unbounded, as do the other limits.
	maxWidth int

	// maxHeight is the maximum allowed window height during resize.
	maxHeight int

	// minWidth is the minimum allowed window width during resize.
	minWidth int

	// minHeight is the minimum allowed window height during resize.
	minHeight int

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// resizable lets the user drag the window edges.
	resizable bool

	// closeOnEscape makes Escape close the window instead of reaching the key callbacks.
	closeOnEscape bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	// onResize is called when the framebuffer is resized.
	onResize func(width, height int)

	// onKeyDown is called when a key is pressed.
	onKeyDown func(keyCode uint32)

	// onKeyUp is called when a key is released.
	onKeyUp func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
// Panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "ruby-go",
		maxWidth:  0,
		maxHeight: 0,
		minWidth:  0,
		minHeight: 0,
		width:     1280,
		height:    720,

		resizable:     true,
		closeOnEscape: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) FramebufferSize() (int, int) {
	return platformFramebufferSize(w)
}

func (w *engineWindow) WaitEvents() {
	platformWaitEvents(w)
}

func (w *engineWindow) RequiredInstanceExtensions() []string {
	return platformRequiredInstanceExtensions(w)
}

func (w *engineWindow) VulkanProcAddr() unsafe.Pointer {
	return platformVulkanProcAddr()
}

func (w *engineWindow) CreateVulkanSurface(instance any) (uintptr, error) {
	return platformCreateVulkanSurface(w, instance)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
