package window

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/DurnezG/ruby-go/common"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	running bool
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return fmt.Errorf("GLFW reports no Vulkan loader")
	}

	// Vulkan owns presentation, so no OpenGL context.
	// Reference: https://www.glfw.org/docs/latest/vulkan_guide.html#vulkan_window
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(w.resizable))

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}
	win.SetSizeLimits(sizeLimit(w.minWidth), sizeLimit(w.minHeight), sizeLimit(w.maxWidth), sizeLimit(w.maxHeight))

	gw := &glfwWindow{
		parent:  w,
		window:  win,
		running: true,
	}
	w.internalWindow = gw

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if w.closeOnEscape && key == glfw.Key(common.KeyEsc) && action == glfw.Press {
			gw.running = false
			win.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})

	// Framebuffer size rather than window size: swapchain extents are in pixels, which differ on high-DPI displays.
	// A minimized window reports 0x0 here.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// sizeLimit maps unset (non-positive) limits to GLFW's don't-care value.
func sizeLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

func glfwHandle(w *engineWindow) *glfwWindow {
	if w.internalWindow == nil {
		return nil
	}
	return w.internalWindow.(*glfwWindow)
}

// platformFramebufferSize asks GLFW for the live framebuffer size instead of the cached callback values,
// which lag behind while the render thread is blocked.
func platformFramebufferSize(w *engineWindow) (int, int) {
	gw := glfwHandle(w)
	if gw == nil {
		return 0, 0
	}
	return gw.window.GetFramebufferSize()
}

// platformWaitEvents sleeps the calling thread until GLFW has an event to dispatch.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#WaitEvents
func platformWaitEvents(w *engineWindow) {
	if glfwHandle(w) == nil {
		return
	}
	glfw.WaitEvents()
}

// platformRequiredInstanceExtensions returns the surface extensions GLFW needs on this platform.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.GetRequiredInstanceExtensions
func platformRequiredInstanceExtensions(w *engineWindow) []string {
	gw := glfwHandle(w)
	if gw == nil {
		return nil
	}
	return gw.window.GetRequiredInstanceExtensions()
}

// platformVulkanProcAddr returns the vkGetInstanceProcAddr GLFW loaded.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#GetVulkanGetInstanceProcAddress
func platformVulkanProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// platformCreateVulkanSurface creates a VkSurfaceKHR for the GLFW window.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.CreateWindowSurface
func platformCreateVulkanSurface(w *engineWindow, instance any) (uintptr, error) {
	gw := glfwHandle(w)
	if gw == nil {
		return 0, fmt.Errorf("window is not initialized")
	}
	return gw.window.CreateWindowSurface(instance, nil)
}

// platformIsRunningCheck returns whether the GLFW window is still active.
// Returns false if the internal window is nil, the running flag is cleared, or GLFW reports ShouldClose.
//
// Parameters:
//   - w: the engineWindow to check
//
// Returns:
//   - bool: true if the window is still running
func platformIsRunningCheck(w *engineWindow) bool {
	gw := glfwHandle(w)
	if gw == nil {
		return false
	}
	return gw.running && !gw.window.ShouldClose()
}

// platformRequestClose flags the window as closing. SetShouldClose may be called from any thread.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetShouldClose
func platformRequestClose(w *engineWindow) {
	gw := glfwHandle(w)
	if gw == nil {
		return
	}
	gw.running = false
	gw.window.SetShouldClose(true)
}

// platformCloseWindow destroys the GLFW window and terminates the GLFW library.
// Returns an error if the internal window has not been initialized.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: error if the window is not initialized
func platformCloseWindow(w *engineWindow) error {
	gw := glfwHandle(w)
	if gw == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	w.internalWindow = nil
	glfw.Terminate()
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
