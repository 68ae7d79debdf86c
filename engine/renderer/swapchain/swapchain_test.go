package swapchain

import (
	"slices"
	"strings"
	"testing"

	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/device/devicetest"
	"github.com/pkg/errors"
)

func newTestSwapchain(t *testing.T, dev *devicetest.Device, surf *devicetest.Surface, opts ...SwapchainBuilderOption) Swapchain {
	t.Helper()
	sc, err := NewSwapchain(surf, dev, opts...)
	if err != nil {
		t.Fatalf("NewSwapchain() error = %v", err)
	}
	return sc
}

func assertNoViolations(t *testing.T, dev *devicetest.Device) {
	t.Helper()
	for _, v := range dev.Violations() {
		t.Errorf("violation: %s", v)
	}
}

func TestNewSwapchain(t *testing.T) {
	dev := devicetest.NewDevice()
	sc := newTestSwapchain(t, dev, devicetest.NewSurface(800, 600))

	if got := sc.Format(); got != DefaultSurfaceFormat {
		t.Errorf("Format() = %+v, want %+v", got, DefaultSurfaceFormat)
	}
	if got := sc.PresentMode(); got != device.PresentModeFifo {
		t.Errorf("PresentMode() = %s, want Fifo", got)
	}
	if got := sc.Extent(); got.Width != 800 || got.Height != 600 {
		t.Errorf("Extent() = %dx%d, want 800x600", got.Width, got.Height)
	}
	if got := sc.ImageCount(); got != 3 {
		t.Errorf("ImageCount() = %d, want 3", got)
	}
	if sc.Generation() != 0 {
		t.Errorf("Generation() = %d, want 0", sc.Generation())
	}
	for i, img := range sc.Images() {
		if img.Index() != uint32(i) {
			t.Errorf("image %d has index %d", i, img.Index())
		}
		if img.State().Layout != device.ImageLayoutUndefined {
			t.Errorf("image %d starts in layout %d", i, img.State().Layout)
		}
	}
	if sc.Image(3) != nil {
		t.Error("Image(3) should be nil for a three image swapchain")
	}

	if got := dev.Live("view"); got != 3 {
		t.Errorf("live views = %d, want 3", got)
	}
	if got := dev.Live("semaphore"); got != 2*MaxFramesInFlight {
		t.Errorf("live semaphores = %d, want %d", got, 2*MaxFramesInFlight)
	}
	if got := dev.Live("fence"); got != MaxFramesInFlight {
		t.Errorf("live fences = %d, want %d", got, MaxFramesInFlight)
	}

	rec := dev.Swapchains()[0]
	if rec.Old != nil {
		t.Errorf("first swapchain was created with old handle %v", rec.Old)
	}
	if rec.Desc.CompositeAlpha != device.CompositeAlphaOpaque {
		t.Errorf("composite alpha = %d, want Opaque", rec.Desc.CompositeAlpha)
	}
	if rec.Desc.PreTransform != 1 {
		t.Errorf("pre-transform = %d, want the current transform", rec.Desc.PreTransform)
	}
	assertNoViolations(t, dev)
}

func TestNewSwapchainOptions(t *testing.T) {
	dev := devicetest.NewDevice()
	unorm := device.SurfaceFormat{Format: device.FormatB8G8R8A8Unorm, ColorSpace: device.ColorSpaceSrgbNonlinear}
	sc := newTestSwapchain(t, dev, devicetest.NewSurface(800, 600),
		WithImageCount(2),
		WithPreferredFormat(unorm),
		WithPresentMode(device.PresentModeMailbox),
	)

	if got := dev.Swapchains()[0].Desc.MinImageCount; got != 2 {
		t.Errorf("requested image count = %d, want 2", got)
	}
	if sc.Format() != unorm {
		t.Errorf("Format() = %+v, want %+v", sc.Format(), unorm)
	}
	if sc.PresentMode() != device.PresentModeMailbox {
		t.Errorf("PresentMode() = %s, want Mailbox", sc.PresentMode())
	}
}

func TestNewSwapchainCreateError(t *testing.T) {
	dev := devicetest.NewDevice()
	dev.CreateSwapchainErr = device.ErrFailed

	if _, err := NewSwapchain(devicetest.NewSurface(800, 600), dev); !errors.Is(err, device.ErrFailed) {
		t.Fatalf("NewSwapchain() error = %v, want ErrFailed", err)
	}
	if got := dev.Live(""); got != 0 {
		t.Errorf("live objects after failed construction = %d, want 0", got)
	}
}

func TestRecreateReplacesEverything(t *testing.T) {
	dev := devicetest.NewDevice()
	sc := newTestSwapchain(t, dev, devicetest.NewSurface(800, 600))

	oldHandle := sc.Handle()
	oldFence := sc.FrameSlot(0).InFlight
	oldSem := sc.FrameSlot(1).ImageAvailable
	oldView := sc.Image(0).View()

	dev.SetExtent(1024, 768)
	if err := sc.Recreate(); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}

	if sc.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", sc.Generation())
	}
	if got := sc.Extent(); got.Width != 1024 || got.Height != 768 {
		t.Errorf("Extent() = %dx%d, want 1024x768", got.Width, got.Height)
	}
	recs := dev.Swapchains()
	if len(recs) != 2 || recs[1].Old != oldHandle {
		t.Fatalf("second swapchain should be created with the old handle, records = %+v", recs)
	}
	for _, h := range []any{oldHandle, oldFence, oldSem, oldView} {
		if dev.IsLive(h) {
			t.Errorf("%v still live after recreate", h)
		}
	}
	if sc.Handle() == oldHandle || sc.FrameSlot(0).InFlight == oldFence {
		t.Error("recreate returned stale handles")
	}

	if got := dev.Live("swapchain"); got != 1 {
		t.Errorf("live swapchains = %d, want 1", got)
	}
	if got := dev.Live("view"); got != sc.ImageCount() {
		t.Errorf("live views = %d, want %d", got, sc.ImageCount())
	}
	if got := dev.Live("fence"); got != MaxFramesInFlight {
		t.Errorf("live fences = %d, want %d", got, MaxFramesInFlight)
	}

	events := dev.Events()
	idle := slices.Index(events, "wait-idle")
	create := slices.IndexFunc(events, func(e string) bool {
		return strings.HasPrefix(e, "create-swapchain") && !strings.HasSuffix(e, "old=<nil>")
	})
	if idle < 0 || create < 0 || idle > create {
		t.Errorf("device must be drained before the new swapchain is created, events = %v", events)
	}
	assertNoViolations(t, dev)
}

func TestRecreateKeepsRingSize(t *testing.T) {
	dev := devicetest.NewDevice()
	sc := newTestSwapchain(t, dev, devicetest.NewSurface(800, 600))

	for i := range 3 {
		if err := sc.Recreate(); err != nil {
			t.Fatalf("Recreate() #%d error = %v", i, err)
		}
	}
	for i := range MaxFramesInFlight {
		if sc.FrameSlot(i) == nil {
			t.Errorf("FrameSlot(%d) is nil", i)
		}
	}
	if got := dev.Live("fence"); got != MaxFramesInFlight {
		t.Errorf("live fences = %d, want %d", got, MaxFramesInFlight)
	}
	if sc.Generation() != 3 {
		t.Errorf("Generation() = %d, want 3", sc.Generation())
	}
	assertNoViolations(t, dev)
}

func TestRecreateWaitsWhileMinimized(t *testing.T) {
	dev := devicetest.NewDevice()
	surf := devicetest.NewSurface(800, 600)
	sc := newTestSwapchain(t, dev, surf)

	surf.Resize(0, 0)
	surf.OnWait = func(s *devicetest.Surface, waits int) {
		if waits == 3 {
			s.Resize(640, 480)
		}
	}
	dev.SetExtent(640, 480)
	before := dev.Count("create-swapchain")

	if err := sc.Recreate(); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}
	if got := surf.Waits(); got != 3 {
		t.Errorf("WaitEvents called %d times, want 3", got)
	}
	if got := dev.Count("create-swapchain") - before; got != 1 {
		t.Errorf("created %d swapchains while restoring, want 1", got)
	}
	if got := sc.Extent(); got.Width != 640 || got.Height != 480 {
		t.Errorf("Extent() = %dx%d, want 640x480", got.Width, got.Height)
	}
	assertNoViolations(t, dev)
}

func TestRecreateWaitsForZeroCapabilityExtent(t *testing.T) {
	dev := devicetest.NewDevice()
	surf := devicetest.NewSurface(800, 600)
	sc := newTestSwapchain(t, dev, surf)

	dev.SetExtent(0, 0)
	surf.OnWait = func(_ *devicetest.Surface, _ int) {
		dev.SetExtent(800, 600)
	}
	if err := sc.Recreate(); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}
	if got := surf.Waits(); got != 1 {
		t.Errorf("WaitEvents called %d times, want 1", got)
	}
	assertNoViolations(t, dev)
}

func TestRecreateSurfaceClosedWhileMinimized(t *testing.T) {
	dev := devicetest.NewDevice()
	surf := devicetest.NewSurface(800, 600)
	sc := newTestSwapchain(t, dev, surf)
	handle := sc.Handle()

	surf.Resize(0, 0)
	surf.Close()
	if err := sc.Recreate(); !errors.Is(err, ErrSurfaceClosed) {
		t.Fatalf("Recreate() error = %v, want ErrSurfaceClosed", err)
	}
	if sc.Generation() != 0 || !dev.IsLive(handle) {
		t.Error("a cancelled recreate must leave the swapchain untouched")
	}

	sc.Destroy()
	if got := dev.Live(""); got != 0 {
		t.Errorf("live objects after Destroy = %d, want 0", got)
	}
}

func TestFailedRecreateLeavesSwapchainUnusable(t *testing.T) {
	dev := devicetest.NewDevice()
	sc := newTestSwapchain(t, dev, devicetest.NewSurface(800, 600))

	dev.CreateSwapchainErr = device.ErrFailed
	if err := sc.Recreate(); !errors.Is(err, device.ErrFailed) {
		t.Fatalf("Recreate() error = %v, want ErrFailed", err)
	}
	if sc.ImageCount() != 0 {
		t.Errorf("ImageCount() = %d after a failed rebuild, want 0", sc.ImageCount())
	}
	if _, status := sc.AcquireNextImage(device.NoTimeout, 0); status != device.StatusError {
		t.Errorf("AcquireNextImage() status = %s, want Error", status)
	}

	dev.CreateSwapchainErr = nil
	if err := sc.Recreate(); err != nil {
		t.Fatalf("retried Recreate() error = %v", err)
	}
	if _, status := sc.AcquireNextImage(device.NoTimeout, 0); status != device.StatusSuccess {
		t.Errorf("AcquireNextImage() after a successful rebuild status = %s", status)
	}
	if got := dev.Live("swapchain"); got != 1 {
		t.Errorf("live swapchains = %d, want 1", got)
	}

	sc.Destroy()
	if got := dev.Live(""); got != 0 {
		t.Errorf("live objects after Destroy = %d, want 0", got)
	}
	assertNoViolations(t, dev)
}

func TestSetPresentModeAppliesOnRecreate(t *testing.T) {
	dev := devicetest.NewDevice()
	sc := newTestSwapchain(t, dev, devicetest.NewSurface(800, 600))

	sc.SetPresentMode(device.PresentModeMailbox)
	if sc.PresentMode() != device.PresentModeFifo {
		t.Error("SetPresentMode should not change the mode before Recreate")
	}
	if err := sc.Recreate(); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}
	if sc.PresentMode() != device.PresentModeMailbox {
		t.Errorf("PresentMode() = %s, want Mailbox", sc.PresentMode())
	}

	sc.SetPresentMode(device.PresentModeImmediate)
	if err := sc.Recreate(); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}
	if sc.PresentMode() != device.PresentModeMailbox {
		t.Errorf("unsupported Immediate should fall back to Mailbox, got %s", sc.PresentMode())
	}
}

func TestAcquireUsesSlotSemaphore(t *testing.T) {
	dev := devicetest.NewDevice()
	sc := newTestSwapchain(t, dev, devicetest.NewSurface(800, 600))

	for want := range uint32(4) {
		idx, status := sc.AcquireNextImage(device.NoTimeout, int(want%MaxFramesInFlight))
		if status != device.StatusSuccess {
			t.Fatalf("AcquireNextImage() status = %s", status)
		}
		if idx != want%uint32(sc.ImageCount()) {
			t.Errorf("AcquireNextImage() = %d, want %d", idx, want%uint32(sc.ImageCount()))
		}
	}

	dev.AcquireStatuses = []device.Status{device.StatusOutOfDate}
	if _, status := sc.AcquireNextImage(device.NoTimeout, 0); status != device.StatusOutOfDate {
		t.Errorf("AcquireNextImage() status = %s, want OutOfDate", status)
	}
	assertNoViolations(t, dev)
}

func TestDestroyReleasesEverything(t *testing.T) {
	dev := devicetest.NewDevice()
	sc := newTestSwapchain(t, dev, devicetest.NewSurface(800, 600))
	if err := sc.Recreate(); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}

	sc.Destroy()
	sc.Destroy()
	if got := dev.Live(""); got != 0 {
		t.Errorf("live objects after Destroy = %d, want 0", got)
	}
	assertNoViolations(t, dev)
}
