// Package devicetest provides an in-memory device.Device and swapchain surface for tests.
//
// The fake device hands out opaque handles, records every call in an ordered event log, and models the GPU timeline just enough to
// check synchronization: a fence submitted with work becomes pending and only completes when the host waits on it (or the device
// is drained). Misuse that a validation layer would report, such as resetting a fence or command buffer that is still in flight,
// is collected in Violations instead of failing immediately.
package devicetest

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DurnezG/ruby-go/engine/renderer/device"
)

// Handle is the concrete type behind every handle the fake device returns.
type Handle struct {
	Kind string
	ID   int
}

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Kind, h.ID)
}

// SwapchainRecord describes one CreateSwapchain call.
type SwapchainRecord struct {
	Handle Handle
	Old    device.Swapchain
	Desc   device.SwapchainDescriptor
	Images []Handle
}

type fenceState struct {
	signaled bool
	pending  bool
}

// Device is a fake device.Device. Exported fields configure behavior and may be changed between frames.
type Device struct {
	mu sync.Mutex

	// Support is returned by SurfaceSupport.
	Support device.SurfaceSupport
	// ImageCount overrides how many images each swapchain owns. Zero uses the descriptor's MinImageCount.
	ImageCount int
	// AcquireStatuses is consumed front to back by AcquireNextImage. An empty queue yields StatusSuccess.
	AcquireStatuses []device.Status
	// PresentStatuses is consumed front to back by Present. An empty queue yields StatusSuccess.
	PresentStatuses []device.Status
	// SubmitErr, when set, is returned by the next Submit and then cleared.
	SubmitErr error
	// CreateSwapchainErr, when set, is returned by every CreateSwapchain call.
	CreateSwapchainErr error
	// AllocateErr, when set, is returned by every AllocateCommandBuffers call.
	AllocateErr error
	// HangFences makes waits on pending fences time out instead of completing.
	HangFences bool

	next       int
	live       map[Handle]bool
	fences     map[Handle]*fenceState
	cbFence    map[Handle]Handle
	cursor     map[Handle]uint32
	images     map[Handle][]Handle
	events     []string
	violations []string
	swapchains []SwapchainRecord
	barriers   []device.ImageBarrier

	outstanding    int
	maxOutstanding int
}

var _ device.Device = &Device{}

// NewDevice creates a fake device backed by an 800x600 surface that supports Fifo and Mailbox,
// a UNORM and an SRGB BGRA format, and between 2 and 3 images.
func NewDevice() *Device {
	return &Device{
		Support: device.SurfaceSupport{
			Capabilities: device.SurfaceCapabilities{
				MinImageCount:           2,
				MaxImageCount:           3,
				CurrentExtent:           device.Extent2D{Width: 800, Height: 600},
				MinImageExtent:          device.Extent2D{Width: 1, Height: 1},
				MaxImageExtent:          device.Extent2D{Width: 4096, Height: 4096},
				CurrentTransform:        1,
				SupportedCompositeAlpha: device.CompositeAlphaOpaque | device.CompositeAlphaInherit,
			},
			Formats: []device.SurfaceFormat{
				{Format: device.FormatB8G8R8A8Unorm, ColorSpace: device.ColorSpaceSrgbNonlinear},
				{Format: device.FormatB8G8R8A8Srgb, ColorSpace: device.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []device.PresentMode{device.PresentModeFifo, device.PresentModeMailbox},
		},
		live:    make(map[Handle]bool),
		fences:  make(map[Handle]*fenceState),
		cbFence: make(map[Handle]Handle),
		cursor:  make(map[Handle]uint32),
		images:  make(map[Handle][]Handle),
	}
}

// SetExtent changes the surface's reported current extent.
func (d *Device) SetExtent(width, height uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Support.Capabilities.CurrentExtent = device.Extent2D{Width: width, Height: height}
}

// Events returns a copy of the ordered event log.
func (d *Device) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

// Count returns how many logged events start with prefix.
func (d *Device) Count(prefix string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// Violations returns the synchronization and lifetime errors observed so far.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// Swapchains returns every swapchain created, oldest first.
func (d *Device) Swapchains() []SwapchainRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]SwapchainRecord(nil), d.swapchains...)
}

// Barriers returns every recorded image barrier.
func (d *Device) Barriers() []device.ImageBarrier {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]device.ImageBarrier(nil), d.barriers...)
}

// Live returns the number of live objects of the given kind, or of every kind when kind is empty.
func (d *Device) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for h := range d.live {
		if kind == "" || h.Kind == kind {
			n++
		}
	}
	return n
}

// IsLive reports whether a handle returned by the device has not been destroyed yet.
func (d *Device) IsLive(h any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	hh, ok := h.(Handle)
	return ok && d.live[hh]
}

// MaxOutstanding returns the largest number of fences that were pending at the same time.
func (d *Device) MaxOutstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxOutstanding
}

// Outstanding returns the number of fences currently pending.
func (d *Device) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outstanding
}

func (d *Device) newHandle(kind string) Handle {
	d.next++
	h := Handle{Kind: kind, ID: d.next}
	d.live[h] = true
	return h
}

func (d *Device) logf(format string, args ...any) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

func (d *Device) violatef(format string, args ...any) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

// use checks that h is a live handle of the given kind.
func (d *Device) use(h any, kind, op string) (Handle, bool) {
	hh, ok := h.(Handle)
	if !ok || hh.Kind != kind {
		d.violatef("%s: expected %s handle, got %v", op, kind, h)
		return Handle{}, false
	}
	if !d.live[hh] {
		d.violatef("%s: %s used after destroy", op, hh)
		return hh, false
	}
	return hh, true
}

func (d *Device) destroy(h any, kind, op string) {
	if h == nil {
		return
	}
	hh, ok := d.use(h, kind, op)
	if !ok {
		return
	}
	delete(d.live, hh)
	d.logf("%s %s", op, hh)
}

// complete marks a pending fence as signaled, modeling the GPU finishing the submission.
func (d *Device) complete(f *fenceState) {
	if f.pending {
		f.pending = false
		d.outstanding--
	}
	f.signaled = true
}

func (d *Device) SurfaceSupport() (device.SurfaceSupport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logf("surface-support")
	s := d.Support
	s.Formats = append([]device.SurfaceFormat(nil), d.Support.Formats...)
	s.PresentModes = append([]device.PresentMode(nil), d.Support.PresentModes...)
	return s, nil
}

func (d *Device) CreateSwapchain(desc device.SwapchainDescriptor, old device.Swapchain) (device.Swapchain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CreateSwapchainErr != nil {
		return nil, d.CreateSwapchainErr
	}
	if desc.Extent.IsZero() {
		d.violatef("create-swapchain: zero extent %dx%d", desc.Extent.Width, desc.Extent.Height)
	}
	if old != nil {
		d.use(old, "swapchain", "create-swapchain(old)")
	}
	sc := d.newHandle("swapchain")
	count := d.ImageCount
	if count == 0 {
		count = int(desc.MinImageCount)
	}
	imgs := make([]Handle, count)
	for i := range imgs {
		imgs[i] = Handle{Kind: "image", ID: sc.ID*100 + i}
	}
	d.images[sc] = imgs
	d.swapchains = append(d.swapchains, SwapchainRecord{Handle: sc, Old: old, Desc: desc, Images: imgs})
	d.logf("create-swapchain %s old=%v", sc, old)
	return sc, nil
}

func (d *Device) DestroySwapchain(sc device.Swapchain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy(sc, "swapchain", "destroy-swapchain")
}

func (d *Device) SwapchainImages(sc device.Swapchain) ([]device.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.use(sc, "swapchain", "swapchain-images")
	if !ok {
		return nil, device.ErrFailed
	}
	out := make([]device.Image, len(d.images[h]))
	for i, img := range d.images[h] {
		out[i] = img
	}
	return out, nil
}

func (d *Device) CreateImageView(img device.Image, format device.Format) (device.ImageView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.newHandle("view")
	d.logf("create-view %s of %v", v, img)
	return v, nil
}

func (d *Device) DestroyImageView(view device.ImageView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy(view, "view", "destroy-view")
}

func (d *Device) CreateSemaphore() (device.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newHandle("semaphore"), nil
}

func (d *Device) DestroySemaphore(s device.Semaphore) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroy(s, "semaphore", "destroy-semaphore")
}

func (d *Device) CreateFence(signaled bool) (device.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.newHandle("fence")
	d.fences[f] = &fenceState{signaled: signaled}
	return f, nil
}

func (d *Device) DestroyFence(f device.Fence) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h, ok := f.(Handle); ok {
		if st := d.fences[h]; st != nil && st.pending {
			d.violatef("destroy-fence: %s destroyed while pending", h)
		}
	}
	d.destroy(f, "fence", "destroy-fence")
}

func (d *Device) WaitForFence(f device.Fence, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.use(f, "fence", "wait-fence")
	if !ok {
		return device.ErrFailed
	}
	d.logf("wait-fence %s", h)
	st := d.fences[h]
	switch {
	case st.signaled:
		return nil
	case st.pending && !d.HangFences:
		d.complete(st)
		return nil
	default:
		return device.ErrTimeout
	}
}

func (d *Device) ResetFence(f device.Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.use(f, "fence", "reset-fence")
	if !ok {
		return device.ErrFailed
	}
	st := d.fences[h]
	if st.pending {
		d.violatef("reset-fence: %s reset while pending", h)
	}
	st.signaled = false
	d.logf("reset-fence %s", h)
	return nil
}

func (d *Device) AcquireNextImage(sc device.Swapchain, timeout time.Duration, sem device.Semaphore) (uint32, device.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.use(sc, "swapchain", "acquire")
	if !ok {
		return 0, device.StatusError
	}
	d.use(sem, "semaphore", "acquire")
	status := device.StatusSuccess
	if len(d.AcquireStatuses) > 0 {
		status = d.AcquireStatuses[0]
		d.AcquireStatuses = d.AcquireStatuses[1:]
	}
	if !status.Usable() {
		d.logf("acquire %s status=%s", h, status)
		return 0, status
	}
	idx := d.cursor[h] % uint32(len(d.images[h]))
	d.cursor[h] = idx + 1
	d.logf("acquire %s image=%d status=%s", h, idx, status)
	return idx, status
}

func (d *Device) Submit(info device.SubmitInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SubmitErr != nil {
		err := d.SubmitErr
		d.SubmitErr = nil
		return err
	}
	cb, _ := d.use(info.CommandBuffer, "cmd", "submit")
	if info.Wait != nil {
		d.use(info.Wait, "semaphore", "submit(wait)")
	}
	if info.Signal != nil {
		d.use(info.Signal, "semaphore", "submit(signal)")
	}
	if info.Fence != nil {
		fh, ok := d.use(info.Fence, "fence", "submit(fence)")
		if ok {
			st := d.fences[fh]
			if st.signaled || st.pending {
				d.violatef("submit: %s is not unsignaled", fh)
			}
			st.pending = true
			d.outstanding++
			d.maxOutstanding = max(d.maxOutstanding, d.outstanding)
			d.cbFence[cb] = fh
		}
	}
	d.logf("submit %s fence=%v", cb, info.Fence)
	return nil
}

func (d *Device) Present(info device.PresentInfo) device.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.use(info.Swapchain, "swapchain", "present")
	if info.Wait != nil {
		d.use(info.Wait, "semaphore", "present(wait)")
	}
	status := device.StatusSuccess
	if len(d.PresentStatuses) > 0 {
		status = d.PresentStatuses[0]
		d.PresentStatuses = d.PresentStatuses[1:]
	}
	d.logf("present image=%d status=%s", info.ImageIndex, status)
	return status
}

func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, st := range d.fences {
		if st.pending {
			d.complete(st)
		}
	}
	d.logf("wait-idle")
	return nil
}

func (d *Device) CreateCommandPool(resettable bool) (device.CommandPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.newHandle("pool")
	d.logf("create-pool %s resettable=%t", p, resettable)
	return p, nil
}

func (d *Device) DestroyCommandPool(pool device.CommandPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for h := range d.live {
		if h.Kind == "cmd" {
			delete(d.live, h)
		}
	}
	d.destroy(pool, "pool", "destroy-pool")
}

func (d *Device) AllocateCommandBuffers(pool device.CommandPool, count int) ([]device.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.AllocateErr != nil {
		return nil, d.AllocateErr
	}
	d.use(pool, "pool", "allocate")
	out := make([]device.CommandBuffer, count)
	for i := range out {
		out[i] = d.newHandle("cmd")
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(pool device.CommandPool, buffers []device.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cb := range buffers {
		d.destroy(cb, "cmd", "free-cmd")
	}
}

func (d *Device) ResetCommandBuffer(cb device.CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.use(cb, "cmd", "reset-cmd")
	if !ok {
		return device.ErrFailed
	}
	if fh, ok := d.cbFence[h]; ok && d.fences[fh] != nil && d.fences[fh].pending {
		d.violatef("reset-cmd: %s reset while %s is pending", h, fh)
	}
	d.logf("reset-cmd %s", h)
	return nil
}

func (d *Device) BeginCommandBuffer(cb device.CommandBuffer, oneTimeSubmit bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.use(cb, "cmd", "begin-cmd")
	if !ok {
		return device.ErrFailed
	}
	d.logf("begin-cmd %s once=%t", h, oneTimeSubmit)
	return nil
}

func (d *Device) EndCommandBuffer(cb device.CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.use(cb, "cmd", "end-cmd")
	if !ok {
		return device.ErrFailed
	}
	d.logf("end-cmd %s", h)
	return nil
}

func (d *Device) CmdPipelineBarrier(cb device.CommandBuffer, barrier device.ImageBarrier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.use(cb, "cmd", "barrier")
	d.barriers = append(d.barriers, barrier)
	d.logf("barrier %v %d->%d", barrier.Image, barrier.OldLayout, barrier.NewLayout)
}

func (d *Device) CmdClearColorImage(cb device.CommandBuffer, img device.Image, layout device.ImageLayout, color [4]float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.use(cb, "cmd", "clear")
	d.logf("clear %v layout=%d", img, layout)
}
