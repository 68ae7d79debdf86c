// Package vulkan implements device.Device on top of goki/vulkan.
//
// NewDevice performs the whole bootstrap: loader, instance (optionally with validation), window surface,
// physical device selection and logical device with one graphics and one present queue.
package vulkan

import (
	"sync"
	"time"
	"unsafe"

	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// Window is what the backend needs from the platform window.
type Window interface {
	// RequiredInstanceExtensions lists the instance extensions the window system needs for presentation.
	RequiredInstanceExtensions() []string

	// VulkanProcAddr returns the address of vkGetInstanceProcAddr as loaded by the window system.
	VulkanProcAddr() unsafe.Pointer

	// CreateVulkanSurface creates a presentation surface for the window on the given instance.
	//
	// Parameters:
	//   - instance: the Vulkan instance
	//
	// Returns:
	//   - uintptr: the native surface handle
	//   - error: error if the surface could not be created
	CreateVulkanSurface(instance any) (uintptr, error)
}

// Device is a device.Device that also owns its instance and surface and must be destroyed last.
type Device interface {
	device.Device

	// Destroy waits for the device to go idle and releases the device, surface and instance.
	// Every object created through the Device must already be destroyed.
	Destroy()
}

type vulkanDevice struct {
	mu *sync.Mutex

	instance      vk.Instance
	debugCallback vk.DebugReportCallback
	surface       vk.Surface
	gpu           vk.PhysicalDevice
	dev           vk.Device
	families      queueFamilies
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	layers        []string

	// Pre-creation config collected from builder options
	validation       bool
	appName          string
	deviceExtensions []string
}

var _ Device = &vulkanDevice{}

// NewDevice bootstraps Vulkan for a window.
//
// Parameters:
//   - win: the window to present to
//   - opts: optional device configuration
//
// Returns:
//   - Device: the ready device
//   - error: error if any bootstrap step fails; partially created objects are released
func NewDevice(win Window, opts ...DeviceBuilderOption) (Device, error) {
	d := &vulkanDevice{
		mu:               &sync.Mutex{},
		appName:          "ruby-go",
		deviceExtensions: []string{cString(vk.KhrSwapchainExtensionName)},
	}
	for _, opt := range opts {
		opt(d)
	}

	steps := []func() error{
		func() error { return d.createInstance(win) },
		func() error { return d.createSurface(win) },
		d.pickPhysicalDevice,
		d.createLogicalDevice,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			d.release()
			return nil, err
		}
	}
	return d, nil
}

func (d *vulkanDevice) Destroy() {
	if d.dev != nil {
		vk.DeviceWaitIdle(d.dev)
	}
	d.release()
}

func (d *vulkanDevice) release() {
	if d.dev != nil {
		vk.DestroyDevice(d.dev, nil)
		d.dev = nil
	}
	if d.instance == nil {
		return
	}
	if d.surface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
	if d.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(d.instance, d.debugCallback, nil)
		d.debugCallback = vk.NullDebugReportCallback
	}
	vk.DestroyInstance(d.instance, nil)
	d.instance = nil
}

func (d *vulkanDevice) SurfaceSupport() (device.SurfaceSupport, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.gpu, d.surface, &caps)); err != nil {
		return device.SurfaceSupport{}, errors.Wrap(err, "query surface capabilities")
	}

	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.gpu, d.surface, &count, nil)); err != nil {
		return device.SurfaceSupport{}, errors.Wrap(err, "count surface formats")
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.gpu, d.surface, &count, formats)); err != nil {
		return device.SurfaceSupport{}, errors.Wrap(err, "query surface formats")
	}

	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.gpu, d.surface, &modeCount, nil)); err != nil {
		return device.SurfaceSupport{}, errors.Wrap(err, "count present modes")
	}
	modes := make([]vk.PresentMode, modeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.gpu, d.surface, &modeCount, modes)); err != nil {
		return device.SurfaceSupport{}, errors.Wrap(err, "query present modes")
	}

	support := device.SurfaceSupport{
		Capabilities: toSurfaceCapabilities(caps),
		Formats:      make([]device.SurfaceFormat, 0, count),
		PresentModes: make([]device.PresentMode, 0, modeCount),
	}
	for _, f := range formats[:count] {
		f.Deref()
		support.Formats = append(support.Formats, device.SurfaceFormat{
			Format:     device.Format(f.Format),
			ColorSpace: device.ColorSpace(f.ColorSpace),
		})
	}
	for _, m := range modes[:modeCount] {
		support.PresentModes = append(support.PresentModes, device.PresentMode(m))
	}
	return support, nil
}

func (d *vulkanDevice) CreateSwapchain(desc device.SwapchainDescriptor, old device.Swapchain) (device.Swapchain, error) {
	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    desc.MinImageCount,
		ImageFormat:      vk.Format(desc.Format.Format),
		ImageColorSpace:  vk.ColorSpace(desc.Format.ColorSpace),
		ImageExtent:      fromExtent(desc.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(desc.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaFlagBits(desc.CompositeAlpha),
		PresentMode:      vk.PresentMode(desc.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     swapchainHandle(old),
	}
	if d.families.graphics != d.families.present {
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = 2
		info.PQueueFamilyIndices = []uint32{d.families.graphics, d.families.present}
	}

	var sc vk.Swapchain
	if err := resultErr(vk.CreateSwapchain(d.dev, &info, nil, &sc), "create swapchain"); err != nil {
		return nil, err
	}
	return sc, nil
}

func (d *vulkanDevice) DestroySwapchain(sc device.Swapchain) {
	if h := swapchainHandle(sc); h != vk.NullSwapchain {
		vk.DestroySwapchain(d.dev, h, nil)
	}
}

func (d *vulkanDevice) SwapchainImages(sc device.Swapchain) ([]device.Image, error) {
	h := swapchainHandle(sc)
	var count uint32
	if err := vk.Error(vk.GetSwapchainImages(d.dev, h, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "count swapchain images")
	}
	images := make([]vk.Image, count)
	if err := vk.Error(vk.GetSwapchainImages(d.dev, h, &count, images)); err != nil {
		return nil, errors.Wrap(err, "get swapchain images")
	}

	out := make([]device.Image, count)
	for i, img := range images[:count] {
		out[i] = img
	}
	return out, nil
}

func (d *vulkanDevice) CreateImageView(img device.Image, format device.Format) (device.ImageView, error) {
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    imageHandle(img),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorRange(),
	}
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.dev, &info, nil, &view)); err != nil {
		return nil, errors.Wrap(err, "create image view")
	}
	return view, nil
}

func (d *vulkanDevice) DestroyImageView(view device.ImageView) {
	if h := imageViewHandle(view); h != vk.NullImageView {
		vk.DestroyImageView(d.dev, h, nil)
	}
}

func (d *vulkanDevice) CreateSemaphore() (device.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var sem vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(d.dev, &info, nil, &sem)); err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}
	return sem, nil
}

func (d *vulkanDevice) DestroySemaphore(s device.Semaphore) {
	if h := semaphoreHandle(s); h != vk.NullSemaphore {
		vk.DestroySemaphore(d.dev, h, nil)
	}
}

func (d *vulkanDevice) CreateFence(signaled bool) (device.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.dev, &info, nil, &fence)); err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return fence, nil
}

func (d *vulkanDevice) DestroyFence(f device.Fence) {
	if h := fenceHandle(f); h != vk.NullFence {
		vk.DestroyFence(d.dev, h, nil)
	}
}

func (d *vulkanDevice) WaitForFence(f device.Fence, timeout time.Duration) error {
	res := vk.WaitForFences(d.dev, 1, []vk.Fence{fenceHandle(f)}, vk.True, timeoutNanos(timeout))
	return resultErr(res, "wait for fence")
}

func (d *vulkanDevice) ResetFence(f device.Fence) error {
	return resultErr(vk.ResetFences(d.dev, 1, []vk.Fence{fenceHandle(f)}), "reset fence")
}

func (d *vulkanDevice) AcquireNextImage(sc device.Swapchain, timeout time.Duration, sem device.Semaphore) (uint32, device.Status) {
	var idx uint32
	res := vk.AcquireNextImage(d.dev, swapchainHandle(sc), timeoutNanos(timeout), semaphoreHandle(sem), vk.NullFence, &idx)
	status := toStatus(res)
	if status == device.StatusError {
		common.Logger().Warn("acquire failed", "result", vk.Error(res))
	}
	return idx, status
}

func (d *vulkanDevice) Submit(info device.SubmitInfo) error {
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{commandBufferHandle(info.CommandBuffer)},
	}
	if info.Wait != nil {
		submit.WaitSemaphoreCount = 1
		submit.PWaitSemaphores = []vk.Semaphore{semaphoreHandle(info.Wait)}
		submit.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(info.WaitStage)}
	}
	if info.Signal != nil {
		submit.SignalSemaphoreCount = 1
		submit.PSignalSemaphores = []vk.Semaphore{semaphoreHandle(info.Signal)}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return resultErr(vk.QueueSubmit(d.graphicsQueue, 1, []vk.SubmitInfo{submit}, fenceHandle(info.Fence)), "queue submit")
}

func (d *vulkanDevice) Present(info device.PresentInfo) device.Status {
	present := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{swapchainHandle(info.Swapchain)},
		PImageIndices:  []uint32{info.ImageIndex},
	}
	if info.Wait != nil {
		present.WaitSemaphoreCount = 1
		present.PWaitSemaphores = []vk.Semaphore{semaphoreHandle(info.Wait)}
	}

	d.mu.Lock()
	res := vk.QueuePresent(d.presentQueue, &present)
	d.mu.Unlock()

	status := toStatus(res)
	if status == device.StatusError {
		common.Logger().Warn("present failed", "result", vk.Error(res))
	}
	return status
}

func (d *vulkanDevice) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return resultErr(vk.DeviceWaitIdle(d.dev), "device wait idle")
}

func (d *vulkanDevice) CreateCommandPool(resettable bool) (device.CommandPool, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.families.graphics,
	}
	if resettable {
		info.Flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit)
	}
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.dev, &info, nil, &pool)); err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	return pool, nil
}

func (d *vulkanDevice) DestroyCommandPool(pool device.CommandPool) {
	if h := commandPoolHandle(pool); h != vk.NullCommandPool {
		vk.DestroyCommandPool(d.dev, h, nil)
	}
}

func (d *vulkanDevice) AllocateCommandBuffers(pool device.CommandPool, count int) ([]device.CommandBuffer, error) {
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        commandPoolHandle(pool),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	buffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(d.dev, &info, buffers)); err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}

	out := make([]device.CommandBuffer, count)
	for i, cb := range buffers {
		out[i] = cb
	}
	return out, nil
}

func (d *vulkanDevice) FreeCommandBuffers(pool device.CommandPool, buffers []device.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	handles := make([]vk.CommandBuffer, len(buffers))
	for i, cb := range buffers {
		handles[i] = commandBufferHandle(cb)
	}
	vk.FreeCommandBuffers(d.dev, commandPoolHandle(pool), uint32(len(handles)), handles)
}

func (d *vulkanDevice) ResetCommandBuffer(cb device.CommandBuffer) error {
	return resultErr(vk.ResetCommandBuffer(commandBufferHandle(cb), 0), "reset command buffer")
}

func (d *vulkanDevice) BeginCommandBuffer(cb device.CommandBuffer, oneTimeSubmit bool) error {
	info := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if oneTimeSubmit {
		info.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return resultErr(vk.BeginCommandBuffer(commandBufferHandle(cb), &info), "begin command buffer")
}

func (d *vulkanDevice) EndCommandBuffer(cb device.CommandBuffer) error {
	return resultErr(vk.EndCommandBuffer(commandBufferHandle(cb)), "end command buffer")
}

func (d *vulkanDevice) CmdPipelineBarrier(cb device.CommandBuffer, barrier device.ImageBarrier) {
	b := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(barrier.SrcAccess),
		DstAccessMask:       vk.AccessFlags(barrier.DstAccess),
		OldLayout:           vk.ImageLayout(barrier.OldLayout),
		NewLayout:           vk.ImageLayout(barrier.NewLayout),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               imageHandle(barrier.Image),
		SubresourceRange:    colorRange(),
	}
	vk.CmdPipelineBarrier(commandBufferHandle(cb),
		vk.PipelineStageFlags(barrier.SrcStage), vk.PipelineStageFlags(barrier.DstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{b})
}

func (d *vulkanDevice) CmdClearColorImage(cb device.CommandBuffer, img device.Image, layout device.ImageLayout, color [4]float32) {
	var value vk.ClearColorValue
	*(*[4]float32)(unsafe.Pointer(&value)) = color
	vk.CmdClearColorImage(commandBufferHandle(cb), imageHandle(img), vk.ImageLayout(layout),
		&value, 1, []vk.ImageSubresourceRange{colorRange()})
}
