package vulkan

import (
	"unsafe"

	"github.com/DurnezG/ruby-go/common"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

const validationLayer = "VK_LAYER_KHRONOS_validation\x00"

// queueFamilies holds the graphics and present family indices picked for a physical device.
type queueFamilies struct {
	graphics, present       uint32
	hasGraphics, hasPresent bool
}

func (q queueFamilies) complete() bool {
	return q.hasGraphics && q.hasPresent
}

// createInstance loads the Vulkan loader through the window's proc address and creates the instance.
func (d *vulkanDevice) createInstance(win Window) error {
	vk.SetGetInstanceProcAddr(win.VulkanProcAddr())
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "init vulkan loader")
	}

	extensions := make([]string, 0, 4)
	for _, ext := range win.RequiredInstanceExtensions() {
		extensions = append(extensions, cString(ext))
	}

	var layers []string
	if d.validation {
		if layerAvailable(validationLayer) {
			layers = append(layers, validationLayer)
			extensions = append(extensions, cString(vk.ExtDebugReportExtensionName))
		} else {
			common.Logger().Warn("validation layer requested but not installed", "layer", validationLayer[:len(validationLayer)-1])
			d.validation = false
		}
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   cString(d.appName),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "ruby-go\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 0, 0),
	}
	info := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&info, nil, &instance)); err != nil {
		return errors.Wrap(err, "create instance")
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return errors.Wrap(err, "init instance")
	}
	d.instance = instance
	d.layers = layers

	if d.validation {
		d.createDebugCallback()
	}
	return nil
}

func layerAvailable(name string) bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	props := make([]vk.LayerProperties, count)
	if vk.EnumerateInstanceLayerProperties(&count, props) != vk.Success {
		return false
	}
	for _, p := range props {
		p.Deref()
		if cString(vk.ToString(p.LayerName[:])) == name {
			return true
		}
	}
	return false
}

// createDebugCallback forwards validation reports to the package logger. Failure only loses the reports.
func (d *vulkanDevice) createDebugCallback() {
	info := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugReport,
	}
	var cb vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(d.instance, &info, nil, &cb)); err != nil {
		common.Logger().Warn("debug report callback unavailable", "error", err)
		return
	}
	d.debugCallback = cb
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64,
	messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		common.Logger().Error("vulkan validation", "layer", pLayerPrefix, "code", messageCode, "message", pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		common.Logger().Warn("vulkan validation", "layer", pLayerPrefix, "code", messageCode, "message", pMessage)
	default:
		common.Logger().Debug("vulkan validation", "layer", pLayerPrefix, "code", messageCode, "message", pMessage)
	}
	return vk.Bool32(vk.False)
}

// createSurface asks the window for a presentation surface on the instance.
func (d *vulkanDevice) createSurface(win Window) error {
	ptr, err := win.CreateVulkanSurface(d.instance)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}
	d.surface = vk.SurfaceFromPointer(ptr)
	return nil
}

// pickPhysicalDevice selects the highest scoring device that can render and present to the surface.
// Discrete GPUs score above everything else.
func (d *vulkanDevice) pickPhysicalDevice() error {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(d.instance, &count, nil)); err != nil {
		return errors.Wrap(err, "count physical devices")
	}
	if count == 0 {
		return errors.New("no GPU with Vulkan support")
	}
	gpus := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(d.instance, &count, gpus)); err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	var (
		best      uint32
		bestName  string
		bestQueue queueFamilies
	)
	for _, gpu := range gpus {
		families := d.findQueueFamilies(gpu)
		if !families.complete() || !d.extensionsSupported(gpu) {
			continue
		}

		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(gpu, &props)
		props.Deref()

		score := uint32(1)
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			score += 1000
		}
		if families.graphics == families.present {
			score++
		}
		if score > best {
			best = score
			bestName = vk.ToString(props.DeviceName[:])
			bestQueue = families
			d.gpu = gpu
		}
	}
	if best == 0 {
		return errors.New("no suitable physical device")
	}

	d.families = bestQueue
	common.Logger().Info("device selected", "name", bestName,
		"graphicsFamily", bestQueue.graphics, "presentFamily", bestQueue.present)
	return nil
}

// findQueueFamilies prefers a single family that can both render and present.
func (d *vulkanDevice) findQueueFamilies(gpu vk.PhysicalDevice) queueFamilies {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)

	var q queueFamilies
	for i, p := range props {
		p.Deref()
		idx := uint32(i)
		graphics := p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0

		var supported vk.Bool32
		present := vk.GetPhysicalDeviceSurfaceSupport(gpu, idx, d.surface, &supported) == vk.Success && supported.B()

		if graphics && present {
			return queueFamilies{graphics: idx, present: idx, hasGraphics: true, hasPresent: true}
		}
		if graphics && !q.hasGraphics {
			q.graphics, q.hasGraphics = idx, true
		}
		if present && !q.hasPresent {
			q.present, q.hasPresent = idx, true
		}
	}
	return q
}

func (d *vulkanDevice) extensionsSupported(gpu vk.PhysicalDevice) bool {
	var count uint32
	if vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil) != vk.Success {
		return false
	}
	props := make([]vk.ExtensionProperties, count)
	if vk.EnumerateDeviceExtensionProperties(gpu, "", &count, props) != vk.Success {
		return false
	}

	missing := make(map[string]struct{}, len(d.deviceExtensions))
	for _, ext := range d.deviceExtensions {
		missing[ext] = struct{}{}
	}
	for _, p := range props {
		p.Deref()
		delete(missing, cString(vk.ToString(p.ExtensionName[:])))
	}
	return len(missing) == 0
}

// createLogicalDevice creates the device with one queue per distinct family and fetches both queues.
func (d *vulkanDevice) createLogicalDevice() error {
	unique := []uint32{d.families.graphics}
	if d.families.present != d.families.graphics {
		unique = append(unique, d.families.present)
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(unique))
	for _, family := range unique {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	info := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(d.deviceExtensions)),
		PpEnabledExtensionNames: d.deviceExtensions,
		EnabledLayerCount:       uint32(len(d.layers)),
		PpEnabledLayerNames:     d.layers,
	}

	var dev vk.Device
	if err := vk.Error(vk.CreateDevice(d.gpu, &info, nil, &dev)); err != nil {
		return errors.Wrap(err, "create logical device")
	}
	d.dev = dev

	vk.GetDeviceQueue(dev, d.families.graphics, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(dev, d.families.present, 0, &d.presentQueue)
	return nil
}
