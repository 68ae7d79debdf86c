package vulkan

// DeviceBuilderOption is a functional option applied to a device during construction via NewDevice.
type DeviceBuilderOption func(*vulkanDevice)

// WithValidation enables the Khronos validation layer and routes its reports to the package logger.
// When the layer is not installed a warning is logged and the device is created without it.
//
// Parameters:
//   - enabled: whether to request validation
//
// Returns:
//   - DeviceBuilderOption: a function that applies the validation option to a device
func WithValidation(enabled bool) DeviceBuilderOption {
	return func(d *vulkanDevice) {
		d.validation = enabled
	}
}

// WithApplicationName sets the application name reported to the driver.
//
// Parameters:
//   - name: the application name
//
// Returns:
//   - DeviceBuilderOption: a function that applies the application name option to a device
func WithApplicationName(name string) DeviceBuilderOption {
	return func(d *vulkanDevice) {
		d.appName = name
	}
}

// WithDeviceExtensions requests extra device extensions on top of the swapchain extension.
//
// Parameters:
//   - extensions: extension names, with or without a trailing NUL
//
// Returns:
//   - DeviceBuilderOption: a function that applies the extension option to a device
func WithDeviceExtensions(extensions ...string) DeviceBuilderOption {
	return func(d *vulkanDevice) {
		for _, ext := range extensions {
			d.deviceExtensions = append(d.deviceExtensions, cString(ext))
		}
	}
}
