// package common contains common types and helpers that are used throughout this engine. They are not interface-wrapped structs, just plain
// values and functions shared by the renderer subsystems.
package common

import (
	"image/color"
	"math"
)

// LinearRGBA converts a color.Color into normalized linear RGBA components suitable for GPU clear values.
// The RGB channels of c are treated as sRGB encoded and decoded to linear light, alpha is left linear.
// Swapchain images in an sRGB format re-encode on write, so clearing with linear values reproduces the original color on screen.
//
// Parameters:
//   - c: the color to convert (nil yields opaque black)
//
// Returns:
//   - [4]float32: linear red, green, blue and alpha in [0, 1]
func LinearRGBA(c color.Color) [4]float32 {
	if c == nil {
		return [4]float32{0, 0, 0, 1}
	}
	nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	return [4]float32{
		srgbToLinear(nrgba.R),
		srgbToLinear(nrgba.G),
		srgbToLinear(nrgba.B),
		float32(nrgba.A) / 255,
	}
}

// srgbToLinear applies the sRGB electro-optical transfer function to one 8-bit channel.
func srgbToLinear(v uint8) float32 {
	f := float64(v) / 255
	if f <= 0.04045 {
		return float32(f / 12.92)
	}
	return float32(math.Pow((f+0.055)/1.055, 2.4))
}
