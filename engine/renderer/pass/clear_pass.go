package pass

import (
	"image/color"

	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/swapchain"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
)

// transferDst is the state a presentable image must be in to be cleared.
var transferDst = device.AccessState{
	Access: device.AccessTransferWrite,
	Stage:  device.PipelineStageTransfer,
	Layout: device.ImageLayoutTransferDst,
}

// ClearPass fills the whole acquired image with a solid color.
type ClearPass struct {
	color      color.Color
	extent     device.Extent2D
	generation uint64
}

var _ Pass = &ClearPass{}

// NewClearPass creates a pass that clears every frame to a color (opaque black by default).
//
// Parameters:
//   - options: functional options for the clear color
//
// Returns:
//   - *ClearPass: the new pass
func NewClearPass(options ...ClearPassBuilderOption) *ClearPass {
	p := &ClearPass{color: colornames.Black}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// SetColor changes the clear color used from the next frame on.
func (p *ClearPass) SetColor(c color.Color) {
	p.color = c
}

// Color returns the current clear color.
func (p *ClearPass) Color() color.Color {
	return p.color
}

// Extent returns the image size seen at the last Recreate.
func (p *ClearPass) Extent() device.Extent2D {
	return p.extent
}

// Generation returns the swapchain generation seen at the last Recreate.
func (p *ClearPass) Generation() uint64 {
	return p.generation
}

func (p *ClearPass) Record(ctx Context, imageIndex uint32) error {
	img := ctx.Swapchain.Image(imageIndex)
	if img == nil {
		return errors.Errorf("clear pass: no swapchain image at index %d", imageIndex)
	}
	img.Transition(ctx.Commands, transferDst)
	ctx.Commands.ClearColorImage(img.Handle(), transferDst.Layout, clearValue(p.color, img.Format()))
	return nil
}

func (p *ClearPass) Recreate(sc swapchain.Swapchain) error {
	p.extent = sc.Extent()
	p.generation = sc.Generation()
	common.Logger().Debug("clear pass recreated",
		"generation", p.generation, "width", p.extent.Width, "height", p.extent.Height)
	return nil
}

// clearValue converts c to the float clear value expected for format. sRGB formats encode on write,
// so their clear value is linear; every other format stores the components as given.
func clearValue(c color.Color, format device.Format) [4]float32 {
	switch format {
	case device.FormatB8G8R8A8Srgb, device.FormatR8G8B8A8Srgb:
		return common.LinearRGBA(c)
	}
	if c == nil {
		c = color.Black
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return [4]float32{float32(n.R) / 255, float32(n.G) / 255, float32(n.B) / 255, float32(n.A) / 255}
}
