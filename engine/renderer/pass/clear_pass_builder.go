package pass

import "image/color"

// ClearPassBuilderOption is a functional option applied to a ClearPass during construction via NewClearPass.
type ClearPassBuilderOption func(*ClearPass)

// WithClearColor sets the color the pass fills each frame with.
//
// Parameters:
//   - c: the clear color; the colornames palette works well here
//
// Returns:
//   - ClearPassBuilderOption: a function that applies the color option to a ClearPass
func WithClearColor(c color.Color) ClearPassBuilderOption {
	return func(p *ClearPass) {
		p.color = c
	}
}
