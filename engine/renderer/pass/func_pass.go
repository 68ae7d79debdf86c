package pass

import "github.com/DurnezG/ruby-go/engine/renderer/swapchain"

// FuncPass adapts plain functions to the Pass interface. A nil function is a no-op.
type FuncPass struct {
	RecordFunc   func(ctx Context, imageIndex uint32) error
	RecreateFunc func(sc swapchain.Swapchain) error
}

var _ Pass = FuncPass{}

func (f FuncPass) Record(ctx Context, imageIndex uint32) error {
	if f.RecordFunc == nil {
		return nil
	}
	return f.RecordFunc(ctx, imageIndex)
}

func (f FuncPass) Recreate(sc swapchain.Swapchain) error {
	if f.RecreateFunc == nil {
		return nil
	}
	return f.RecreateFunc(sc)
}
