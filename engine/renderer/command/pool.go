// Package command owns the command pool, the per-frame command buffers and blocking one-shot submissions.
package command

import (
	"time"

	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/pkg/errors"
)

// DefaultFrameCount is the number of long-lived frame buffers allocated when WithFrameCount is not used.
const DefaultFrameCount = 2

// DefaultImmediateTimeout bounds how long EndImmediate waits for the GPU.
const DefaultImmediateTimeout = 10 * time.Second

// pool is the implementation of the Pool interface.
type pool struct {
	dev    device.Device
	handle device.CommandPool

	frameCount       int
	immediateTimeout time.Duration
	frames           []*Buffer
}

// Pool allocates command buffers on the graphics queue family.
//
// Frame buffers are long lived: one per frame slot, reset and re-recorded every time the slot comes around.
// Immediate buffers are transient: allocated, submitted, waited on and freed in a single call.
type Pool interface {
	// FrameBuffer returns the long-lived command buffer of a frame slot.
	//
	// Parameters:
	//   - index: the frame slot index
	//
	// Returns:
	//   - *Buffer: the slot's command buffer
	FrameBuffer(index int) *Buffer

	// FrameCount returns how many frame buffers the pool holds.
	//
	// Returns:
	//   - int: the frame buffer count
	FrameCount() int

	// BeginImmediate allocates a transient command buffer and opens it for one-time submission.
	//
	// Returns:
	//   - *Buffer: the open buffer
	//   - error: error if allocation or begin fails
	BeginImmediate() (*Buffer, error)

	// EndImmediate closes, submits and waits for a buffer returned by BeginImmediate, then frees it.
	// The buffer and its private fence are released on every path, including failures.
	//
	// Parameters:
	//   - buf: the buffer returned by BeginImmediate
	//
	// Returns:
	//   - error: error if ending, submitting or waiting fails; a timeout wraps device.ErrTimeout
	EndImmediate(buf *Buffer) error

	// Immediate runs record between BeginImmediate and EndImmediate.
	// If record fails the buffer is freed without being submitted.
	//
	// Parameters:
	//   - record: the function recording commands into the buffer
	//
	// Returns:
	//   - error: the first error from begin, record or end
	Immediate(record func(buf *Buffer) error) error

	// Destroy frees every frame buffer and the pool itself. The device must be idle.
	Destroy()
}

var _ Pool = &pool{}

// NewPool creates a resettable command pool and allocates its frame buffers.
//
// Parameters:
//   - dev: the device owning the graphics queue
//   - options: functional options for frame count and immediate timeout
//
// Returns:
//   - Pool: the new pool
//   - error: error if the pool or its buffers cannot be created
func NewPool(dev device.Device, options ...PoolBuilderOption) (Pool, error) {
	p := &pool{
		dev:              dev,
		frameCount:       DefaultFrameCount,
		immediateTimeout: DefaultImmediateTimeout,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.frameCount < 1 {
		return nil, errors.Errorf("command pool needs at least one frame buffer, got %d", p.frameCount)
	}

	handle, err := dev.CreateCommandPool(true)
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	p.handle = handle

	handles, err := dev.AllocateCommandBuffers(handle, p.frameCount)
	if err != nil {
		dev.DestroyCommandPool(handle)
		return nil, errors.Wrap(err, "allocate frame command buffers")
	}
	p.frames = make([]*Buffer, len(handles))
	for i, h := range handles {
		p.frames[i] = newBuffer(dev, h)
	}

	common.Logger().Debug("command pool created", "frames", p.frameCount, "immediateTimeout", p.immediateTimeout)
	return p, nil
}

func (p *pool) FrameBuffer(index int) *Buffer {
	return p.frames[index]
}

func (p *pool) FrameCount() int {
	return len(p.frames)
}

func (p *pool) BeginImmediate() (*Buffer, error) {
	handles, err := p.dev.AllocateCommandBuffers(p.handle, 1)
	if err != nil {
		return nil, errors.Wrap(err, "allocate immediate command buffer")
	}
	buf := newBuffer(p.dev, handles[0])
	if err := buf.Begin(true); err != nil {
		p.free(buf)
		return nil, err
	}
	return buf, nil
}

func (p *pool) EndImmediate(buf *Buffer) error {
	defer p.free(buf)

	if err := buf.End(); err != nil {
		return err
	}
	fence, err := p.dev.CreateFence(false)
	if err != nil {
		return errors.Wrap(err, "create immediate fence")
	}
	defer p.dev.DestroyFence(fence)

	if err := p.dev.Submit(device.SubmitInfo{CommandBuffer: buf.handle, Fence: fence}); err != nil {
		return errors.Wrap(err, "submit immediate command buffer")
	}
	if err := p.dev.WaitForFence(fence, p.immediateTimeout); err != nil {
		if errors.Is(err, device.ErrTimeout) {
			// The submission may still be running; drain so the fence and buffer can be released.
			if idleErr := p.dev.WaitIdle(); idleErr != nil {
				common.Logger().Error("drain after immediate timeout", "err", idleErr)
			}
		}
		return errors.Wrapf(err, "wait for immediate submission (timeout %s)", p.immediateTimeout)
	}
	return nil
}

func (p *pool) Immediate(record func(buf *Buffer) error) error {
	buf, err := p.BeginImmediate()
	if err != nil {
		return err
	}
	if err := record(buf); err != nil {
		p.free(buf)
		return errors.Wrap(err, "record immediate commands")
	}
	return p.EndImmediate(buf)
}

func (p *pool) Destroy() {
	if p.handle == nil {
		return
	}
	bufs := make([]device.CommandBuffer, len(p.frames))
	for i, f := range p.frames {
		bufs[i] = f.handle
	}
	p.dev.FreeCommandBuffers(p.handle, bufs)
	p.dev.DestroyCommandPool(p.handle)
	p.frames = nil
	p.handle = nil
}

func (p *pool) free(buf *Buffer) {
	p.dev.FreeCommandBuffers(p.handle, []device.CommandBuffer{buf.handle})
}
