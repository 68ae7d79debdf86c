package command

import "time"

// PoolBuilderOption is a functional option applied to a pool during construction via NewPool.
type PoolBuilderOption func(*pool)

// WithFrameCount sets how many long-lived frame command buffers are allocated.
//
// Parameters:
//   - count: the number of frame buffers, usually the frame slot count
//
// Returns:
//   - PoolBuilderOption: a function that applies the frame count option to a pool
func WithFrameCount(count int) PoolBuilderOption {
	return func(p *pool) {
		p.frameCount = count
	}
}

// WithImmediateTimeout bounds how long EndImmediate waits for its submission to complete.
//
// Parameters:
//   - timeout: the maximum wait
//
// Returns:
//   - PoolBuilderOption: a function that applies the timeout option to a pool
func WithImmediateTimeout(timeout time.Duration) PoolBuilderOption {
	return func(p *pool) {
		p.immediateTimeout = timeout
	}
}
