package devicetest

import "sync"

// Surface is a fake window collaborator for swapchain negotiation and the minimize stall.
type Surface struct {
	mu sync.Mutex

	width, height int
	closed        bool
	waits         int

	// OnWait, when set, runs on every WaitEvents call with the number of waits so far.
	// Tests use it to "restore" a minimized window after a few event pumps.
	OnWait func(s *Surface, waits int)
}

// NewSurface creates a running surface with the given framebuffer size.
func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

// Resize changes the reported framebuffer size.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// Close makes IsRunning report false.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Waits returns how many times WaitEvents was called.
func (s *Surface) Waits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waits
}

func (s *Surface) FramebufferSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *Surface) WaitEvents() {
	s.mu.Lock()
	s.waits++
	n, hook := s.waits, s.OnWait
	s.mu.Unlock()
	if hook != nil {
		hook(s, n)
	}
}

func (s *Surface) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}
