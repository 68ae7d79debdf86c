package device

import "github.com/pkg/errors"

var (
	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("device: wait timed out")
	// ErrOutOfDate is returned when the surface no longer matches the swapchain.
	ErrOutOfDate = errors.New("device: surface out of date")
	// ErrDeviceLost is returned when the logical device has been lost.
	ErrDeviceLost = errors.New("device: device lost")
	// ErrFailed is the catch-all for backend failures without a dedicated sentinel.
	ErrFailed = errors.New("device: operation failed")
)

// Status is the outcome of an acquire or present request.
type Status int

const (
	StatusSuccess Status = iota
	// StatusSuboptimal means the image is usable but the swapchain should be rebuilt.
	StatusSuboptimal
	// StatusOutOfDate means the swapchain can no longer be used and must be rebuilt.
	StatusOutOfDate
	StatusTimeout
	StatusDeviceLost
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusSuboptimal:
		return "Suboptimal"
	case StatusOutOfDate:
		return "OutOfDate"
	case StatusTimeout:
		return "Timeout"
	case StatusDeviceLost:
		return "DeviceLost"
	default:
		return "Error"
	}
}

// Usable reports whether an acquired image may be rendered to.
func (s Status) Usable() bool {
	return s == StatusSuccess || s == StatusSuboptimal
}

// Err maps the status to a sentinel error. Usable statuses map to nil.
func (s Status) Err() error {
	switch s {
	case StatusSuccess, StatusSuboptimal:
		return nil
	case StatusOutOfDate:
		return ErrOutOfDate
	case StatusTimeout:
		return ErrTimeout
	case StatusDeviceLost:
		return ErrDeviceLost
	default:
		return ErrFailed
	}
}
