package camera

import (
	"context"
	"errors"
)

var (
	// ErrBusy is returned when a capture is requested while another one
	// is still in flight. The camera is an exclusive resource.
	ErrBusy = errors.New("camera: capture already in flight")

	// ErrClosed is returned when a capture is requested after the device
	// has been released.
	ErrClosed = errors.New("camera: device is closed")
)

// Device is an exclusive still camera. Implementations must write a
// complete image file, including embedded GPS and timestamp metadata,
// to the given path.
type Device interface {
	// Capture takes one still and writes it to path.
	Capture(ctx context.Context, path string) error

	// Close releases the device. It is safe to call Close multiple times.
	Close() error

	// ID returns the device identifier used in logs and session records.
	ID() string

	// Model returns the device model name.
	Model() string
}
