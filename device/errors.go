package device

import "errors"

var (
	ErrNotInitialized = errors.New("device: device not initialized")
	ErrLaunchInFlight = errors.New("device: a kernel launch is already in flight")
	ErrKernelReleased = errors.New("device: kernel has been released")
)
