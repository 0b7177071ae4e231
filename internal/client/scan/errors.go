package scan

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoResult means a frame held no readable QR code. The loop treats it
	// as its steady state and never returns it.
	ErrNoResult = errors.New("no QR code in frame")
	// ErrFrameNotReady is returned by a Stream with no frame available yet.
	ErrFrameNotReady = errors.New("frame not ready")
	// ErrStreamEnded is returned when a finite stream ran out of frames
	// without a QR code being found.
	ErrStreamEnded = errors.New("camera stream ended without a QR code")
	// ErrStopped is returned by Wait after Stop.
	ErrStopped = errors.New("scan stopped")
	// ErrDeviceBusy is returned by a camera already held by another stream.
	ErrDeviceBusy = errors.New("camera is busy")
	// ErrAlreadyStarted is returned by a second Start on the same Loop.
	ErrAlreadyStarted = errors.New("scan already started")
)

// Cause classifies a DeviceError.
type Cause int

const (
	CauseOther Cause = iota
	CausePermissionDenied
	CauseNotFound
	CauseBusy
)

func (c Cause) String() string {
	switch c {
	case CausePermissionDenied:
		return "permission denied"
	case CauseNotFound:
		return "device not found"
	case CauseBusy:
		return "device busy"
	default:
		return "device error"
	}
}

// DeviceError ends a scan attempt because the camera could not be used.
type DeviceError struct {
	Cause Cause
	Err   error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera: %s: %v", e.Cause, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Remedy is the message shown to the user for the cause.
func (e *DeviceError) Remedy() string {
	switch e.Cause {
	case CausePermissionDenied:
		return "Camera access was denied. Grant read access to the camera source and try again."
	case CauseNotFound:
		return "No camera found. Check the image file or frame directory path."
	case CauseBusy:
		return "The camera is in use by another scan. Stop it first."
	default:
		return "The camera could not be used. Try again or scan a saved image."
	}
}

func deviceError(err error) *DeviceError {
	var de *DeviceError
	if errors.As(err, &de) {
		return de
	}
	switch {
	case errors.Is(err, os.ErrPermission):
		return &DeviceError{Cause: CausePermissionDenied, Err: err}
	case errors.Is(err, os.ErrNotExist):
		return &DeviceError{Cause: CauseNotFound, Err: err}
	case errors.Is(err, ErrDeviceBusy):
		return &DeviceError{Cause: CauseBusy, Err: err}
	default:
		return &DeviceError{Cause: CauseOther, Err: err}
	}
}
