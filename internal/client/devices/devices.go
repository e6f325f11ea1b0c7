// Package devices defines the collaborator interfaces for capture hardware.
// The flow controller only ever talks to these interfaces; concrete
// implementations live with their platform (CLI, browser shell, tests).
package devices

import (
	"context"
	"errors"
	"fmt"

	"github.com/voiceroll/voiceroll/internal/common"
)

// Recorder buffers audio between Start and Stop. Stop returns the captured
// sample as an opaque blob and releases the underlying device; it is safe to
// call Stop after a failed Start.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
}

// Scanner yields one decoded payload per call. How the payload is obtained
// (camera frame, pasted text) is up to the implementation.
type Scanner interface {
	Decode(ctx context.Context) (string, error)
}

// Known device failure subtypes. All wrap common.ErrDevice.
var (
	ErrPermissionDenied = fmt.Errorf("%w: permission denied", common.ErrDevice)
	ErrNotFound         = fmt.Errorf("%w: device not found", common.ErrDevice)
	ErrBusy             = fmt.Errorf("%w: device busy", common.ErrDevice)
)

// Hint returns a user-facing remediation hint for a device failure, or ""
// when err is not a recognized device error.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Grant microphone/camera access in your system settings and try again."
	case errors.Is(err, ErrNotFound):
		return "No capture device was found. Connect a microphone and try again."
	case errors.Is(err, ErrBusy):
		return "The capture device is in use by another application. Close it and try again."
	case errors.Is(err, common.ErrDevice):
		return "Check your capture device and try again."
	}
	return ""
}
