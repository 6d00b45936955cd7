// Package camera owns the video capture device used by the check-in kiosk.
package camera

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Constraints describe the requested capture stream.
type Constraints struct {
	FacingMode string
	Width      int
	Height     int
}

// DefaultConstraints asks for the rear camera at 720p.
func DefaultConstraints() Constraints {
	return Constraints{FacingMode: "environment", Width: 1280, Height: 720}
}

// Frame is one still image sampled from the stream.
type Frame struct {
	Data        []byte
	ContentType string
	CapturedAt  time.Time
}

// Device opens capture streams.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream yields frames until closed.
type Stream interface {
	ReadFrame(ctx context.Context) (Frame, error)
	Close() error
}

// ErrorKind classifies acquisition failures.
type ErrorKind string

const (
	PermissionDenied  ErrorKind = "permission_denied"
	DeviceUnavailable ErrorKind = "device_unavailable"
	Unknown           ErrorKind = "unknown"
)

var (
	// ErrCameraBusy is returned when another session still owns the device.
	ErrCameraBusy = errors.New("camera already in use")
	// ErrSessionReleased is returned when reading from a released session.
	ErrSessionReleased = errors.New("camera session released")
)

// Error is a typed camera failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("camera %s: %s", e.Kind, e.Message)
	}
	return "camera " + string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError converts any acquisition error into a typed camera error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var camErr *Error
	if errors.As(err, &camErr) {
		return camErr
	}
	return &Error{Kind: Unknown, Message: err.Error(), Err: err}
}
