package app

import (
	"errors"
	"fmt"

	"github.com/petems/capture-tray/internal/audio"
	"github.com/petems/capture-tray/internal/decode"
)

// Error kinds. Every *Error matches exactly one of them with errors.Is.
var (
	ErrDeviceInit   = errors.New("device initialization failed")
	ErrDeviceStart  = errors.New("device start failed")
	ErrOutOfMemory  = errors.New("out of memory")
	ErrDecodeSource = errors.New("playback stream could not be created")
	ErrExport       = errors.New("export failed")
	ErrNoRecording  = errors.New("no recording available")
	ErrInvalidInput = errors.New("invalid input selection")
)

// Error is a user-facing failure. It carries the device and stream error
// codes that were current when it happened.
type Error struct {
	Kind       error
	Msg        string
	DeviceCode int
	StreamCode decode.Code
	Err        error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s\n(error code: %d/%d)", msg, e.DeviceCode, e.StreamCode)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string, dev audio.Device, err error) *Error {
	e := &Error{Kind: kind, Msg: msg, StreamCode: decode.CodeOf(err), Err: err}
	if dev != nil {
		e.DeviceCode = dev.ErrorCode()
	}
	return e
}

// InitError wraps a failure to open the audio device.
func InitError(err error) error {
	return newError(ErrDeviceInit, "Can't initialize device", nil, err)
}
