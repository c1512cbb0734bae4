// Package decode exposes a finished in-memory WAVE recording as a seekable
// PCM byte stream, for playback through the device and for progress display.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Code identifies why a stream operation failed. It is the stream-layer
// half of the error codes shown to the user.
type Code int

const (
	CodeOK Code = iota
	CodeFileForm
	CodeNotPCM
	CodeNoData
	CodeFreed
	CodePosition
)

var (
	ErrFormat   = errors.New("not a playable PCM WAVE recording")
	ErrFreed    = errors.New("stream has been freed")
	ErrPosition = errors.New("invalid stream position")
)

// Error carries the stream Code alongside the failure.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the Code carried by err, or CodeOK when err did not come
// from this package.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeOK
}

// Stream is a read cursor over the PCM payload of a WAVE file held in memory.
//
// Read runs on the driver's output callback while SetPosition runs on the
// control thread; the cursor is atomic so the two can overlap.
type Stream struct {
	pcm    []byte
	format *audio.Format
	bits   int

	pos   atomic.Int64
	freed atomic.Bool
}

// NewMemory validates data as a PCM WAVE file and returns a stream positioned
// at the first sample. data is not copied and must not change while the
// stream is in use.
func NewMemory(data []byte) (*Stream, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, &Error{Code: CodeFileForm, Err: fmt.Errorf("%w: %v", ErrFormat, dec.Err())}
	}
	if dec.WavAudioFormat != 1 {
		return nil, &Error{Code: CodeNotPCM, Err: fmt.Errorf("%w: format tag %d", ErrFormat, dec.WavAudioFormat)}
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, &Error{Code: CodeNoData, Err: fmt.Errorf("%w: %v", ErrFormat, err)}
	}

	size := dec.PCMLen()
	start := int64(len(data)) - size
	if size < 0 || start < 0 {
		return nil, &Error{Code: CodeNoData, Err: fmt.Errorf("%w: data chunk of %d bytes overruns file", ErrFormat, size)}
	}

	return &Stream{
		pcm:    data[start:],
		format: dec.Format(),
		bits:   int(dec.BitDepth),
	}, nil
}

// Read copies up to len(p) bytes from the cursor. It returns io.EOF once the
// payload is exhausted and ErrFreed after Free.
func (s *Stream) Read(p []byte) (int, error) {
	if s.freed.Load() {
		return 0, &Error{Code: CodeFreed, Err: ErrFreed}
	}
	pos := s.pos.Load()
	if pos >= int64(len(s.pcm)) {
		return 0, io.EOF
	}
	n := copy(p, s.pcm[pos:])
	// A concurrent SetPosition wins over this advance.
	s.pos.CompareAndSwap(pos, pos+int64(n))
	return n, nil
}

// Position is the cursor offset in bytes from the first sample.
func (s *Stream) Position() int64 { return s.pos.Load() }

// Length is the size of the PCM payload in bytes.
func (s *Stream) Length() int64 { return int64(len(s.pcm)) }

// SetPosition moves the cursor. Offsets past the end are clamped.
func (s *Stream) SetPosition(off int64) error {
	if s.freed.Load() {
		return &Error{Code: CodeFreed, Err: ErrFreed}
	}
	if off < 0 {
		return &Error{Code: CodePosition, Err: fmt.Errorf("%w: %d", ErrPosition, off)}
	}
	s.pos.Store(min(off, int64(len(s.pcm))))
	return nil
}

// Active reports whether there is still data left to read.
func (s *Stream) Active() bool {
	return !s.freed.Load() && s.pos.Load() < int64(len(s.pcm))
}

// Format describes the decoded samples.
func (s *Stream) Format() *audio.Format { return s.format }

func (s *Stream) BitDepth() int { return s.bits }

// Free releases the stream. Later reads fail with ErrFreed; freeing twice is harmless.
func (s *Stream) Free() {
	s.freed.Store(true)
}
