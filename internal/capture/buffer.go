// Package capture holds the in-memory recording: a growable byte buffer whose
// first HeaderSize bytes are a RIFF/WAVE header patched once capture stops.
package capture

import (
	"errors"
	"io"
	"math"
	"sync/atomic"
)

// GrowthStep is the allocation unit of the recording buffer.
const GrowthStep = 200000

// ErrOutOfMemory is returned by Append when the buffer cannot grow.
var ErrOutOfMemory = errors.New("recording buffer cannot grow")

// The RIFF size fields are 32-bit, so a recording can never be larger than this.
const maxRIFFSize int64 = math.MaxUint32

// Buffer owns the recorded bytes including the reserved header.
//
// While capturing, Append is called only from the driver's input callback.
// Len may be read concurrently for display. Everything else must wait until
// the device is stopped.
type Buffer struct {
	data       []byte
	length     atomic.Int64
	sampleRate int
	maxSize    int64
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithMaxSize caps the capacity the buffer may grow to. Growth past the cap
// fails with ErrOutOfMemory. Values <= 0 keep the default RIFF limit.
func WithMaxSize(n int64) Option {
	return func(b *Buffer) {
		if n > 0 && n < maxRIFFSize {
			b.maxSize = n
		}
	}
}

// New allocates one growth step and writes the header template for sampleRate.
func New(sampleRate int, opts ...Option) *Buffer {
	b := &Buffer{
		data:       make([]byte, GrowthStep),
		sampleRate: sampleRate,
		maxSize:    maxRIFFSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Header().writeTemplate(sampleRate)
	b.length.Store(HeaderSize)
	return b
}

// Append copies p after the current end of the recording, growing the
// storage by whole steps first when needed. On ErrOutOfMemory nothing is copied.
func (b *Buffer) Append(p []byte) error {
	n := int64(len(p))
	if n == 0 {
		return nil
	}
	length := b.length.Load()
	if length%GrowthStep+n >= GrowthStep {
		size := ((length+n)/GrowthStep + 1) * GrowthStep
		if size > b.maxSize {
			return ErrOutOfMemory
		}
		grown := make([]byte, size)
		copy(grown, b.data[:length])
		b.data = grown
	}
	copy(b.data[length:], p)
	b.length.Store(length + n)
	return nil
}

// Len is the number of valid bytes, header included.
func (b *Buffer) Len() int64 { return b.length.Load() }

// Cap is the allocated size; always a whole number of growth steps.
func (b *Buffer) Cap() int64 { return int64(len(b.data)) }

func (b *Buffer) SampleRate() int { return b.sampleRate }

// Header returns a view of the reserved header bytes.
func (b *Buffer) Header() Header { return Header(b.data[:HeaderSize]) }

// FinalizeHeader writes the RIFF and data sizes for the current length.
// The device must be stopped before this is called.
func (b *Buffer) FinalizeHeader() {
	length := b.length.Load()
	h := b.Header()
	h.SetRIFFSize(uint32(length - 8))
	h.SetDataSize(uint32(length - HeaderSize))
}

// Bytes returns the recording, header included. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.length.Load()] }

// WriteTo writes the whole recording to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes())
	return int64(n), err
}
