package audio

import "errors"

// Direction selects the capture or playback side of a device.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// SampleFormat is the sample encoding exchanged with channel callbacks.
type SampleFormat int

const (
	// Format16Bit is signed 16-bit little-endian PCM.
	Format16Bit SampleFormat = iota + 1
)

// Callback is invoked on the driver's real-time thread for every enabled
// channel. For Input, buf holds the captured interleaved bytes of the channel
// and any channels joined to it. For Output, the callback fills buf and returns
// how many bytes it produced; the rest is played as silence.
//
// A Callback must not block, log or allocate.
type Callback func(dir Direction, channel int, buf []byte) int

// ChannelInfo describes one physical channel.
type ChannelInfo struct {
	Index int
	Name  string
}

// Device is the hardware boundary: one opened audio device with
// individually enabled input and output channels.
type Device interface {
	Start() error
	// Stop halts processing and returns once no callback is running.
	// Stopping a stopped device is a no-op.
	Stop() error
	IsStarted() bool
	// Rate is the device's native sample rate.
	Rate() int

	EnableChannel(dir Direction, index int, cb Callback) error
	DisableAll(dir Direction)
	// JoinChannels makes channel follow to, so both are delivered through to's callback.
	JoinChannels(dir Direction, channel, to int) error
	SetFormat(dir Direction, index int, format SampleFormat) error
	SetVolume(dir Direction, index int, level float32) error
	Volume(dir Direction, index int) float32
	ChannelInfo(dir Direction, index int) (ChannelInfo, bool)

	// ErrorCode is the driver code of the most recent failure, 0 if none.
	ErrorCode() int
	Close() error
}

// AudioDevice represents an audio input device
type AudioDevice struct {
	ID      string
	Name    string
	Default bool
}

var (
	ErrNoChannel         = errors.New("no such channel")
	ErrNothingEnabled    = errors.New("no channels enabled")
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	ErrVolumeRange       = errors.New("volume must be between 0 and 1")
)
