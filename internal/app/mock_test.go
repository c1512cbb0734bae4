package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/petems/capture-tray/internal/audio"
)

type mockChannel struct {
	enabled  bool
	cb       audio.Callback
	joinedTo int
	volume   float32
	format   audio.SampleFormat
}

// mockDevice runs callbacks synchronously from capture and render. Both hold
// mu, so Stop returns only after an in-flight callback has finished.
type mockDevice struct {
	mu       sync.Mutex
	rate     int
	in, out  []mockChannel
	started  bool
	startErr error
	code     int

	starts, stops, closes int
}

func newMockDevice(inputs, outputs int) *mockDevice {
	d := &mockDevice{
		rate: 48000,
		in:   make([]mockChannel, inputs),
		out:  make([]mockChannel, outputs),
	}
	for _, chans := range [][]mockChannel{d.in, d.out} {
		for i := range chans {
			chans[i] = mockChannel{joinedTo: -1, volume: 1}
		}
	}
	return d
}

func (d *mockDevice) table(dir audio.Direction) []mockChannel {
	if dir == audio.Input {
		return d.in
	}
	return d.out
}

func (d *mockDevice) channel(dir audio.Direction, index int) (*mockChannel, error) {
	t := d.table(dir)
	if index < 0 || index >= len(t) {
		return nil, fmt.Errorf("%w: %d", audio.ErrNoChannel, index)
	}
	return &t[index], nil
}

func (d *mockDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}
	if d.startErr != nil {
		d.code = -9985
		return d.startErr
	}
	if d.master(audio.Input) < 0 && d.master(audio.Output) < 0 {
		d.code = -1
		return audio.ErrNothingEnabled
	}
	d.started = true
	d.starts++
	d.code = 0
	return nil
}

func (d *mockDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		d.stops++
	}
	d.started = false
	return nil
}

func (d *mockDevice) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

func (d *mockDevice) Rate() int { return d.rate }

func (d *mockDevice) EnableChannel(dir audio.Direction, index int, cb audio.Callback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.channel(dir, index)
	if err != nil {
		return err
	}
	c.enabled = true
	c.cb = cb
	return nil
}

func (d *mockDevice) DisableAll(dir audio.Direction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.table(dir)
	for i := range t {
		t[i].enabled = false
		t[i].cb = nil
	}
}

func (d *mockDevice) JoinChannels(dir audio.Direction, channel, to int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.channel(dir, channel)
	if err != nil {
		return err
	}
	if _, err := d.channel(dir, to); err != nil {
		return err
	}
	c.joinedTo = to
	return nil
}

func (d *mockDevice) SetFormat(dir audio.Direction, index int, format audio.SampleFormat) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.channel(dir, index)
	if err != nil {
		return err
	}
	if format != audio.Format16Bit {
		return audio.ErrUnsupportedFormat
	}
	c.format = format
	return nil
}

func (d *mockDevice) SetVolume(dir audio.Direction, index int, level float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.channel(dir, index)
	if err != nil {
		return err
	}
	if level < 0 || level > 1 {
		return audio.ErrVolumeRange
	}
	c.volume = level
	return nil
}

func (d *mockDevice) Volume(dir audio.Direction, index int) float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.channel(dir, index)
	if err != nil {
		return 0
	}
	return c.volume
}

func (d *mockDevice) ChannelInfo(dir audio.Direction, index int) (audio.ChannelInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.channel(dir, index); err != nil {
		return audio.ChannelInfo{}, false
	}
	prefix := "In"
	if dir == audio.Output {
		prefix = "Out"
	}
	return audio.ChannelInfo{Index: index, Name: fmt.Sprintf("%s %d", prefix, index+1)}, true
}

func (d *mockDevice) ErrorCode() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.code
}

func (d *mockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = false
	d.closes++
	return nil
}

// master returns the first enabled channel that is not joined to another.
func (d *mockDevice) master(dir audio.Direction) int {
	for i, c := range d.table(dir) {
		if c.enabled && c.joinedTo < 0 && c.cb != nil {
			return i
		}
	}
	return -1
}

// capture delivers data to the input callback as the driver would. It
// reports false when the device is stopped or no input is enabled.
func (d *mockDevice) capture(data []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.master(audio.Input)
	if !d.started || i < 0 {
		return false
	}
	d.in[i].cb(audio.Input, i, data)
	return true
}

// render asks the output callback for up to n bytes.
func (d *mockDevice) render(n int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.master(audio.Output)
	if !d.started || i < 0 {
		return nil
	}
	buf := make([]byte, n)
	produced := d.out[i].cb(audio.Output, i, buf)
	return buf[:produced]
}

type mockStatus struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockStatus) record(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, s)
}

func (m *mockStatus) SetIdle()      { m.record("idle") }
func (m *mockStatus) SetRecording() { m.record("recording") }
func (m *mockStatus) SetReady()     { m.record("ready") }
func (m *mockStatus) SetPlaying()   { m.record("playing") }
func (m *mockStatus) SetError()     { m.record("error") }

func (m *mockStatus) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

var errBusy = errors.New("device busy")
