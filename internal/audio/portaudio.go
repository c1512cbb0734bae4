package audio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/petems/capture-tray/internal/config"
	"github.com/rs/zerolog"
)

type portAudioDevice struct {
	log             zerolog.Logger
	input           *portaudio.DeviceInfo
	output          *portaudio.DeviceInfo
	framesPerBuffer int

	mu      sync.Mutex
	in      channelTable
	out     channelTable
	stream  *portaudio.Stream
	started atomic.Bool
	errCode atomic.Int64
	closed  bool
}

// Open initializes PortAudio and opens the configured input device. Output
// uses the same device when it has output channels, otherwise the default
// output device.
func Open(cfg config.AudioConfig, log zerolog.Logger) (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	input, err := findInputDevice(cfg.DeviceID)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	output := input
	if input.MaxOutputChannels == 0 {
		output, err = portaudio.DefaultOutputDevice()
		if err != nil {
			portaudio.Terminate()
			return nil, fmt.Errorf("failed to get default output device: %w", err)
		}
	}

	frames := cfg.FramesPerBuffer
	if frames <= 0 {
		frames = 512
	}

	log.Info().
		Str("input", input.Name).
		Str("output", output.Name).
		Float64("rate", input.DefaultSampleRate).
		Int("input_channels", input.MaxInputChannels).
		Msg("Opened audio device")

	return &portAudioDevice{
		log:             log,
		input:           input,
		output:          output,
		framesPerBuffer: frames,
		in:              newChannelTable(input.MaxInputChannels),
		out:             newChannelTable(output.MaxOutputChannels),
	}, nil
}

func findInputDevice(deviceID string) (*portaudio.DeviceInfo, error) {
	if deviceID == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == deviceID && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	var names []string
	if available, err := ListDevices(); err == nil {
		for _, d := range available {
			names = append(names, strconv.Quote(d.Name))
		}
	}
	return nil, fmt.Errorf("device not found: %s (available: %s)", deviceID, strings.Join(names, ", "))
}

// ListDevices returns the input-capable devices PortAudio knows about.
// PortAudio must be initialized.
func ListDevices() ([]AudioDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]AudioDevice, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, AudioDevice{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

func (p *portAudioDevice) table(dir Direction) *channelTable {
	if dir == Input {
		return &p.in
	}
	return &p.out
}

func (p *portAudioDevice) fail(err error) error {
	var paErr portaudio.Error
	if errors.As(err, &paErr) {
		p.errCode.Store(int64(paErr))
	} else {
		p.errCode.Store(-1)
	}
	return err
}

func (p *portAudioDevice) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.Load() {
		return nil
	}

	inGroups, inWidth := p.in.groups(p.framesPerBuffer)
	outGroups, outWidth := p.out.groups(p.framesPerBuffer)
	if len(inGroups) == 0 && len(outGroups) == 0 {
		return p.fail(ErrNothingEnabled)
	}

	params := portaudio.StreamParameters{
		SampleRate:      p.input.DefaultSampleRate,
		FramesPerBuffer: p.framesPerBuffer,
	}
	if inWidth > 0 {
		params.Input = portaudio.StreamDeviceParameters{
			Device:   p.input,
			Channels: inWidth,
			Latency:  p.input.DefaultLowInputLatency,
		}
	}
	if outWidth > 0 {
		params.Output = portaudio.StreamDeviceParameters{
			Device:   p.output,
			Channels: outWidth,
			Latency:  p.output.DefaultLowOutputLatency,
		}
	}

	capture := func(in []int16) {
		for _, g := range inGroups {
			g.refreshVolumes()
			n := packInput(in, inWidth, g.members, g.volumes, g.scratch)
			g.callback(Input, g.master, g.scratch[:n])
		}
	}
	render := func(out []int16) {
		clear(out)
		for _, g := range outGroups {
			g.refreshVolumes()
			want := min(len(g.scratch), len(out)/outWidth*len(g.members)*2)
			n := g.callback(Output, g.master, g.scratch[:want])
			unpackOutput(g.scratch[:max(n, 0)], out, outWidth, g.members, g.volumes)
		}
	}

	var callback interface{}
	switch {
	case inWidth > 0 && outWidth > 0:
		callback = func(in, out []int16) {
			capture(in)
			render(out)
		}
	case inWidth > 0:
		callback = capture
	default:
		callback = render
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return p.fail(fmt.Errorf("failed to open audio stream: %w", err))
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return p.fail(fmt.Errorf("failed to start audio stream: %w", err))
	}

	p.stream = stream
	p.started.Store(true)
	p.errCode.Store(0)
	p.log.Debug().Int("inputs", inWidth).Int("outputs", outWidth).Msg("Audio stream started")
	return nil
}

func (p *portAudioDevice) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *portAudioDevice) stopLocked() error {
	if p.stream == nil {
		return nil
	}
	stream := p.stream
	p.stream = nil
	p.started.Store(false)

	// Stop blocks until the last callback has returned.
	err := stream.Stop()
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return p.fail(fmt.Errorf("failed to stop audio stream: %w", err))
	}
	p.log.Debug().Msg("Audio stream stopped")
	return nil
}

func (p *portAudioDevice) IsStarted() bool { return p.started.Load() }

func (p *portAudioDevice) Rate() int { return int(p.input.DefaultSampleRate) }

func (p *portAudioDevice) EnableChannel(dir Direction, index int, cb Callback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table(dir).enable(index, cb)
}

func (p *portAudioDevice) DisableAll(dir Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table(dir).disableAll()
}

func (p *portAudioDevice) JoinChannels(dir Direction, channel, to int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table(dir).join(channel, to)
}

func (p *portAudioDevice) SetFormat(dir Direction, index int, format SampleFormat) error {
	if format != Format16Bit {
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.table(dir).get(index)
	if err != nil {
		return err
	}
	c.format = format
	return nil
}

func (p *portAudioDevice) SetVolume(dir Direction, index int, level float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table(dir).setVolume(index, level)
}

func (p *portAudioDevice) Volume(dir Direction, index int) float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.table(dir)
	if _, err := t.get(index); err != nil {
		return 0
	}
	return t.level(index)
}

func (p *portAudioDevice) ChannelInfo(dir Direction, index int) (ChannelInfo, bool) {
	device := p.input
	if dir == Output {
		device = p.output
	}
	p.mu.Lock()
	n := len(p.table(dir).chans)
	p.mu.Unlock()
	if index < 0 || index >= n {
		return ChannelInfo{}, false
	}
	return ChannelInfo{
		Index: index,
		Name:  fmt.Sprintf("%s %d", device.Name, index+1),
	}, true
}

func (p *portAudioDevice) ErrorCode() int { return int(p.errCode.Load()) }

func (p *portAudioDevice) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	err := p.stopLocked()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
