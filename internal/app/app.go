package app

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/petems/capture-tray/internal/audio"
	"github.com/petems/capture-tray/internal/capture"
	"github.com/petems/capture-tray/internal/decode"
	"github.com/rs/zerolog"
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetReady()
	SetPlaying()
	SetError()
}

type Config struct {
	Device            audio.Device
	Logger            zerolog.Logger
	StatusUpdater     StatusUpdater // Optional - can be nil
	MaxRecordingBytes int64         // 0 = RIFF limit
	InputPair         int           // base channel to select; unknown pairs fall back to the first
	Gain              float32       // level for the selected pair; <= 0 keeps the device's level
}

// App is one recording session on one device. Its methods are the control
// thread; the device callback only touches the atomics below.
type App struct {
	dev      audio.Device
	log      zerolog.Logger
	status   StatusUpdater
	maxBytes int64

	openSource func([]byte) (*decode.Stream, error)

	mu     sync.Mutex
	state  State
	inputs []InputPair
	input  int
	buf    *capture.Buffer // last recording, owned by the control thread once stopped
	closed bool

	// Shared with the driver thread.
	rec     atomic.Pointer[capture.Buffer]
	src     atomic.Pointer[decode.Stream]
	faulted atomic.Bool
	faults  chan Fault
}

// New builds a session on an opened device. Input channels are paired up
// and joined; the first pair is selected.
func New(cfg Config) (*App, error) {
	a := &App{
		dev:        cfg.Device,
		log:        cfg.Logger.With().Str("session", uuid.NewString()).Logger(),
		status:     cfg.StatusUpdater,
		maxBytes:   cfg.MaxRecordingBytes,
		openSource: decode.NewMemory,
		faults:     make(chan Fault, 1),
	}

	inputs, err := a.enumerateInputs()
	if err != nil {
		return nil, err
	}
	a.inputs = inputs

	selected, ok := a.pairLocked(cfg.InputPair)
	if !ok {
		a.log.Warn().Int("input", cfg.InputPair).Msg("Configured input pair not found, using the first")
		selected = inputs[0]
	}
	a.input = selected.Base
	if cfg.Gain > 0 {
		if err := a.SetGain(selected.Base, cfg.Gain); err != nil {
			a.log.Warn().Err(err).Float32("level", cfg.Gain).Msg("Ignoring configured input level")
		}
	}

	a.log.Info().
		Int("rate", a.dev.Rate()).
		Int("pairs", len(inputs)).
		Str("input", selected.Name).
		Msg("Session ready")
	return a, nil
}

// State returns the current recorder state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) IsRecording() bool {
	return a.State().Phase == Recording
}

// Close stops the device and releases everything. It is safe to call more
// than once and after a partially failed start.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if err := a.dev.Stop(); err != nil {
		errs = append(errs, err)
	}
	a.rec.Store(nil)
	a.releaseSourceLocked()
	a.buf = nil
	a.state = State{Phase: Idle}
	if err := a.dev.Close(); err != nil {
		errs = append(errs, err)
	}

	a.log.Info().Msg("Session closed")
	return errors.Join(errs...)
}

// releaseSourceLocked detaches the decode source from the output callback
// and frees it. The device must already be stopped.
func (a *App) releaseSourceLocked() {
	if src := a.src.Swap(nil); src != nil {
		src.Free()
	}
	a.dev.DisableAll(audio.Output)
}

func (a *App) notify(f func(StatusUpdater)) {
	if a.status != nil {
		f(a.status)
	}
}

func (a *App) fail(kind error, msg string, err error) error {
	e := newError(kind, msg, a.dev, err)
	a.log.Error().
		Err(err).
		Int("device_code", e.DeviceCode).
		Int("stream_code", int(e.StreamCode)).
		Msg(msg)
	a.notify(StatusUpdater.SetError)
	return e
}
