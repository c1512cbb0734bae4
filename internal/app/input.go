package app

import (
	"fmt"

	"github.com/petems/capture-tray/internal/audio"
)

// InputPair is two adjacent input channels recorded as one stereo input.
// Base is always even.
type InputPair struct {
	Base int
	Name string
}

// enumerateInputs pairs up the device's input channels and joins the odd
// channel of each pair to the even one.
func (a *App) enumerateInputs() ([]InputPair, error) {
	var pairs []InputPair
	for c := 0; ; c += 2 {
		left, ok := a.dev.ChannelInfo(audio.Input, c)
		if !ok {
			break
		}
		right, ok := a.dev.ChannelInfo(audio.Input, c+1)
		if !ok {
			break
		}
		if err := a.dev.JoinChannels(audio.Input, c+1, c); err != nil {
			return nil, newError(ErrDeviceInit, "Can't pair input channels", a.dev, err)
		}
		pairs = append(pairs, InputPair{Base: c, Name: left.Name + " + " + right.Name})
	}
	if len(pairs) == 0 {
		return nil, newError(ErrDeviceInit, "Device has no stereo input", a.dev, nil)
	}
	return pairs, nil
}

// Inputs lists the selectable input pairs.
func (a *App) Inputs() []InputPair {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]InputPair(nil), a.inputs...)
}

// SelectedInput returns the active pair.
func (a *App) SelectedInput() InputPair {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, _ := a.pairLocked(a.input)
	return p
}

func (a *App) pairLocked(base int) (InputPair, bool) {
	for _, p := range a.inputs {
		if p.Base == base {
			return p, true
		}
	}
	return InputPair{}, false
}

// SelectInput switches recording to the pair starting at base. A recording
// in progress continues into the same buffer on the new channels.
func (a *App) SelectInput(base int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	pair, ok := a.pairLocked(base)
	if !ok {
		return newError(ErrInvalidInput, fmt.Sprintf("No input pair at channel %d", base), a.dev, nil)
	}
	if base == a.input {
		return nil
	}
	a.input = base
	a.log.Info().Int("input", base).Str("name", pair.Name).Msg("Input selected")

	if a.state.Phase != Recording {
		return nil
	}

	if err := a.dev.Stop(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to stop device for input switch")
	}
	err := a.configureInputLocked()
	if err == nil {
		err = a.dev.Start()
	}
	if err != nil {
		a.abortRecordingLocked()
		return a.fail(ErrDeviceStart, "Can't resume recording", err)
	}
	return nil
}

// abortRecordingLocked ends a recording whose device could not be
// restarted. The partial take is kept for playback when possible.
func (a *App) abortRecordingLocked() {
	buf := a.rec.Swap(nil)
	a.dev.DisableAll(audio.Input)
	a.state = State{Phase: Stopped}
	if buf == nil {
		a.buf = nil
		return
	}
	buf.FinalizeHeader()
	src, err := a.openSource(buf.Bytes())
	if err != nil {
		a.buf = nil
		return
	}
	a.buf = buf
	a.src.Store(src)
	a.state.HasData = true
}

// Gain is the level of the pair at base, between 0 and 1.
func (a *App) Gain(base int) float32 {
	return a.dev.Volume(audio.Input, base)
}

// SetGain sets both channels of the pair at base to level.
func (a *App) SetGain(base int, level float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.pairLocked(base); !ok {
		return newError(ErrInvalidInput, fmt.Sprintf("No input pair at channel %d", base), a.dev, nil)
	}
	for _, c := range []int{base, base + 1} {
		if err := a.dev.SetVolume(audio.Input, c, level); err != nil {
			return newError(ErrInvalidInput, "Can't set input level", a.dev, err)
		}
	}
	a.log.Debug().Int("input", base).Float32("level", level).Msg("Input level set")
	return nil
}
