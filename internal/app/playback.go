package app

import (
	"github.com/petems/capture-tray/internal/audio"
)

// Progress is the playback cursor of the last recording, in PCM bytes.
type Progress struct {
	Position int64
	Length   int64
	Active   bool
}

// Fraction is how far playback has got, between 0 and 1.
func (p Progress) Fraction() float64 {
	if p.Length <= 0 {
		return 0
	}
	return float64(p.Position) / float64(p.Length)
}

// Play plays the last recording from the start on the first two output
// channels. If the device is already running it only rewinds.
func (a *App) Play() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	src := a.src.Load()
	if a.state.Phase != Stopped || !a.state.HasData || src == nil {
		return newError(ErrNoRecording, "Nothing to play", a.dev, nil)
	}

	if err := src.SetPosition(0); err != nil {
		return a.fail(ErrDecodeSource, "Can't rewind playback stream", err)
	}
	if a.dev.IsStarted() {
		a.log.Debug().Msg("Playback rewound")
		a.notify(StatusUpdater.SetPlaying)
		return nil
	}

	a.dev.DisableAll(audio.Input)
	a.dev.DisableAll(audio.Output)
	if err := a.configureOutputLocked(); err != nil {
		a.dev.DisableAll(audio.Output)
		return a.fail(ErrDeviceStart, "Can't start playback", err)
	}
	if err := a.dev.Start(); err != nil {
		a.dev.DisableAll(audio.Output)
		return a.fail(ErrDeviceStart, "Can't start playback", err)
	}

	a.log.Info().Int64("bytes", src.Length()).Msg("Playback started")
	a.notify(StatusUpdater.SetPlaying)
	return nil
}

func (a *App) configureOutputLocked() error {
	if err := a.dev.EnableChannel(audio.Output, 0, a.deviceProc); err != nil {
		return err
	}
	if err := a.dev.JoinChannels(audio.Output, 1, 0); err != nil {
		return err
	}
	return a.dev.SetFormat(audio.Output, 0, audio.Format16Bit)
}

// Progress reports the playback cursor. It fails with ErrNoRecording when
// there is nothing to play.
func (a *App) Progress() (Progress, error) {
	src := a.src.Load()
	if src == nil {
		return Progress{}, ErrNoRecording
	}
	return Progress{
		Position: src.Position(),
		Length:   src.Length(),
		Active:   src.Active(),
	}, nil
}
