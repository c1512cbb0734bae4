package app

import (
	"errors"

	"github.com/petems/capture-tray/internal/audio"
	"github.com/petems/capture-tray/internal/capture"
)

var errClosed = errors.New("session closed")

// StartRecording begins a new capture on the selected input pair. Any
// previous recording and its playback stream are released first. Calling
// it while already recording does nothing.
func (a *App) StartRecording() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return errClosed
	}
	if a.state.Phase == Recording {
		a.log.Debug().Msg("Already recording")
		return nil
	}

	// The device may still be playing the previous take.
	if err := a.dev.Stop(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to stop device before recording")
	}
	a.releaseSourceLocked()
	a.buf = nil
	a.state = State{Phase: Idle}
	a.drainFaults()
	a.faulted.Store(false)

	buf := capture.New(a.dev.Rate(), capture.WithMaxSize(a.maxBytes))
	if err := a.configureInputLocked(); err != nil {
		return a.fail(ErrDeviceStart, "Can't start recording", err)
	}

	a.rec.Store(buf)
	if err := a.dev.Start(); err != nil {
		a.rec.Store(nil)
		a.dev.DisableAll(audio.Input)
		return a.fail(ErrDeviceStart, "Can't start recording", err)
	}

	a.buf = buf
	a.state = State{Phase: Recording}
	a.log.Info().Int("rate", buf.SampleRate()).Int("input", a.input).Msg("Recording started")
	a.notify(StatusUpdater.SetRecording)
	return nil
}

// configureInputLocked routes the selected pair, and nothing else, to the
// capture callback.
func (a *App) configureInputLocked() error {
	a.dev.DisableAll(audio.Input)
	if err := a.dev.EnableChannel(audio.Input, a.input, a.deviceProc); err != nil {
		return err
	}
	return a.dev.SetFormat(audio.Input, a.input, audio.Format16Bit)
}

// StopRecording stops the device, finalizes the recording and opens it for
// playback. It is a no-op unless recording.
func (a *App) StopRecording() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Phase != Recording {
		return nil
	}

	// The callback may still be appending until Stop returns.
	if err := a.dev.Stop(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to stop device")
	}
	buf := a.rec.Swap(nil)
	a.dev.DisableAll(audio.Input)
	buf.FinalizeHeader()

	a.log.Info().
		Int64("bytes", buf.Len()).
		Int64("data_bytes", buf.Len()-capture.HeaderSize).
		Msg("Recording stopped")

	src, err := a.openSource(buf.Bytes())
	if err != nil {
		a.buf = nil
		a.state = State{Phase: Stopped}
		return a.fail(ErrDecodeSource, "Can't create playback stream", err)
	}

	a.buf = buf
	a.src.Store(src)
	a.state = State{Phase: Stopped, HasData: true}
	a.notify(StatusUpdater.SetReady)
	return nil
}

// ToggleRecording starts a recording, or stops the one in progress.
func (a *App) ToggleRecording() error {
	if a.IsRecording() {
		return a.StopRecording()
	}
	return a.StartRecording()
}

// RecordedLength is the current size of the recording in bytes, header
// included, or 0 when there is none.
func (a *App) RecordedLength() int64 {
	if rec := a.rec.Load(); rec != nil {
		return rec.Len()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.buf == nil {
		return 0
	}
	return a.buf.Len()
}
