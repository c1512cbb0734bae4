package app

import "github.com/petems/capture-tray/internal/audio"

// Fault is a failure detected on the driver thread that the control thread
// has to act on.
type Fault int

const (
	FaultNone Fault = iota
	FaultOutOfMemory
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultOutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

// Result is what one callback invocation did: bytes produced for the
// driver, or a failure handed off to the control thread.
type Result struct {
	Produced int
	Deferred Fault
}

// route is the real-time entry point for both directions. It never blocks,
// logs or allocates; it cannot stop the device either, so failures go
// through the fault slot.
func (a *App) route(dir audio.Direction, channel int, buf []byte) Result {
	if dir == audio.Input {
		rec := a.rec.Load()
		if rec == nil || a.faulted.Load() {
			return Result{}
		}
		if err := rec.Append(buf); err != nil {
			a.faulted.Store(true)
			a.postFault(FaultOutOfMemory)
			return Result{Deferred: FaultOutOfMemory}
		}
		return Result{}
	}

	src := a.src.Load()
	if src == nil {
		return Result{}
	}
	// io.EOF means the recording has been played out: produce silence.
	n, err := src.Read(buf)
	if err != nil {
		return Result{}
	}
	return Result{Produced: n}
}

// deviceProc adapts route to the device callback signature.
func (a *App) deviceProc(dir audio.Direction, channel int, buf []byte) int {
	return a.route(dir, channel, buf).Produced
}

// postFault fills the single pending-fault slot. A fault already pending is kept.
func (a *App) postFault(f Fault) {
	select {
	case a.faults <- f:
	default:
	}
}

// Faults delivers failures raised on the driver thread. Receive from it on
// the control thread and pass each value to HandleFault.
func (a *App) Faults() <-chan Fault {
	return a.faults
}

// HandleFault reacts to a fault from the driver thread. For an out-of-memory
// fault the capture is stopped and discarded, and the returned error is
// meant for the user.
func (a *App) HandleFault(f Fault) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if f != FaultOutOfMemory || a.state.Phase != Recording {
		return nil
	}

	if err := a.dev.Stop(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to stop device after fault")
	}
	dropped := a.rec.Swap(nil)
	a.dev.DisableAll(audio.Input)
	a.buf = nil
	a.state = State{Phase: Stopped}

	var length int64
	if dropped != nil {
		length = dropped.Len()
	}
	a.log.Warn().Int64("bytes", length).Msg("Recording discarded")
	return a.fail(ErrOutOfMemory, "Out of memory!", nil)
}

func (a *App) drainFaults() {
	for {
		select {
		case <-a.faults:
		default:
			return
		}
	}
}
