package app

// Phase is the recorder's position in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Recording
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// State is the recorder state. HasData is only meaningful when Stopped and
// reports whether the last recording can be played and exported.
type State struct {
	Phase   Phase
	HasData bool
}

func (s State) String() string {
	if s.Phase == Stopped && s.HasData {
		return "stopped (has data)"
	}
	return s.Phase.String()
}
