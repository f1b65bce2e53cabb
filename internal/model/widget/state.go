package widget

// RequestPhase is the lifecycle position of the single outgoing query slot.
type RequestPhase int

const (
	PhaseIdle RequestPhase = iota
	PhaseInFlight
	PhaseError
)

func (p RequestPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInFlight:
		return "inFlight"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// RequestState is the controller's request slot. LastError keeps the most
// recent surfaced query error after the phase has settled back to idle.
type RequestState struct {
	Phase     RequestPhase
	LastError string
}

// Accepting reports whether a new send may start.
func (s RequestState) Accepting() bool {
	return s.Phase != PhaseInFlight
}

// Visibility is whether the chat window is shown.
type Visibility int

const (
	Closed Visibility = iota
	Open
)

func (v Visibility) String() string {
	if v == Open {
		return "open"
	}
	return "closed"
}

// Toggled returns the opposite state.
func (v Visibility) Toggled() Visibility {
	if v == Open {
		return Closed
	}
	return Open
}
