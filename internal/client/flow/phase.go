package flow

// Phase is the attendance journey's current state. Exactly one phase is
// active at a time; an error overlay (Controller.Err) can sit on top of any
// phase without changing it.
type Phase int

const (
	PhaseScanning Phase = iota
	PhaseJoined
	PhaseRecording
	PhaseSubmitting
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "scanning"
	case PhaseJoined:
		return "joined"
	case PhaseRecording:
		return "recording"
	case PhaseSubmitting:
		return "submitting"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}
