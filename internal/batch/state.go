package batch

// State is a Processor lifecycle state.
type State int32

const (
	StateNotStarted State = iota
	StateCredentialPending
	StateAborted
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateCredentialPending:
		return "CredentialPending"
	case StateAborted:
		return "Aborted"
	case StateRunning:
		return "Running"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAborted || s == StateFinished
}
