package domain

// ClientState is the client-visible lifecycle state.
//
// State machine:
//
//	Running → Paused              [PauseBeforeFork]
//	Paused → Running              [ResumeAfterFork]
//	Running|Paused → CloseRequested [Close]
//	CloseRequested → Closed       [shutdown sequence completes]
//	Closed → (terminal)
//
// CloseRequested and Closed never transition back to Running or Paused.
type ClientState int32

const (
	StateRunning ClientState = iota
	StatePaused
	StateCloseRequested
	StateClosed
)

// String returns the lowercase name used in logs and metrics labels.
func (s ClientState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCloseRequested:
		return "close_requested"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DeadOrDying reports whether shutdown has been requested or completed.
func (s ClientState) DeadOrDying() bool {
	return s == StateCloseRequested || s == StateClosed
}

// AllClientStates lists every state in declaration order.
func AllClientStates() []ClientState {
	return []ClientState{StateRunning, StatePaused, StateCloseRequested, StateClosed}
}
