package model

// RunState represents the lifecycle state of a submitted workflow as seen by
// the polling loop.
type RunState string

const (
	RunStatePolling   RunState = "POLLING"
	RunStateSucceeded RunState = "SUCCEEDED"
	RunStateFailed    RunState = "FAILED"
	RunStateTimedOut  RunState = "TIMED_OUT"
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	return string(s)
}

// IsTerminal returns true if the run is in a final state.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateSucceeded, RunStateFailed, RunStateTimedOut:
		return true
	}
	return false
}

// ValidRunTransitions defines the allowed state transitions for a run.
// Polling is the only non-terminal state; terminal states are never left.
var ValidRunTransitions = map[RunState][]RunState{
	RunStatePolling: {RunStateSucceeded, RunStateFailed, RunStateTimedOut},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s RunState) CanTransitionTo(next RunState) bool {
	for _, allowed := range ValidRunTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
