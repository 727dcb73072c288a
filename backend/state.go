package backend

import "fmt"

// State represents the lifecycle stage of one request.
type State int

const (
	// StateIdle means the request has not started.
	StateIdle State = iota
	// StatePreparing means inputs are being validated.
	StatePreparing
	// StateInFlight means the backend call has been issued.
	StateInFlight
	// StateSucceeded is terminal success.
	StateSucceeded
	// StateFailed is terminal failure.
	StateFailed
	// StateCancelled is terminal cancellation.
	StateCancelled
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateInFlight:
		return "in-flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// TransitionError reports an operation that is not valid in the current
// state. It is a usage error and is always surfaced, never swallowed.
type TransitionError struct {
	From State
	Op   string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("operation %q not valid in state %s", e.Op, e.From)
}

// StateMachine tracks the lifecycle of a single request. One machine serves
// exactly one synthesize-or-translate call and is owned by the goroutine
// that issued it; a new request always gets a fresh machine.
type StateMachine struct {
	current     State
	transitions map[State][]State
}

// NewStateMachine creates a request state machine in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[State][]State{
			StateIdle:      {StatePreparing, StateFailed, StateCancelled},
			StatePreparing: {StateInFlight, StateFailed, StateCancelled},
			StateInFlight:  {StateSucceeded, StateFailed, StateCancelled},
		},
	}
}

// Current returns the current state.
func (m *StateMachine) Current() State { return m.current }

// Start moves Idle → Preparing. A validation failure should be reported via
// Fail instead, which is valid straight from Idle.
func (m *StateMachine) Start() error { return m.transition(StatePreparing, "start") }

// Dispatch moves Preparing → InFlight once the backend call is issued.
func (m *StateMachine) Dispatch() error { return m.transition(StateInFlight, "dispatch") }

// Succeed moves InFlight → Succeeded.
func (m *StateMachine) Succeed() error { return m.transition(StateSucceeded, "success") }

// Fail moves any non-terminal state → Failed.
func (m *StateMachine) Fail() error { return m.transition(StateFailed, "failure") }

// Cancel moves any non-terminal state → Cancelled.
func (m *StateMachine) Cancel() error { return m.transition(StateCancelled, "cancel") }

// Reject returns the TransitionError for an operation the active backend
// does not support in the current state, without changing state.
func (m *StateMachine) Reject(op string) error {
	return &TransitionError{From: m.current, Op: op}
}

func (m *StateMachine) transition(to State, op string) error {
	valid, ok := m.transitions[m.current]
	if !ok {
		// Terminal states have no outgoing transitions.
		return &TransitionError{From: m.current, Op: op}
	}
	for _, s := range valid {
		if s == to {
			m.current = to
			return nil
		}
	}
	return &TransitionError{From: m.current, Op: op}
}
