package backend

import (
	"errors"
	"testing"
)

// TestStateString tests the String() method for State.
func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "idle"},
		{StatePreparing, "preparing"},
		{StateInFlight, "in-flight"},
		{StateSucceeded, "succeeded"},
		{StateFailed, "failed"},
		{StateCancelled, "cancelled"},
		{State(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("State.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestStateMachineHappyPath tests idle → preparing → in-flight → succeeded.
func TestStateMachineHappyPath(t *testing.T) {
	m := NewStateMachine()

	if m.Current() != StateIdle {
		t.Fatalf("new machine state = %v, want idle", m.Current())
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Dispatch(); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if err := m.Succeed(); err != nil {
		t.Fatalf("Succeed() error = %v", err)
	}
	if m.Current() != StateSucceeded {
		t.Errorf("final state = %v, want succeeded", m.Current())
	}
}

// TestStateMachineValidationFailure tests that idle can fail directly, the
// path taken when input validation rejects the request.
func TestStateMachineValidationFailure(t *testing.T) {
	m := NewStateMachine()
	if err := m.Fail(); err != nil {
		t.Fatalf("Fail() from idle error = %v", err)
	}
	if m.Current() != StateFailed {
		t.Errorf("state = %v, want failed", m.Current())
	}
}

// TestStateMachineInvalidTransitions tests that invalid operations surface
// typed errors and leave the state unchanged.
func TestStateMachineInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*StateMachine)
		op    func(*StateMachine) error
		want  State
	}{
		{
			name:  "dispatch from idle",
			setup: func(*StateMachine) {},
			op:    (*StateMachine).Dispatch,
			want:  StateIdle,
		},
		{
			name:  "succeed from preparing",
			setup: func(m *StateMachine) { _ = m.Start() },
			op:    (*StateMachine).Succeed,
			want:  StatePreparing,
		},
		{
			name: "start after success",
			setup: func(m *StateMachine) {
				_ = m.Start()
				_ = m.Dispatch()
				_ = m.Succeed()
			},
			op:   (*StateMachine).Start,
			want: StateSucceeded,
		},
		{
			name: "cancel after failure",
			setup: func(m *StateMachine) {
				_ = m.Start()
				_ = m.Fail()
			},
			op:   (*StateMachine).Cancel,
			want: StateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine()
			tt.setup(m)

			err := tt.op(m)
			if err == nil {
				t.Fatal("expected transition error, got nil")
			}
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("error type = %T, want *TransitionError", err)
			}
			if m.Current() != tt.want {
				t.Errorf("state after invalid op = %v, want %v", m.Current(), tt.want)
			}
		})
	}
}

// TestStateMachineCancel tests cancellation from every non-terminal state.
func TestStateMachineCancel(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*StateMachine)
	}{
		{"from idle", func(*StateMachine) {}},
		{"from preparing", func(m *StateMachine) { _ = m.Start() }},
		{"from in-flight", func(m *StateMachine) { _ = m.Start(); _ = m.Dispatch() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine()
			tt.setup(m)
			if err := m.Cancel(); err != nil {
				t.Fatalf("Cancel() error = %v", err)
			}
			if m.Current() != StateCancelled {
				t.Errorf("state = %v, want cancelled", m.Current())
			}
		})
	}
}

// TestStateMachineReject tests unsupported operations: the error names the
// current state and the operation, and the state does not move.
func TestStateMachineReject(t *testing.T) {
	m := NewStateMachine()
	_ = m.Start()
	_ = m.Dispatch()

	err := m.Reject("pause")
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("error type = %T, want *TransitionError", err)
	}
	if te.From != StateInFlight || te.Op != "pause" {
		t.Errorf("TransitionError = {%v %q}, want {in-flight \"pause\"}", te.From, te.Op)
	}
	if m.Current() != StateInFlight {
		t.Errorf("state = %v, want in-flight", m.Current())
	}
}

// TestStateTerminal tests terminal state detection.
func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateSucceeded, StateFailed, StateCancelled} {
		if !s.Terminal() {
			t.Errorf("%v.Terminal() = false, want true", s)
		}
	}
	for _, s := range []State{StateIdle, StatePreparing, StateInFlight} {
		if s.Terminal() {
			t.Errorf("%v.Terminal() = true, want false", s)
		}
	}
}
