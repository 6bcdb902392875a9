package workflows

import "fmt"

// State is a named node in a StateMachine.
type State string

// StateMachine enforces transitions between a fixed set of states
type StateMachine struct {
	allowedTransitions map[State][]State
}

// NewStateMachine creates a state machine from an adjacency list
func NewStateMachine(transitions map[State][]State) *StateMachine {
	allowed := make(map[State][]State, len(transitions))
	for from, to := range transitions {
		allowed[from] = append([]State(nil), to...)
	}
	return &StateMachine{allowedTransitions: allowed}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to State) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// Transition returns to when the move is allowed and an error otherwise.
func (sm *StateMachine) Transition(from, to State) (State, error) {
	if !sm.CanTransition(from, to) {
		return from, fmt.Errorf("transition %s -> %s not allowed", from, to)
	}
	return to, nil
}
