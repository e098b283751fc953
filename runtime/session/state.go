package session

import "github.com/viant/txshield/model"

// State represents the current state of a review session.
type State string

const (
	StateCreated       State = "created"
	StateAssessing     State = "assessing"
	StateAutoApproved  State = "autoApproved"
	StatePendingReview State = "pendingReview"
	// StateManualTriage is entered when the evaluator failed; the session is
	// reviewed by a human without a risk summary.
	StateManualTriage State = "manualTriage"

	StateApproved                State = "approved"
	StateRejected                State = "rejected"
	StateFlaggedForInvestigation State = "flaggedForInvestigation"
)

// transitions lists every legal move of the state machine.
var transitions = map[State][]State{
	StateCreated:       {StateAssessing},
	StateAssessing:     {StateAutoApproved, StatePendingReview, StateManualTriage},
	StateAutoApproved:  {StateApproved},
	StatePendingReview: {StateApproved, StateRejected, StateFlaggedForInvestigation},
	StateManualTriage:  {StateApproved, StateRejected, StateFlaggedForInvestigation},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to State) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	switch s {
	case StateApproved, StateRejected, StateFlaggedForInvestigation:
		return true
	}
	return false
}

// AwaitsReviewer reports whether the state is resolved by a human decision.
func (s State) AwaitsReviewer() bool {
	return s == StatePendingReview || s == StateManualTriage
}

// StateOf maps a final status onto its terminal state.
func StateOf(status model.Status) State {
	switch status {
	case model.StatusApproved:
		return StateApproved
	case model.StatusFlaggedForInvestigation:
		return StateFlaggedForInvestigation
	}
	return StateRejected
}
