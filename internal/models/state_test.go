package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_IsTerminal(t *testing.T) {
	assert.True(t, StateApproved.IsTerminal())
	assert.True(t, StateRejected.IsTerminal())

	// EXPEDITED_APPROVED has no outgoing transitions but is not terminal in
	// the hard sense; attempts from it fail as invalid transitions.
	assert.False(t, StateExpeditedApproved.IsTerminal())
	assert.False(t, StateDraft.IsTerminal())
	assert.False(t, StateERCReview.IsTerminal())
}

func TestState_IsCommitteeReview(t *testing.T) {
	assert.True(t, StateERCReview.IsCommitteeReview())
	assert.True(t, StateCTSCReview.IsCommitteeReview())
	assert.True(t, StateARWCReview.IsCommitteeReview())
	assert.False(t, StatePreliminaryReview.IsCommitteeReview())
	assert.False(t, StateApproved.IsCommitteeReview())
}

func TestState_IsValid(t *testing.T) {
	for _, state := range []State{
		StateDraft, StateSubmitted, StateDocumentCheck, StatePreliminaryReview,
		StateERCReview, StateCTSCReview, StateARWCReview,
		StateReturned, StateExpeditedApproved, StateApproved, StateRejected,
	} {
		assert.True(t, state.IsValid(), "%s", state)
	}
	assert.False(t, State("LIMBO").IsValid())
}

func TestTransitionRecord_Accepted(t *testing.T) {
	to := StateSubmitted
	assert.True(t, (&TransitionRecord{ToState: &to}).Accepted())
	assert.False(t, (&TransitionRecord{RejectionReason: "nope"}).Accepted())
}
