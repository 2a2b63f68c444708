package models

// State is the canonical application status. UI label sets such as
// "Pending/Forwarded/Returned" are presentation mappings over these values,
// never independent state.
type State string

const (
	StateDraft             State = "DRAFT"
	StateSubmitted         State = "SUBMITTED"
	StateDocumentCheck     State = "DOCUMENT_CHECK"
	StatePreliminaryReview State = "PRELIMINARY_REVIEW"
	StateERCReview         State = "ERC_REVIEW"
	StateCTSCReview        State = "CTSC_REVIEW"
	StateARWCReview        State = "ARWC_REVIEW"
	StateReturned          State = "RETURNED_FOR_RESUBMISSION"
	StateExpeditedApproved State = "EXPEDITED_APPROVED"
	StateApproved          State = "APPROVED"
	StateRejected          State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:             true,
	StateSubmitted:         true,
	StateDocumentCheck:     true,
	StatePreliminaryReview: true,
	StateERCReview:         true,
	StateCTSCReview:        true,
	StateARWCReview:        true,
	StateReturned:          true,
	StateExpeditedApproved: true,
	StateApproved:          true,
	StateRejected:          true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

var committeeReviewStates = map[State]bool{
	StateERCReview:  true,
	StateCTSCReview: true,
	StateARWCReview: true,
}

// IsTerminal reports whether the state accepts no further transitions.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsCommitteeReview reports whether an application in this state is assigned
// to a committee. AssignedCommitteeID must be non-nil exactly in these states.
func (s State) IsCommitteeReview() bool {
	return committeeReviewStates[s]
}

// IsValid reports whether s is a known application status.
func (s State) IsValid() bool {
	return validStates[s]
}

func (s State) String() string {
	return string(s)
}
