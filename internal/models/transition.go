package models

import "time"

// TransitionRecord is the append-only audit entry written for every
// transition attempt, successful or not. Ordering by Timestamp reconstructs
// the full history of an application.
type TransitionRecord struct {
	ID              string    `json:"id"`
	ApplicationID   string    `json:"applicationId"`
	ActorID         string    `json:"actorId"`
	ActorRole       Role      `json:"actorRole"`
	Action          Action    `json:"action"`
	FromState       State     `json:"fromState"`
	ToState         *State    `json:"toState,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
}

// Accepted reports whether the attempt resulted in a state change.
func (r *TransitionRecord) Accepted() bool {
	return r.ToState != nil
}
