// Package notify translates workflow side effects into outbound notification
// requests. Delivery mechanics are external; the adapter guarantees an
// at-least-once attempt per event and never fails the triggering transition.
package notify

import (
	"context"
	"time"
)

// Kind names a notification event emitted on a successful transition.
type Kind string

const (
	KindApplicationSubmitted Kind = "application_submitted"
	KindApplicantReturned    Kind = "applicant_returned"
	KindApplicantResubmitted Kind = "applicant_resubmitted"
	KindCommitteeAssigned    Kind = "committee_assigned"
	KindDecisionRendered     Kind = "decision_rendered"
)

// Event carries everything a delivery channel needs to render and address a
// notification.
type Event struct {
	ID            string     `json:"id"`
	Kind          Kind       `json:"kind"`
	ApplicationID string     `json:"applicationId"`
	ApplicantID   string     `json:"applicantId,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	CommitteeID   string     `json:"committeeId,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Outcome       string     `json:"outcome,omitempty"`
	OccurredAt    time.Time  `json:"occurredAt"`
}

// Dispatcher is the engine-facing adapter contract.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}
