package models

// CommitteeType distinguishes the three review bodies.
type CommitteeType string

const (
	CommitteeERC  CommitteeType = "ERC"
	CommitteeCTSC CommitteeType = "CTSC"
	CommitteeARWC CommitteeType = "ARWC"
)

// Committee is a registry entry consumed by the router; membership and
// administration live outside the workflow core.
type Committee struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         CommitteeType `json:"type"`
	ContactEmail string        `json:"contactEmail,omitempty"`
}
