package models

// Action names an actor-initiated workflow operation.
type Action string

const (
	ActionSubmit            Action = "submit"
	ActionMarkChecked       Action = "markChecked"
	ActionForward           Action = "forward"
	ActionReturnToApplicant Action = "returnToApplicant"
	ActionResubmit          Action = "resubmit"
	ActionAssignCommittee   Action = "assignCommittee"
	ActionExpeditedApprove  Action = "expeditedApprove"
	ActionCommitteeDecision Action = "committeeDecision"
)

var validActions = map[Action]bool{
	ActionSubmit:            true,
	ActionMarkChecked:       true,
	ActionForward:           true,
	ActionReturnToApplicant: true,
	ActionResubmit:          true,
	ActionAssignCommittee:   true,
	ActionExpeditedApprove:  true,
	ActionCommitteeDecision: true,
}

// IsValid reports whether a is a known action name.
func (a Action) IsValid() bool {
	return validActions[a]
}

func (a Action) String() string {
	return string(a)
}

// Decision outcomes carried in the committeeDecision payload.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Role identifies the kind of actor invoking a transition. Identity and
// authentication are external; the engine only consumes id + role.
type Role string

const (
	RoleApplicant       Role = "applicant"
	RoleOfficeStaff     Role = "office-staff"
	RoleAdmin           Role = "admin"
	RoleCommitteeMember Role = "committee-member"
)

var validRoles = map[Role]bool{
	RoleApplicant:       true,
	RoleOfficeStaff:     true,
	RoleAdmin:           true,
	RoleCommitteeMember: true,
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Actor is the authenticated party invoking a transition.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
