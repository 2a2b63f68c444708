package workflow

import (
	"ethics-review-service/internal/models"
	"ethics-review-service/internal/notify"
)

// Rule describes one legal transition: who may fire it, what must hold
// before it fires, where it lands, and which notifications it emits.
// Rules are configuration data; the engine never hard-codes transitions.
type Rule struct {
	To    models.State
	Roles []models.Role

	RequiresDocsComplete bool
	RequiresReturnReason bool
	// RequiresCommittee marks assignCommittee: the target state is resolved
	// through the Committee Router, not taken from To.
	RequiresCommittee bool
	// RequiresDecision marks committeeDecision: the target state is taken
	// from the payload outcome (approve/reject), not from To.
	RequiresDecision bool
	RequiresPayment  bool

	Effects []notify.Kind
}

// AllowsRole reports whether the actor role is permitted to fire the rule.
func (r Rule) AllowsRole(role models.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Table maps (current state, requested action) to the governing rule.
type Table map[models.State]map[models.Action]Rule

// Lookup returns the rule for (state, action), if one exists.
func (t Table) Lookup(state models.State, action models.Action) (Rule, bool) {
	actions, ok := t[state]
	if !ok {
		return Rule{}, false
	}
	rule, ok := actions[action]
	return rule, ok
}

// OverrideRoles replaces the allowed roles for every rule bound to the given
// action. Used to apply config-driven role remapping without recompiling.
func (t Table) OverrideRoles(action models.Action, roles []models.Role) {
	for state, actions := range t {
		if rule, ok := actions[action]; ok {
			rule.Roles = roles
			t[state][action] = rule
		}
	}
}

// DefaultTable encodes the institutional review process:
//
//	DRAFT -> SUBMITTED -> DOCUMENT_CHECK -> PRELIMINARY_REVIEW -> {ERC|CTSC|ARWC}_REVIEW -> {APPROVED|REJECTED}
//	DOCUMENT_CHECK / PRELIMINARY_REVIEW -> RETURNED_FOR_RESUBMISSION -> SUBMITTED
//	PRELIMINARY_REVIEW -> EXPEDITED_APPROVED
func DefaultTable() Table {
	officeOrAdmin := []models.Role{models.RoleOfficeStaff, models.RoleAdmin}

	return Table{
		models.StateDraft: {
			models.ActionSubmit: {
				To:      models.StateSubmitted,
				Roles:   []models.Role{models.RoleApplicant},
				Effects: []notify.Kind{notify.KindApplicationSubmitted},
			},
		},
		models.StateSubmitted: {
			models.ActionMarkChecked: {
				To:                   models.StateDocumentCheck,
				Roles:                []models.Role{models.RoleOfficeStaff},
				RequiresDocsComplete: true,
			},
		},
		models.StateDocumentCheck: {
			models.ActionMarkChecked: {
				To:                   models.StateDocumentCheck,
				Roles:                []models.Role{models.RoleOfficeStaff},
				RequiresDocsComplete: true,
			},
			models.ActionForward: {
				To:                   models.StatePreliminaryReview,
				Roles:                []models.Role{models.RoleOfficeStaff},
				RequiresDocsComplete: true,
				RequiresPayment:      true,
			},
			models.ActionReturnToApplicant: {
				To:                   models.StateReturned,
				Roles:                officeOrAdmin,
				RequiresReturnReason: true,
				Effects:              []notify.Kind{notify.KindApplicantReturned},
			},
		},
		models.StatePreliminaryReview: {
			models.ActionReturnToApplicant: {
				To:                   models.StateReturned,
				Roles:                officeOrAdmin,
				RequiresReturnReason: true,
				Effects:              []notify.Kind{notify.KindApplicantReturned},
			},
			models.ActionAssignCommittee: {
				Roles:             []models.Role{models.RoleAdmin},
				RequiresCommittee: true,
				Effects:           []notify.Kind{notify.KindCommitteeAssigned},
			},
			models.ActionExpeditedApprove: {
				To:      models.StateExpeditedApproved,
				Roles:   []models.Role{models.RoleAdmin},
				Effects: []notify.Kind{notify.KindDecisionRendered},
			},
		},
		models.StateReturned: {
			models.ActionResubmit: {
				To:      models.StateSubmitted,
				Roles:   []models.Role{models.RoleApplicant},
				Effects: []notify.Kind{notify.KindApplicantResubmitted},
			},
		},
		models.StateERCReview: {
			models.ActionCommitteeDecision: {
				Roles:            []models.Role{models.RoleCommitteeMember},
				RequiresDecision: true,
				Effects:          []notify.Kind{notify.KindDecisionRendered},
			},
		},
		models.StateCTSCReview: {
			models.ActionCommitteeDecision: {
				Roles:            []models.Role{models.RoleCommitteeMember},
				RequiresDecision: true,
				Effects:          []notify.Kind{notify.KindDecisionRendered},
			},
		},
		models.StateARWCReview: {
			models.ActionCommitteeDecision: {
				Roles:            []models.Role{models.RoleCommitteeMember},
				RequiresDecision: true,
				Effects:          []notify.Kind{notify.KindDecisionRendered},
			},
		},
	}
}
