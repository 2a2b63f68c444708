package workflow

import (
	"testing"

	"ethics-review-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable_DefinedPairs(t *testing.T) {
	table := DefaultTable()

	defined := []struct {
		from   models.State
		action models.Action
		to     models.State
	}{
		{models.StateDraft, models.ActionSubmit, models.StateSubmitted},
		{models.StateSubmitted, models.ActionMarkChecked, models.StateDocumentCheck},
		{models.StateDocumentCheck, models.ActionMarkChecked, models.StateDocumentCheck},
		{models.StateDocumentCheck, models.ActionForward, models.StatePreliminaryReview},
		{models.StateDocumentCheck, models.ActionReturnToApplicant, models.StateReturned},
		{models.StatePreliminaryReview, models.ActionReturnToApplicant, models.StateReturned},
		{models.StatePreliminaryReview, models.ActionExpeditedApprove, models.StateExpeditedApproved},
		{models.StateReturned, models.ActionResubmit, models.StateSubmitted},
	}
	for _, tc := range defined {
		rule, ok := table.Lookup(tc.from, tc.action)
		require.True(t, ok, "%s from %s must be defined", tc.action, tc.from)
		assert.Equal(t, tc.to, rule.To)
		assert.NotEmpty(t, rule.Roles)
	}
}

func TestDefaultTable_DynamicTargetRules(t *testing.T) {
	table := DefaultTable()

	assign, ok := table.Lookup(models.StatePreliminaryReview, models.ActionAssignCommittee)
	require.True(t, ok)
	assert.True(t, assign.RequiresCommittee)
	assert.Empty(t, assign.To)

	for _, from := range []models.State{models.StateERCReview, models.StateCTSCReview, models.StateARWCReview} {
		decide, ok := table.Lookup(from, models.ActionCommitteeDecision)
		require.True(t, ok, "committeeDecision from %s", from)
		assert.True(t, decide.RequiresDecision)
		assert.Equal(t, []models.Role{models.RoleCommitteeMember}, decide.Roles)
	}
}

func TestDefaultTable_UndefinedPairs(t *testing.T) {
	table := DefaultTable()

	undefined := []struct {
		from   models.State
		action models.Action
	}{
		{models.StateDraft, models.ActionForward},
		{models.StateSubmitted, models.ActionSubmit},
		{models.StateSubmitted, models.ActionResubmit},
		{models.StatePreliminaryReview, models.ActionMarkChecked},
		{models.StateReturned, models.ActionSubmit},
		{models.StateERCReview, models.ActionExpeditedApprove},
		{models.StateExpeditedApproved, models.ActionResubmit},
		{models.StateApproved, models.ActionSubmit},
		{models.StateRejected, models.ActionResubmit},
	}
	for _, tc := range undefined {
		_, ok := table.Lookup(tc.from, tc.action)
		assert.False(t, ok, "%s from %s must not be defined", tc.action, tc.from)
	}
}

func TestDefaultTable_TerminalStatesHaveNoRules(t *testing.T) {
	table := DefaultTable()
	assert.NotContains(t, table, models.StateApproved)
	assert.NotContains(t, table, models.StateRejected)
	assert.NotContains(t, table, models.StateExpeditedApproved)
}

func TestRule_AllowsRole(t *testing.T) {
	rule := Rule{Roles: []models.Role{models.RoleOfficeStaff, models.RoleAdmin}}
	assert.True(t, rule.AllowsRole(models.RoleOfficeStaff))
	assert.True(t, rule.AllowsRole(models.RoleAdmin))
	assert.False(t, rule.AllowsRole(models.RoleApplicant))
	assert.False(t, rule.AllowsRole(models.RoleCommitteeMember))
}

func TestTable_OverrideRoles(t *testing.T) {
	table := DefaultTable()
	table.OverrideRoles(models.ActionForward, []models.Role{models.RoleAdmin})

	rule, ok := table.Lookup(models.StateDocumentCheck, models.ActionForward)
	require.True(t, ok)
	assert.False(t, rule.AllowsRole(models.RoleOfficeStaff))
	assert.True(t, rule.AllowsRole(models.RoleAdmin))
	// Preconditions survive the remap.
	assert.True(t, rule.RequiresDocsComplete)
}
