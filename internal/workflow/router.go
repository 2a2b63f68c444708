package workflow

import (
	"context"

	stderrors "ethics-review-service/internal/common/errors"
	"ethics-review-service/internal/models"
)

// CommitteeRegistry resolves committee ids to registry entries. Backed by the
// committee store; lookups outside the registry yield UNKNOWN_COMMITTEE.
type CommitteeRegistry interface {
	GetCommittee(ctx context.Context, committeeID string) (*models.Committee, error)
}

// Router resolves which review state an application is routed to when a
// committee is assigned. Used only by the assignCommittee transition.
type Router struct {
	registry CommitteeRegistry
}

func NewRouter(registry CommitteeRegistry) *Router {
	return &Router{registry: registry}
}

var committeeStates = map[models.CommitteeType]models.State{
	models.CommitteeERC:  models.StateERCReview,
	models.CommitteeCTSC: models.StateCTSCReview,
	models.CommitteeARWC: models.StateARWCReview,
}

// Route maps the committee's configured type to the corresponding review
// state.
func (r *Router) Route(ctx context.Context, committeeID string) (models.State, error) {
	committee, err := r.registry.GetCommittee(ctx, committeeID)
	if err != nil {
		return "", err
	}

	state, ok := committeeStates[committee.Type]
	if !ok {
		return "", stderrors.NewUnknownCommitteeError(committeeID)
	}
	return state, nil
}
