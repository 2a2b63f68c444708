// Package workflow implements the application review state machine: the
// transition table, the gating preconditions, and the engine that applies
// actor-initiated actions atomically against stored applications.
package workflow

import (
	"context"
	"strings"
	"time"

	stderrors "ethics-review-service/internal/common/errors"
	"ethics-review-service/internal/common/logger"
	"ethics-review-service/internal/common/metrics"
	"ethics-review-service/internal/common/observability"
	"ethics-review-service/internal/models"
	"ethics-review-service/internal/notify"

	"github.com/google/uuid"
)

// ApplicationStore is the persistence contract the engine drives. Get loads
// the current snapshot including its version; ApplyTransition performs the
// compare-and-set status update together with the success audit record in a
// single transaction, failing with CONCURRENT_MODIFICATION when the stored
// version no longer matches.
type ApplicationStore interface {
	Get(ctx context.Context, applicationID string) (*models.Application, error)
	ApplyTransition(ctx context.Context, app *models.Application, record *models.TransitionRecord) error
}

// AuditRecorder persists attempt records for rejected transitions. Success
// records are written by the store inside the mutation transaction; Mirror
// lets the recorder propagate them to any secondary index after commit.
type AuditRecorder interface {
	Record(ctx context.Context, record *models.TransitionRecord) error
	Mirror(ctx context.Context, record *models.TransitionRecord)
}

// Clock supplies the engine's notion of now. Injected for tests.
type Clock func() time.Time

// Payload carries the action-specific request data.
type Payload struct {
	Reason      string     `json:"reason,omitempty"`
	CommitteeID string     `json:"committeeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Decision    string     `json:"decision,omitempty"`
}

// ApplyRequest is one actor-initiated transition attempt.
type ApplyRequest struct {
	ApplicationID string
	Action        models.Action
	Actor         models.Actor
	Payload       Payload
}

// Engine validates requested actions against the transition table and
// preconditions, applies them atomically, records every attempt, and emits
// notification events for committed transitions.
type Engine struct {
	table          Table
	store          ApplicationStore
	audit          AuditRecorder
	router         *Router
	dispatcher     notify.Dispatcher
	clock          Clock
	logger         logger.Logger
	obs            *observability.Observability
	requirePayment bool
}

type EngineOption func(*Engine)

// WithClock overrides the engine clock.
func WithClock(clock Clock) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithPaymentRequired gates forward on payment completeness.
func WithPaymentRequired(required bool) EngineOption {
	return func(e *Engine) { e.requirePayment = required }
}

// WithObservability wires the otel meter.
func WithObservability(obs *observability.Observability) EngineOption {
	return func(e *Engine) { e.obs = obs }
}

func NewEngine(table Table, store ApplicationStore, audit AuditRecorder, router *Router, dispatcher notify.Dispatcher, log logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		table:      table,
		store:      store,
		audit:      audit,
		router:     router,
		dispatcher: dispatcher,
		clock:      func() time.Time { return time.Now().UTC() },
		logger:     log.WithFields(map[string]interface{}{"component": "workflow-engine"}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply executes one transition attempt. Every attempt, accepted or
// rejected, produces exactly one TransitionRecord. Rejections never mutate
// the application.
func (e *Engine) Apply(ctx context.Context, req ApplyRequest) (*models.Application, error) {
	started := e.clock()
	metrics.TransitionsAttempted.WithLabelValues(string(req.Action)).Inc()

	app, err := e.store.Get(ctx, req.ApplicationID)
	if err != nil {
		if stderrors.CodeOf(err) == stderrors.ErrCodeApplicationNotFound {
			return nil, e.reject(ctx, req, "", err)
		}
		return nil, err
	}

	if app.Status.IsTerminal() {
		return nil, e.reject(ctx, req, app.Status,
			stderrors.NewTerminalStateError(app.ID, app.Status.String()))
	}

	rule, ok := e.table.Lookup(app.Status, req.Action)
	if !ok {
		return nil, e.reject(ctx, req, app.Status,
			stderrors.NewInvalidTransitionError(app.Status.String(), req.Action.String()))
	}

	if !rule.AllowsRole(req.Actor.Role) {
		return nil, e.reject(ctx, req, app.Status,
			stderrors.NewUnauthorizedRoleError(string(req.Actor.Role), req.Action.String()))
	}

	toSt, err := e.checkPreconditions(ctx, app, rule, req)
	if err != nil {
		return nil, e.reject(ctx, req, app.Status, err)
	}

	now := e.clock()
	updated := *app
	updated.Status = toSt
	updated.LastUpdated = now
	if toSt.IsCommitteeReview() {
		committeeID := req.Payload.CommitteeID
		updated.AssignedCommitteeID = &committeeID
		updated.ReviewDueDate = req.Payload.DueDate
	} else {
		updated.AssignedCommitteeID = nil
	}

	record := &models.TransitionRecord{
		ID:            uuid.New().String(),
		ApplicationID: app.ID,
		ActorID:       req.Actor.ID,
		ActorRole:     req.Actor.Role,
		Action:        req.Action,
		FromState:     app.Status,
		ToState:       &toSt,
		Timestamp:     now,
	}

	if err := e.store.ApplyTransition(ctx, &updated, record); err != nil {
		if stderrors.CodeOf(err) == stderrors.ErrCodeConcurrentModification {
			return nil, e.reject(ctx, req, app.Status, err)
		}
		return nil, err
	}

	updated.Version = app.Version + 1
	e.audit.Mirror(ctx, record)

	metrics.TransitionsSucceeded.WithLabelValues(string(req.Action)).Inc()
	metrics.TransitionDuration.WithLabelValues(string(req.Action)).Observe(e.clock().Sub(started).Seconds())
	if e.obs != nil {
		e.obs.RecordTransition(ctx, string(req.Action), "accepted")
		e.obs.RecordTransitionDuration(ctx, e.clock().Sub(started), string(req.Action))
	}

	e.logger.Info("transition applied", map[string]interface{}{
		"applicationId": app.ID,
		"action":        string(req.Action),
		"fromState":     app.Status.String(),
		"toState":       toSt.String(),
		"actorId":       req.Actor.ID,
	})

	e.emitEffects(ctx, rule, &updated, req, now)

	return &updated, nil
}

// checkPreconditions evaluates the rule's gates against the application and
// payload, and resolves the target state for router- and decision-driven
// rules.
func (e *Engine) checkPreconditions(ctx context.Context, app *models.Application, rule Rule, req ApplyRequest) (models.State, error) {
	if rule.RequiresDocsComplete && !AllMandatoryChecked(app.Documents) {
		return "", stderrors.NewPreconditionFailedError("all mandatory documents must be checked")
	}

	if rule.RequiresPayment && e.requirePayment && !app.Payment.Completed() {
		return "", stderrors.NewPreconditionFailedError("payment must be completed")
	}

	if rule.RequiresReturnReason && strings.TrimSpace(req.Payload.Reason) == "" {
		return "", stderrors.NewPreconditionFailedError("a non-empty return reason is required")
	}

	if rule.RequiresCommittee {
		if req.Payload.CommitteeID == "" || req.Payload.DueDate == nil {
			return "", stderrors.NewPreconditionFailedError("committee id and review due date are required")
		}
		return e.router.Route(ctx, req.Payload.CommitteeID)
	}

	if rule.RequiresDecision {
		switch req.Payload.Decision {
		case models.DecisionApprove:
			return models.StateApproved, nil
		case models.DecisionReject:
			return models.StateRejected, nil
		default:
			return "", stderrors.NewPreconditionFailedError("decision must be approve or reject")
		}
	}

	return rule.To, nil
}

// reject records the failed attempt and returns the rejection. The audit
// write happens even for unauthorized and invalid actions; an audit failure
// is logged but the original rejection is what the caller sees.
func (e *Engine) reject(ctx context.Context, req ApplyRequest, fromState models.State, cause error) error {
	code := stderrors.CodeOf(cause)
	metrics.TransitionsRejected.WithLabelValues(string(req.Action), string(code)).Inc()
	if e.obs != nil {
		e.obs.RecordTransition(ctx, string(req.Action), "rejected")
	}

	record := &models.TransitionRecord{
		ID:              uuid.New().String(),
		ApplicationID:   req.ApplicationID,
		ActorID:         req.Actor.ID,
		ActorRole:       req.Actor.Role,
		Action:          req.Action,
		FromState:       fromState,
		Timestamp:       e.clock(),
		RejectionReason: cause.Error(),
	}

	if err := e.audit.Record(ctx, record); err != nil {
		e.logger.WithError(err).Error("failed to record rejected attempt", map[string]interface{}{
			"applicationId": req.ApplicationID,
			"action":        string(req.Action),
		})
	}

	e.logger.Warn("transition rejected", map[string]interface{}{
		"applicationId": req.ApplicationID,
		"action":        string(req.Action),
		"errorCode":     string(code),
		"actorRole":     string(req.Actor.Role),
	})

	return cause
}

// emitEffects hands the rule's side effects to the dispatcher. Dispatch is
// at-least-once and strictly after commit; failures are the adapter's to
// recover and never roll back the transition.
func (e *Engine) emitEffects(ctx context.Context, rule Rule, app *models.Application, req ApplyRequest, now time.Time) {
	for _, kind := range rule.Effects {
		event := notify.Event{
			ID:            uuid.New().String(),
			Kind:          kind,
			ApplicationID: app.ID,
			ApplicantID:   app.ApplicantID,
			OccurredAt:    now,
		}

		switch kind {
		case notify.KindApplicantReturned:
			event.Reason = req.Payload.Reason
		case notify.KindCommitteeAssigned:
			event.CommitteeID = req.Payload.CommitteeID
			event.DueDate = req.Payload.DueDate
		case notify.KindDecisionRendered:
			event.Outcome = app.Status.String()
		}

		if err := e.dispatcher.Dispatch(ctx, event); err != nil {
			e.logger.WithError(err).Error("notification dispatch failed", map[string]interface{}{
				"applicationId": app.ID,
				"kind":          string(kind),
			})
		}
	}
}
