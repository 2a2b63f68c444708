package storage

import (
	"context"
	"database/sql"

	stderrors "ethics-review-service/internal/common/errors"
	"ethics-review-service/internal/models"
)

// execer abstracts *sql.DB and *sql.Tx so the success-path insert can run
// inside the transition transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertTransition(ctx context.Context, ex execer, record *models.TransitionRecord) error {
	var toState sql.NullString
	if record.ToState != nil {
		toState = sql.NullString{String: record.ToState.String(), Valid: true}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO transitions (
			id, application_id, actor_id, actor_role, action,
			from_state, to_state, timestamp, rejection_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID,
		record.ApplicationID,
		record.ActorID,
		string(record.ActorRole),
		string(record.Action),
		string(record.FromState),
		toState,
		record.Timestamp,
		record.RejectionReason,
	)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("insert transition", err)
	}
	return nil
}

// TransitionStore persists the append-only transition history.
type TransitionStore struct {
	db *sql.DB
}

func NewTransitionStore(db *sql.DB) *TransitionStore {
	return &TransitionStore{db: db}
}

// Insert appends one attempt record.
func (s *TransitionStore) Insert(ctx context.Context, record *models.TransitionRecord) error {
	return insertTransition(ctx, s.db, record)
}

// ListByApplication returns the full ordered history for an application.
func (s *TransitionStore) ListByApplication(ctx context.Context, applicationID string) ([]models.TransitionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, actor_id, actor_role, action,
		       from_state, to_state, timestamp, rejection_reason
		FROM transitions
		WHERE application_id = $1
		ORDER BY timestamp, id`, applicationID)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("select transitions", err)
	}
	defer rows.Close()

	var records []models.TransitionRecord
	for rows.Next() {
		var (
			rec       models.TransitionRecord
			actorRole string
			action    string
			fromState string
			toState   sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.ApplicationID,
			&rec.ActorID,
			&actorRole,
			&action,
			&fromState,
			&toState,
			&rec.Timestamp,
			&rec.RejectionReason,
		); err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan transition", err)
		}

		rec.ActorRole = models.Role(actorRole)
		rec.Action = models.Action(action)
		rec.FromState = models.State(fromState)
		if toState.Valid {
			to := models.State(toState.String)
			rec.ToState = &to
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("iterate transitions", err)
	}

	return records, nil
}
