// Package audit records every attempted and successful transition and serves
// the ordered history back to callers.
package audit

import (
	"context"

	"ethics-review-service/internal/common/logger"
	"ethics-review-service/internal/common/metrics"
	"ethics-review-service/internal/models"
	"ethics-review-service/internal/storage"
)

// Recorder writes attempt records synchronously with the triggering
// transition and mirrors them into the search index when one is configured.
// The postgres write is authoritative; indexing is best-effort.
type Recorder struct {
	store   *storage.TransitionStore
	indexer *Indexer
	logger  logger.Logger
}

func NewRecorder(store *storage.TransitionStore, indexer *Indexer, log logger.Logger) *Recorder {
	return &Recorder{
		store:   store,
		indexer: indexer,
		logger:  log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

// Record appends one attempt record. Never drops a record for rejected
// transitions; a write failure surfaces to the caller for logging but the
// rejection itself stands.
func (r *Recorder) Record(ctx context.Context, record *models.TransitionRecord) error {
	if err := r.store.Insert(ctx, record); err != nil {
		metrics.AuditRecordsWritten.WithLabelValues("failed").Inc()
		return err
	}
	metrics.AuditRecordsWritten.WithLabelValues("written").Inc()

	r.index(ctx, record)
	return nil
}

// Mirror pushes an already-persisted record (e.g. written inside the
// transition transaction) into the search index.
func (r *Recorder) Mirror(ctx context.Context, record *models.TransitionRecord) {
	metrics.AuditRecordsWritten.WithLabelValues("written").Inc()
	r.index(ctx, record)
}

func (r *Recorder) index(ctx context.Context, record *models.TransitionRecord) {
	if r.indexer == nil {
		return
	}
	if err := r.indexer.Index(ctx, record); err != nil {
		r.logger.WithError(err).Warn("audit index mirror failed", map[string]interface{}{
			"recordId":      record.ID,
			"applicationId": record.ApplicationID,
		})
	}
}

// History returns the ordered TransitionRecord sequence for an application.
func (r *Recorder) History(ctx context.Context, applicationID string) ([]models.TransitionRecord, error) {
	return r.store.ListByApplication(ctx, applicationID)
}
