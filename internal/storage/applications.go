// Package storage implements the postgres-backed stores for applications,
// transition history, and the committee registry.
package storage

import (
	"context"
	"database/sql"

	stderrors "ethics-review-service/internal/common/errors"
	"ethics-review-service/internal/common/logger"
	"ethics-review-service/internal/models"
)

// ApplicationStore persists applications and applies engine transitions with
// optimistic concurrency on a version column.
type ApplicationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewApplicationStore(db *sql.DB, log logger.Logger) *ApplicationStore {
	return &ApplicationStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "application-store"}),
	}
}

// Create inserts a new DRAFT application together with its document
// checklist.
func (s *ApplicationStore) Create(ctx context.Context, app *models.Application) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("create application", err)
	}
	defer tx.Rollback()

	var paymentStatus sql.NullString
	if app.Payment != nil {
		paymentStatus = sql.NullString{String: string(app.Payment.Status), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (
			id, applicant_id, applicant_email, title, status,
			assigned_committee_id, is_extension, submission_date, last_updated,
			expiry_date, review_due_date, payment_status, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		app.ID,
		app.ApplicantID,
		app.ApplicantEmail,
		app.Title,
		string(app.Status),
		app.AssignedCommitteeID,
		app.IsExtension,
		app.SubmissionDate,
		app.LastUpdated,
		app.ExpiryDate,
		app.ReviewDueDate,
		paymentStatus,
		app.Version,
	)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("insert application", err)
	}

	for _, doc := range app.Documents {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (application_id, document_type, is_mandatory, checked, upload_date)
			VALUES ($1, $2, $3, $4, $5)`,
			app.ID, doc.DocumentType, doc.IsMandatory, doc.Checked, doc.UploadDate,
		)
		if err != nil {
			return stderrors.NewQueryExecutionFailedError("insert document", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stderrors.NewQueryExecutionFailedError("commit create", err)
	}
	return nil
}

// Get loads the application snapshot, including documents and payment state.
func (s *ApplicationStore) Get(ctx context.Context, applicationID string) (*models.Application, error) {
	var (
		app           models.Application
		status        string
		committeeID   sql.NullString
		expiryDate    sql.NullTime
		reviewDueDate sql.NullTime
		paymentStatus sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, applicant_id, applicant_email, title, status,
		       assigned_committee_id, is_extension, submission_date, last_updated,
		       expiry_date, review_due_date, payment_status, version
		FROM applications
		WHERE id = $1`, applicationID).Scan(
		&app.ID,
		&app.ApplicantID,
		&app.ApplicantEmail,
		&app.Title,
		&status,
		&committeeID,
		&app.IsExtension,
		&app.SubmissionDate,
		&app.LastUpdated,
		&expiryDate,
		&reviewDueDate,
		&paymentStatus,
		&app.Version,
	)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewNotFoundError(applicationID)
	}
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("select application", err)
	}

	app.Status = models.State(status)
	if committeeID.Valid {
		app.AssignedCommitteeID = &committeeID.String
	}
	if expiryDate.Valid {
		app.ExpiryDate = &expiryDate.Time
	}
	if reviewDueDate.Valid {
		app.ReviewDueDate = &reviewDueDate.Time
	}
	if paymentStatus.Valid {
		app.Payment = &models.Payment{Status: models.PaymentStatus(paymentStatus.String)}
	}

	docs, err := s.loadDocuments(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	app.Documents = docs

	return &app, nil
}

func (s *ApplicationStore) loadDocuments(ctx context.Context, applicationID string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_type, is_mandatory, checked, upload_date
		FROM documents
		WHERE application_id = $1
		ORDER BY upload_date, document_type`, applicationID)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("select documents", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.DocumentType, &doc.IsMandatory, &doc.Checked, &doc.UploadDate); err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("iterate documents", err)
	}

	return docs, nil
}

// ApplyTransition commits an engine-approved transition: the status update
// is a compare-and-set on app.Version (the version the engine loaded), and
// the success audit record is inserted in the same transaction so the two
// can never diverge. A CAS miss means another transition won the race.
func (s *ApplicationStore) ApplyTransition(ctx context.Context, app *models.Application, record *models.TransitionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("begin transition", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE applications
		SET status = $1, assigned_committee_id = $2, review_due_date = $3,
		    last_updated = $4, version = version + 1
		WHERE id = $5 AND version = $6`,
		string(app.Status),
		app.AssignedCommitteeID,
		app.ReviewDueDate,
		app.LastUpdated,
		app.ID,
		app.Version,
	)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("update application", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("rows affected", err)
	}
	if affected == 0 {
		return stderrors.NewConcurrentModificationError(app.ID)
	}

	if err := insertTransition(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return stderrors.NewQueryExecutionFailedError("commit transition", err)
	}
	return nil
}

// SetDocumentChecked flips a document's checked flag. The guard keeps the
// checklist editable only while the application sits in SUBMITTED or
// DOCUMENT_CHECK; the application row is locked for the duration so a
// concurrent transition cannot move the status between the guard and the
// update.
func (s *ApplicationStore) SetDocumentChecked(ctx context.Context, applicationID, documentType string, checked bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("begin document check", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM applications WHERE id = $1 FOR UPDATE`, applicationID).Scan(&status)
	if err == sql.ErrNoRows {
		return stderrors.NewNotFoundError(applicationID)
	}
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("select status", err)
	}

	state := models.State(status)
	if state != models.StateSubmitted && state != models.StateDocumentCheck {
		return stderrors.NewDocumentLockedError(applicationID)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE documents SET checked = $1
		WHERE application_id = $2 AND document_type = $3`,
		checked, applicationID, documentType,
	)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("update document", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("rows affected", err)
	}
	if affected == 0 {
		return stderrors.NewDocumentNotFoundError(applicationID, documentType)
	}

	if err := tx.Commit(); err != nil {
		return stderrors.NewQueryExecutionFailedError("commit document check", err)
	}
	return nil
}

// ApplicantEmail resolves the applicant's delivery address for notifications.
func (s *ApplicationStore) ApplicantEmail(ctx context.Context, applicationID string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx,
		`SELECT applicant_email FROM applications WHERE id = $1`, applicationID).Scan(&email)
	if err == sql.ErrNoRows {
		return "", stderrors.NewNotFoundError(applicationID)
	}
	if err != nil {
		return "", stderrors.NewQueryExecutionFailedError("select applicant email", err)
	}
	return email, nil
}

// SetPaymentStatus records the externally captured payment outcome.
func (s *ApplicationStore) SetPaymentStatus(ctx context.Context, applicationID string, status models.PaymentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET payment_status = $1 WHERE id = $2`,
		string(status), applicationID,
	)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("update payment status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("rows affected", err)
	}
	if affected == 0 {
		return stderrors.NewNotFoundError(applicationID)
	}
	return nil
}
