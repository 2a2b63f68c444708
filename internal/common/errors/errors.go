// Package errors provides standardized error handling for the review workflow.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeApplicationNotFound    ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeTerminalState          ErrorCode = "TERMINAL_STATE"
	ErrCodeInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrCodeUnauthorizedRole       ErrorCode = "UNAUTHORIZED_ROLE"
	ErrCodePreconditionFailed     ErrorCode = "PRECONDITION_FAILED"
	ErrCodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrCodeUnknownCommittee       ErrorCode = "UNKNOWN_COMMITTEE"
	ErrCodeInvalidPayload         ErrorCode = "INVALID_PAYLOAD"
	ErrCodeDocumentNotFound       ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeDocumentLocked         ErrorCode = "DOCUMENT_LOCKED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeAuditWriteFailed         ErrorCode = "AUDIT_WRITE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the error code from err, or empty if err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// Is lets callers match StandardErrors by code via errors.Is against a
// template error.
func (e *StandardError) Is(target error) bool {
	var stdErr *StandardError
	if errors.As(target, &stdErr) {
		return e.Code == stdErr.Code
	}
	return false
}

// NewNotFoundError marks an unknown application id.
func NewNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTerminalStateError marks an action attempted against APPROVED/REJECTED.
func NewTerminalStateError(applicationID, state string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTerminalState,
		Message:   "Application is in a terminal state",
		Details:   fmt.Sprintf("applicationId: %s, status: %s", applicationID, state),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError marks an action undefined for the current status.
func NewInvalidTransitionError(state, action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Action not allowed from current status",
		Details:   fmt.Sprintf("status: %s, action: %s", state, action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedRoleError marks a role mismatch for an otherwise valid action.
func NewUnauthorizedRoleError(role, action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorizedRole,
		Message:   "Actor role may not perform this action",
		Details:   fmt.Sprintf("role: %s, action: %s", role, action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPreconditionFailedError names the specific unmet gating condition so the
// UI can display it.
func NewPreconditionFailedError(condition string) *StandardError {
	return &StandardError{
		Code:      ErrCodePreconditionFailed,
		Message:   "Transition precondition not met",
		Details:   condition,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConcurrentModificationError marks a lost optimistic-concurrency race;
// the caller should reload current state and retry.
func NewConcurrentModificationError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConcurrentModification,
		Message:   "Application was modified by a concurrent transition",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownCommitteeError marks a committee id that does not resolve.
func NewUnknownCommitteeError(committeeID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCommittee,
		Message:   "Committee not found in registry",
		Details:   fmt.Sprintf("committeeId: %s", committeeID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError marks an action payload that failed schema validation.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Action payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentNotFoundError marks an unknown document type on an application.
func NewDocumentNotFoundError(applicationID, documentType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentNotFound,
		Message:   "Document not found on application",
		Details:   fmt.Sprintf("applicationId: %s, documentType: %s", applicationID, documentType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentLockedError marks a checklist edit outside SUBMITTED/DOCUMENT_CHECK.
func NewDocumentLockedError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentLocked,
		Message:   "Document checklist is not editable in the current status",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
// Dispatch failures are recovered by the adapter and never surfaced as a
// failure of the triggering transition.
func NewNotificationSendFailedError(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("kind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteFailedError creates a retryable audit write error.
func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit record write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps an error code to the HTTP status the action endpoint
// responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeApplicationNotFound, ErrCodeDocumentNotFound:
		return http.StatusNotFound
	case ErrCodeTerminalState, ErrCodeInvalidTransition, ErrCodeConcurrentModification, ErrCodeDocumentLocked:
		return http.StatusConflict
	case ErrCodeUnauthorizedRole:
		return http.StatusForbidden
	case ErrCodePreconditionFailed, ErrCodeUnknownCommittee, ErrCodeInvalidPayload:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor resolves the HTTP status for any error, defaulting to 500 for
// non-standard errors.
func StatusFor(err error) int {
	if code := CodeOf(err); code != "" {
		return HTTPStatus(code)
	}
	return http.StatusInternalServerError
}
