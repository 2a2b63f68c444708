package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	stderrors "ethics-review-service/internal/common/errors"
	"ethics-review-service/internal/models"
	"ethics-review-service/internal/workflow"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createApplicationRequest struct {
	ApplicantEmail string     `json:"applicantEmail"`
	Title          string     `json:"title"`
	IsExtension    bool       `json:"isExtension"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
	Documents      []struct {
		DocumentType string `json:"documentType"`
		IsMandatory  bool   `json:"isMandatory"`
	} `json:"documents"`
}

type actionPayload struct {
	Reason      string     `json:"reason,omitempty"`
	CommitteeID string     `json:"committeeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Decision    string     `json:"decision,omitempty"`
}

type checkDocumentRequest struct {
	Checked bool `json:"checked"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// handleCreateApplication creates a DRAFT application owned by the calling
// applicant, with its document checklist.
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if actor.Role != models.RoleApplicant {
		writeError(w, http.StatusForbidden, string(stderrors.ErrCodeUnauthorizedRole), "only applicants may create applications")
		return
	}

	var req createApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_BODY", "request body is not valid JSON")
		return
	}

	now := s.clock()
	app := &models.Application{
		ID:             uuid.New().String(),
		ApplicantID:    actor.ID,
		ApplicantEmail: req.ApplicantEmail,
		Title:          req.Title,
		Status:         models.StateDraft,
		IsExtension:    req.IsExtension,
		SubmissionDate: now,
		LastUpdated:    now,
		ExpiryDate:     req.ExpiryDate,
		Payment:        &models.Payment{Status: models.PaymentPending},
		Version:        1,
	}
	for _, doc := range req.Documents {
		app.Documents = append(app.Documents, models.Document{
			DocumentType: doc.DocumentType,
			IsMandatory:  doc.IsMandatory,
			UploadDate:   now,
		})
	}

	if err := s.apps.Create(r.Context(), app); err != nil {
		writeStandardError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, app)
}

// handleGetApplication returns the current snapshot.
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStandardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// handleAction is the single workflow operation exposed to callers:
// POST /applications/{id}/actions/{action}.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	actionName := models.Action(chi.URLParam(r, "action"))
	if !actionName.IsValid() {
		writeError(w, http.StatusNotFound, "UNKNOWN_ACTION", "unrecognized action: "+string(actionName))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_BODY", "unable to read request body")
		return
	}

	if err := validatePayload(actionName, body); err != nil {
		writeStandardError(w, stderrors.NewInvalidPayloadError(err.Error()))
		return
	}

	var payload actionPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "MALFORMED_BODY", "request body is not valid JSON")
			return
		}
	}

	ctx, cancel := s.actionContext(r)
	defer cancel()

	app, err := s.engine.Apply(ctx, workflow.ApplyRequest{
		ApplicationID: chi.URLParam(r, "id"),
		Action:        actionName,
		Actor:         actorFrom(r.Context()),
		Payload: workflow.Payload{
			Reason:      payload.Reason,
			CommitteeID: payload.CommitteeID,
			DueDate:     payload.DueDate,
			Decision:    payload.Decision,
		},
	})
	if err != nil {
		writeStandardError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, app)
}

// handleHistory returns the ordered TransitionRecord sequence.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")

	// History of an unknown application is a 404, not an empty list.
	if _, err := s.apps.Get(r.Context(), applicationID); err != nil {
		writeStandardError(w, err)
		return
	}

	records, err := s.audit.History(r.Context(), applicationID)
	if err != nil {
		writeStandardError(w, err)
		return
	}
	if records == nil {
		records = []models.TransitionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleCheckDocument flips one document's checked flag. Office staff only,
// and only while the checklist is editable.
func (s *Server) handleCheckDocument(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if actor.Role != models.RoleOfficeStaff {
		writeError(w, http.StatusForbidden, string(stderrors.ErrCodeUnauthorizedRole), "only office staff may check documents")
		return
	}

	var req checkDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_BODY", "request body is not valid JSON")
		return
	}

	err := s.apps.SetDocumentChecked(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "documentType"), req.Checked)
	if err != nil {
		writeStandardError(w, err)
		return
	}

	app, err := s.apps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStandardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// handleHealthz pings the backing stores.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.actionContext(r)
	defer cancel()

	for name, check := range s.healthChecks {
		if err := check(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "DEPENDENCY_DOWN", name+": "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

func writeStandardError(w http.ResponseWriter, err error) {
	var stdErr *stderrors.StandardError
	if errors.As(err, &stdErr) {
		writeJSON(w, stderrors.HTTPStatus(stdErr.Code), errorResponse{Error: errorBody{
			Code:    string(stdErr.Code),
			Message: stdErr.Message,
			Details: stdErr.Details,
		}})
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error")
}
