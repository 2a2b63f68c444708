package models

import "time"

// Application is the workflow subject. Status moves only through
// engine-approved transitions; LastUpdated is set by the engine on every
// successful transition and never by callers.
type Application struct {
	ID                  string     `json:"id"`
	ApplicantID         string     `json:"applicantId"`
	ApplicantEmail      string     `json:"applicantEmail,omitempty"`
	Title               string     `json:"title,omitempty"`
	Status              State      `json:"status"`
	AssignedCommitteeID *string    `json:"assignedCommitteeId,omitempty"`
	IsExtension         bool       `json:"isExtension"`
	SubmissionDate      time.Time  `json:"submissionDate"`
	LastUpdated         time.Time  `json:"lastUpdated"`
	ExpiryDate          *time.Time `json:"expiryDate,omitempty"`
	ReviewDueDate       *time.Time `json:"reviewDueDate,omitempty"`
	Documents           []Document `json:"documents"`
	Payment             *Payment   `json:"payment,omitempty"`
	Version             int64      `json:"version"`
}

// Document is owned by its application. Checked is mutated only by the
// office-staff check-document operation while the application is in
// SUBMITTED or DOCUMENT_CHECK.
type Document struct {
	DocumentType string    `json:"documentType"`
	IsMandatory  bool      `json:"isMandatory"`
	Checked      bool      `json:"checked"`
	UploadDate   time.Time `json:"uploadDate"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// Payment is the completeness flag consumed by the workflow; capture and
// processing are external.
type Payment struct {
	Status PaymentStatus `json:"status"`
}

// Completed reports whether the application's payment, if any, is complete.
func (p *Payment) Completed() bool {
	return p != nil && p.Status == PaymentCompleted
}
