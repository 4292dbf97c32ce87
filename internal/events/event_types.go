package events

import (
	"time"

	"github.com/spec-kit/admission-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCredentialIssued        EventType = "credential.issued"
	EventCredentialStatusChanged EventType = "credential.status_changed"
	EventCredentialVerified      EventType = "credential.verified"
)

// AllEventTypes lists every event the service emits.
var AllEventTypes = []EventType{
	EventCredentialIssued,
	EventCredentialStatusChanged,
	EventCredentialVerified,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type      domain.SubjectType `json:"type,omitempty"`
	SubjectID string             `json:"subject_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	CredentialID string    `json:"credential_id"`
	Actor        Actor     `json:"actor"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload"`
}

// CredentialIssuedPayload payload.
type CredentialIssuedPayload struct {
	OwnerID     string                  `json:"owner_id"`
	MonumentID  string                  `json:"monument_id"`
	VisitDate   domain.Date             `json:"visit_date"`
	ExpiryDate  domain.Date             `json:"expiry_date"`
	Guests      int                     `json:"guests"`
	TotalAmount float64                 `json:"total_amount"`
	Status      domain.CredentialStatus `json:"status"`
	HasQRCode   bool                    `json:"has_qr_code"`
}

// CredentialStatusChangedPayload payload.
type CredentialStatusChangedPayload struct {
	OldStatus domain.CredentialStatus `json:"old_status"`
	NewStatus domain.CredentialStatus `json:"new_status"`
}

// CredentialVerifiedPayload payload. Tokens are never echoed in events.
type CredentialVerifiedPayload struct {
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason"`
	IsExpired bool   `json:"is_expired"`
}
