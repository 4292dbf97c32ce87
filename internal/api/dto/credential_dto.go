package dto

import (
	"time"

	"github.com/spec-kit/admission-service/internal/domain"
)

// CreateCredentialRequest payload. MonumentName and TotalAmount come from the
// catalog lookup performed by the caller.
type CreateCredentialRequest struct {
	MonumentID   string             `json:"monument_id"`
	MonumentName string             `json:"monument_name"`
	VisitDate    string             `json:"visit_date"`
	Guests       domain.GuestCounts `json:"guests"`
	TotalAmount  float64            `json:"total_amount"`
	Staged       bool               `json:"staged"`
}

// CredentialResponse is the visitor-facing view of a credential.
type CredentialResponse struct {
	ID          string                  `json:"id"`
	OwnerID     string                  `json:"owner_id"`
	MonumentID  string                  `json:"monument_id"`
	VisitDate   domain.Date             `json:"visit_date"`
	ExpiryDate  domain.Date             `json:"expiry_date"`
	Guests      domain.GuestCounts      `json:"guests"`
	TotalAmount float64                 `json:"total_amount"`
	Token       string                  `json:"token"`
	Status      domain.CredentialStatus `json:"status"`
	QRCode      *string                 `json:"qr_code"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// VerificationResponse reports whether a token admits right now.
type VerificationResponse struct {
	Valid     bool                    `json:"valid"`
	Reason    string                  `json:"reason"`
	Message   string                  `json:"message"`
	IsExpired bool                    `json:"is_expired"`
	Status    domain.CredentialStatus `json:"status,omitempty"`
	Booking   *CredentialResponse     `json:"booking,omitempty"`
}

// NewCredentialResponse maps a domain credential.
func NewCredentialResponse(c *domain.Credential) CredentialResponse {
	return CredentialResponse{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		MonumentID:  c.MonumentID,
		VisitDate:   c.VisitDate,
		ExpiryDate:  c.ExpiryDate,
		Guests:      c.Guests,
		TotalAmount: c.TotalAmount,
		Token:       c.Token,
		Status:      c.Status,
		QRCode:      c.QRCode,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
