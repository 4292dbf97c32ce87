package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/admission-service/internal/domain"
	"github.com/spec-kit/admission-service/internal/encoder"
	"github.com/spec-kit/admission-service/internal/events"
	"github.com/spec-kit/admission-service/internal/observability"
	apperrors "github.com/spec-kit/admission-service/pkg/util"
)

// CredentialEncoder renders the scannable convenience payload.
type CredentialEncoder interface {
	Encode(payload encoder.Payload) (string, error)
}

// VerificationReason summarizes why a token was accepted or rejected.
type VerificationReason string

const (
	ReasonValid          VerificationReason = "Valid"
	ReasonExpired        VerificationReason = "Expired"
	ReasonStatusMismatch VerificationReason = "StatusMismatch"
	ReasonNotFound       VerificationReason = "NotFound"
)

// VerificationResult is the verdict for a presented token. Status carries the
// stored status when Reason is StatusMismatch.
type VerificationResult struct {
	Valid      bool
	Reason     VerificationReason
	Status     domain.CredentialStatus
	IsExpired  bool
	Credential *domain.Credential
}

// Message renders the human-readable verdict.
func (r VerificationResult) Message() string {
	switch r.Reason {
	case ReasonValid:
		return "Valid booking token"
	case ReasonExpired:
		return "Booking token has expired"
	case ReasonStatusMismatch:
		return "Booking status: " + string(r.Status)
	default:
		return "Invalid booking token"
	}
}

// CreateCredentialInput describes a visit request. MonumentName and
// TotalAmount are resolved by the caller from the catalog.
type CreateCredentialInput struct {
	OwnerID      string
	MonumentID   string
	MonumentName string
	VisitDate    string
	Guests       domain.GuestCounts
	TotalAmount  float64
	Staged       bool
}

// CredentialService orchestrates credential issuance and verification.
type CredentialService struct {
	store      *BookingStore
	encoder    CredentialEncoder
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
	loc        *time.Location
}

// CredentialDependencies bundles collaborators for the credential service.
type CredentialDependencies struct {
	Store      *BookingStore
	Encoder    CredentialEncoder
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
	Location   *time.Location
}

// NewCredentialService constructs the service.
func NewCredentialService(deps CredentialDependencies) *CredentialService {
	s := &CredentialService{
		store:      deps.Store,
		encoder:    deps.Encoder,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
		loc:        deps.Location,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// CreateCredential validates the request, persists a credential with a unique
// token and attaches its QR code. QR failures leave the credential issued
// without a payload.
func (s *CredentialService) CreateCredential(ctx context.Context, input CreateCredentialInput) (*domain.Credential, error) {
	visitDate, err := validateCreateInput(input)
	if err != nil {
		return nil, err
	}

	status := domain.CredentialStatusConfirmed
	if input.Staged {
		status = domain.CredentialStatusPending
	}

	c, err := s.store.Create(ctx, domain.Credential{
		OwnerID:     strings.TrimSpace(input.OwnerID),
		MonumentID:  strings.TrimSpace(input.MonumentID),
		VisitDate:   visitDate,
		Guests:      input.Guests,
		TotalAmount: input.TotalAmount,
		Status:      status,
		ExpiryDate:  visitDate.AddDays(1),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CredentialIssued(string(c.Status))
	s.attachQRCode(ctx, c, input.MonumentName)

	s.publishEvent(ctx, events.Event{
		Type:         events.EventCredentialIssued,
		CredentialID: c.ID,
		Actor:        events.Actor{Type: domain.SubjectTypeVisitor, SubjectID: c.OwnerID},
		Payload: events.CredentialIssuedPayload{
			OwnerID:     c.OwnerID,
			MonumentID:  c.MonumentID,
			VisitDate:   c.VisitDate,
			ExpiryDate:  c.ExpiryDate,
			Guests:      c.Guests.Total(),
			TotalAmount: c.TotalAmount,
			Status:      c.Status,
			HasQRCode:   c.QRCode != nil,
		},
	})
	return c, nil
}

func (s *CredentialService) attachQRCode(ctx context.Context, c *domain.Credential, monumentName string) {
	if s.encoder == nil {
		return
	}
	qr, err := s.encoder.Encode(encoder.Payload{
		BookingID:    c.ID,
		Token:        c.Token,
		MonumentName: monumentName,
		VisitDate:    c.VisitDate.String(),
		TotalAmount:  c.TotalAmount,
		Guests:       c.Guests.Total(),
	})
	if err != nil {
		s.metrics.EncodingFailure()
		s.logger.Error("qr code generation failed",
			zap.String("credential_id", c.ID), zap.Error(apperrors.NewEncodingFailure(err)))
		return
	}
	if err := s.store.AttachEncodedPayload(ctx, c.ID, qr); err != nil {
		s.metrics.EncodingFailure()
		s.logger.Error("qr code attach failed",
			zap.String("credential_id", c.ID), zap.Error(err))
		return
	}
	c.QRCode = &qr
}

// VerifyToken decides whether token currently grants admission. Only store
// faults are returned as errors; unknown tokens yield a NotFound verdict.
func (s *CredentialService) VerifyToken(ctx context.Context, token string) (VerificationResult, error) {
	c, err := s.store.FindByToken(ctx, token)
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		s.metrics.Verification(string(ReasonNotFound))
		return VerificationResult{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return VerificationResult{}, err
	}

	result := evaluate(c, s.now(), s.loc)
	s.metrics.Verification(string(result.Reason))
	s.publishEvent(ctx, events.Event{
		Type:         events.EventCredentialVerified,
		CredentialID: c.ID,
		Payload: events.CredentialVerifiedPayload{
			Valid:     result.Valid,
			Reason:    string(result.Reason),
			IsExpired: result.IsExpired,
		},
	})
	return result, nil
}

func evaluate(c *domain.Credential, now time.Time, loc *time.Location) VerificationResult {
	result := VerificationResult{
		Status:     c.Status,
		IsExpired:  c.IsExpired(now, loc),
		Credential: c,
	}
	switch {
	case result.IsExpired:
		result.Reason = ReasonExpired
	case c.Status != domain.CredentialStatusConfirmed:
		result.Reason = ReasonStatusMismatch
	default:
		result.Valid = true
		result.Reason = ReasonValid
	}
	return result
}

// GetByToken returns the full credential for scanner UIs.
func (s *CredentialService) GetByToken(ctx context.Context, token string) (*domain.Credential, error) {
	return s.store.FindByToken(ctx, token)
}

// ListByOwner returns the owner's credentials, most recent first.
func (s *CredentialService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Credential, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Confirm moves a staged credential to confirmed. Confirming a confirmed
// credential is a no-op.
func (s *CredentialService) Confirm(ctx context.Context, actor events.Actor, id string) (*domain.Credential, error) {
	return s.transition(ctx, actor, id, domain.CredentialStatusConfirmed)
}

// Cancel moves a credential to cancelled.
func (s *CredentialService) Cancel(ctx context.Context, actor events.Actor, id string) (*domain.Credential, error) {
	return s.transition(ctx, actor, id, domain.CredentialStatusCancelled)
}

// Complete records that the visit took place.
func (s *CredentialService) Complete(ctx context.Context, actor events.Actor, id string) (*domain.Credential, error) {
	return s.transition(ctx, actor, id, domain.CredentialStatusCompleted)
}

// SweepExpired persists the expired status for overdue credentials and
// returns how many were changed. Verification does not depend on it.
func (s *CredentialService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ExpireDue(ctx)
	if err != nil {
		return 0, err
	}
	for i := range expired {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventCredentialStatusChanged,
			CredentialID: expired[i].ID,
			Payload: events.CredentialStatusChangedPayload{
				NewStatus: domain.CredentialStatusExpired,
			},
		})
	}
	s.metrics.CredentialsExpired(len(expired))
	return len(expired), nil
}

func (s *CredentialService) transition(ctx context.Context, actor events.Actor, id string, target domain.CredentialStatus) (*domain.Credential, error) {
	change, err := s.store.TransitionStatus(ctx, id, target)
	if err != nil {
		return nil, err
	}
	if change.Changed {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventCredentialStatusChanged,
			CredentialID: change.Credential.ID,
			Actor:        actor,
			Payload: events.CredentialStatusChangedPayload{
				OldStatus: change.From,
				NewStatus: change.To,
			},
		})
	}
	return change.Credential, nil
}

func validateCreateInput(input CreateCredentialInput) (domain.Date, error) {
	if strings.TrimSpace(input.OwnerID) == "" {
		return domain.Date{}, apperrors.NewValidationError("owner_id", "owner reference required")
	}
	if strings.TrimSpace(input.MonumentID) == "" {
		return domain.Date{}, apperrors.NewValidationError("monument_id", "monument reference required")
	}
	visitDate, err := domain.ParseDate(input.VisitDate)
	if err != nil {
		return domain.Date{}, apperrors.NewValidationError("visit_date", "Invalid visit date")
	}
	if input.Guests.Adults < 1 {
		return domain.Date{}, apperrors.NewValidationError("adults", "At least 1 adult required")
	}
	if input.Guests.Children < 0 {
		return domain.Date{}, apperrors.NewValidationError("children", "Invalid number of children")
	}
	if input.Guests.Foreigners < 0 {
		return domain.Date{}, apperrors.NewValidationError("foreigners", "Invalid number of foreigners")
	}
	if math.IsNaN(input.TotalAmount) || math.IsInf(input.TotalAmount, 0) || input.TotalAmount < 0 {
		return domain.Date{}, apperrors.NewValidationError("total_amount", "Invalid total amount")
	}
	return visitDate, nil
}

func (s *CredentialService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
