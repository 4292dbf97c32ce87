package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/admission-service/internal/domain"
	"github.com/spec-kit/admission-service/internal/observability"
	"github.com/spec-kit/admission-service/internal/repository"
	apperrors "github.com/spec-kit/admission-service/pkg/util"
)

// DefaultMaxTokenAttempts bounds token regeneration after collisions.
const DefaultMaxTokenAttempts = 5

const maxTransitionAttempts = 3

// TokenGenerator produces candidate credential tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// BookingStore owns token assignment, uniqueness retries and status
// transitions on top of the credential repository.
type BookingStore struct {
	repo        repository.CredentialRepository
	tokens      TokenGenerator
	maxAttempts int
	now         func() time.Time
	loc         *time.Location
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// BookingStoreDependencies bundles collaborators for the store.
type BookingStoreDependencies struct {
	Repo             repository.CredentialRepository
	Tokens           TokenGenerator
	MaxTokenAttempts int
	Clock            func() time.Time
	Location         *time.Location
	Metrics          *observability.Metrics
	Logger           *zap.Logger
}

// StatusChange describes the outcome of a transition request.
type StatusChange struct {
	Credential *domain.Credential
	From       domain.CredentialStatus
	To         domain.CredentialStatus
	Changed    bool
}

// NewBookingStore constructs the store.
func NewBookingStore(deps BookingStoreDependencies) *BookingStore {
	s := &BookingStore{
		repo:        deps.Repo,
		tokens:      deps.Tokens,
		maxAttempts: deps.MaxTokenAttempts,
		now:         deps.Clock,
		loc:         deps.Location,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxTokenAttempts
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

// Create assigns a fresh token to candidate and inserts it, regenerating the
// token when the store reports a collision. candidate is not modified.
func (s *BookingStore) Create(ctx context.Context, candidate domain.Credential) (*domain.Credential, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		tok, err := s.tokens.Generate()
		if err != nil {
			return nil, err
		}

		c := candidate
		c.Token = tok
		err = s.repo.Insert(ctx, &c)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, repository.ErrDuplicateToken) {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		s.metrics.TokenCollision()
		s.logger.Warn("credential token collision", zap.Int("attempt", attempt))
	}
	return nil, apperrors.NewTokenSpaceExhausted(s.maxAttempts)
}

// FindByToken performs an exact, case-sensitive lookup.
func (s *BookingStore) FindByToken(ctx context.Context, token string) (*domain.Credential, error) {
	if token == "" {
		return nil, apperrors.NewNotFound("credential", nil)
	}
	c, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// AttachEncodedPayload stores the QR code for id. Callers treat failures as
// non-fatal.
func (s *BookingStore) AttachEncodedPayload(ctx context.Context, id, payload string) error {
	if err := s.repo.AttachQRCode(ctx, id, payload); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// ListByOwner returns the owner's credentials, most recent first.
func (s *BookingStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Credential, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return list, nil
}

// TransitionStatus moves credential id to target. Requesting the status the
// credential already holds is a no-op. Non-terminal credentials past their
// expiry instant count as expired, so only the expired write is accepted for
// them.
func (s *BookingStore) TransitionStatus(ctx context.Context, id string, target domain.CredentialStatus) (*StatusChange, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("status", "unknown status "+string(target))
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, mapStoreError(err)
		}

		now := s.now()
		current := c.EffectiveStatus(now, s.loc)
		switch {
		case current == target && c.Status == target:
			return &StatusChange{Credential: c, From: c.Status, To: target}, nil
		case current == target:
			// lazily expired; persist it
		case !current.CanTransitionTo(target):
			return nil, apperrors.NewInvalidTransition(string(current), string(target))
		case target == domain.CredentialStatusExpired && !c.IsExpired(now, s.loc):
			return nil, apperrors.NewInvalidTransition(string(current), string(target))
		}

		from := c.Status
		err = s.repo.UpdateStatus(ctx, c.ID, from, target)
		if errors.Is(err, repository.ErrStatusConflict) {
			continue
		}
		if err != nil {
			return nil, mapStoreError(err)
		}
		c.Status = target
		return &StatusChange{Credential: c, From: from, To: target, Changed: true}, nil
	}
	return nil, apperrors.NewStoreUnavailable(repository.ErrStatusConflict)
}

// ExpireDue persists the expired status for every non-terminal credential
// whose expiry instant has passed.
func (s *BookingStore) ExpireDue(ctx context.Context) ([]domain.Credential, error) {
	now := s.now()
	today := domain.DateOf(now.In(s.loc))
	through := today
	if !now.After(today.Midnight(s.loc)) {
		through = today.AddDays(-1)
	}
	expired, err := s.repo.ExpireThrough(ctx, through)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return expired, nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("credential", nil)
	case errors.Is(err, repository.ErrQRCodeAttached):
		return apperrors.NewDomainError(apperrors.CodeEncodingFailed, "qr code already attached", http.StatusConflict, nil)
	default:
		return apperrors.NewStoreUnavailable(err)
	}
}
