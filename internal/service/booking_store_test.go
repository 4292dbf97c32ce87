package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admission-service/internal/domain"
	"github.com/spec-kit/admission-service/internal/observability"
	"github.com/spec-kit/admission-service/internal/repository"
	apperrors "github.com/spec-kit/admission-service/pkg/util"
)

type sequenceTokens struct {
	mu     sync.Mutex
	values []string
}

func (s *sequenceTokens) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.values[0]
	if len(s.values) > 1 {
		s.values = s.values[1:]
	}
	return next, nil
}

type brokenRepository struct {
	repository.CredentialRepository
	err error
}

func (b brokenRepository) Insert(context.Context, *domain.Credential) error { return b.err }

func (b brokenRepository) GetByToken(context.Context, string) (*domain.Credential, error) {
	return nil, b.err
}

func candidate() domain.Credential {
	visit := domain.Date{Year: 2025, Month: time.March, Day: 10}
	return domain.Credential{
		OwnerID:    "visitor-1",
		MonumentID: "red-fort",
		VisitDate:  visit,
		Guests:     domain.GuestCounts{Adults: 1},
		Status:     domain.CredentialStatusConfirmed,
		ExpiryDate: visit.AddDays(1),
	}
}

func TestBookingStoreRetriesOnCollision(t *testing.T) {
	repo := repository.NewMemoryCredentialRepository()
	metrics := observability.NewMetrics()
	tokens := &sequenceTokens{values: []string{"TakenToken01", "TakenToken01", "FreshToken02"}}
	store := NewBookingStore(BookingStoreDependencies{Repo: repo, Tokens: tokens, Metrics: metrics})

	first, err := store.Create(context.Background(), candidate())
	require.NoError(t, err)
	assert.Equal(t, "TakenToken01", first.Token)

	second, err := store.Create(context.Background(), candidate())
	require.NoError(t, err)
	assert.Equal(t, "FreshToken02", second.Token)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Contains(t, gathered(t, metrics), "credential_token_collisions_total 1\n")
}

func TestBookingStoreDoesNotMutateCandidate(t *testing.T) {
	store := NewBookingStore(BookingStoreDependencies{
		Repo:   repository.NewMemoryCredentialRepository(),
		Tokens: constantTokens("CandidateTok"),
	})
	in := candidate()

	_, err := store.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, in.Token)
	assert.Empty(t, in.ID)
}

func TestBookingStoreMapsStoreFaults(t *testing.T) {
	store := NewBookingStore(BookingStoreDependencies{
		Repo:   brokenRepository{err: errors.New("connection refused")},
		Tokens: constantTokens("AnyToken1234"),
	})

	_, err := store.Create(context.Background(), candidate())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStoreUnavailable))

	_, err = store.FindByToken(context.Background(), "AnyToken1234")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStoreUnavailable))
}

func TestBookingStoreExpireRejectedBeforeExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	store := NewBookingStore(BookingStoreDependencies{
		Repo:   repository.NewMemoryCredentialRepository(),
		Tokens: constantTokens("ExpireTok123"),
		Clock:  func() time.Time { return now },
	})
	c, err := store.Create(context.Background(), candidate())
	require.NoError(t, err)

	_, err = store.TransitionStatus(context.Background(), c.ID, domain.CredentialStatusExpired)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	now = time.Date(2025, 3, 11, 0, 0, 1, 0, time.UTC)
	change, err := store.TransitionStatus(context.Background(), c.ID, domain.CredentialStatusExpired)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.Equal(t, domain.CredentialStatusConfirmed, change.From)
}

func TestBookingStoreRejectsUnknownStatus(t *testing.T) {
	store := NewBookingStore(BookingStoreDependencies{
		Repo:   repository.NewMemoryCredentialRepository(),
		Tokens: constantTokens("UnknownSt123"),
	})

	_, err := store.TransitionStatus(context.Background(), "id", domain.CredentialStatus("archived"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func gathered(t *testing.T, metrics *observability.Metrics) string {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var sb strings.Builder
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				fmt.Fprintf(&sb, "%s %g\n", mf.GetName(), c.GetValue())
			}
		}
	}
	return sb.String()
}
