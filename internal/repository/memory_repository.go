package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/admission-service/internal/domain"
)

// MemoryCredentialRepository keeps credentials in process memory. The token
// index is checked and written under one lock so concurrent inserts never
// share a token. It backs local runs without POSTGRES_DSN and tests.
type MemoryCredentialRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Credential
	byToken map[string]string
	now     func() time.Time
}

// NewMemoryCredentialRepository returns an empty in-memory repository.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{
		byID:    make(map[string]*domain.Credential),
		byToken: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryCredentialRepository) Insert(_ context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byToken[c.Token]; exists {
		return ErrDuplicateToken
	}
	now := r.now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	stored := *c
	r.byID[stored.ID] = &stored
	r.byToken[stored.Token] = stored.ID
	return nil
}

func (r *MemoryCredentialRepository) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(id)
}

func (r *MemoryCredentialRepository) GetByToken(_ context.Context, token string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return r.copyOf(id)
}

func (r *MemoryCredentialRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []domain.Credential{}
	for _, c := range r.byID {
		if c.OwnerID == ownerID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryCredentialRepository) AttachQRCode(_ context.Context, id, qrCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if c.QRCode != nil {
		return ErrQRCodeAttached
	}
	c.QRCode = &qrCode
	c.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryCredentialRepository) UpdateStatus(_ context.Context, id string, from, to domain.CredentialStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if c.Status != from {
		return ErrStatusConflict
	}
	c.Status = to
	c.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryCredentialRepository) ExpireThrough(_ context.Context, through domain.Date) ([]domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []domain.Credential
	for _, c := range r.byID {
		if c.Status.Terminal() || c.ExpiryDate.After(through) {
			continue
		}
		c.Status = domain.CredentialStatusExpired
		c.UpdatedAt = r.now().UTC()
		expired = append(expired, *c)
	}
	return expired, nil
}

func (r *MemoryCredentialRepository) copyOf(id string) (*domain.Credential, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}
