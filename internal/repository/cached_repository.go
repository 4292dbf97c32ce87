package repository

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/admission-service/internal/domain"
)

const (
	cacheKeyPrefix = "credential:token:"
	// cacheTombstone marks a token written since it was last cached. Fills
	// use SETNX, so a read that raced the write cannot repopulate the key.
	cacheTombstone = "-"
)

// CachedCredentialRepository serves token lookups from Redis and falls back
// to the wrapped repository. Every write that changes a credential replaces
// its cache entry with a tombstone for one TTL. Redis faults degrade to
// uncached reads.
type CachedCredentialRepository struct {
	CredentialRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCredentialRepository wraps next with a Redis read-through cache.
func NewCachedCredentialRepository(next CredentialRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedCredentialRepository {
	return &CachedCredentialRepository{CredentialRepository: next, client: client, ttl: ttl, logger: logger}
}

type cachedCredential struct {
	ID          string                  `json:"id"`
	OwnerID     string                  `json:"owner_id"`
	MonumentID  string                  `json:"monument_id"`
	VisitDate   domain.Date             `json:"visit_date"`
	Guests      domain.GuestCounts      `json:"guests"`
	TotalAmount float64                 `json:"total_amount"`
	Token       string                  `json:"token"`
	Status      domain.CredentialStatus `json:"status"`
	QRCode      *string                 `json:"qr_code,omitempty"`
	ExpiryDate  domain.Date             `json:"expiry_date"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// CacheKey derives the Redis key for token. Tokens are hashed so the keyspace
// never holds admissible tokens in clear.
func CacheKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// EncodeCacheEntry serializes a credential the way it is stored in Redis.
func EncodeCacheEntry(c *domain.Credential) (string, error) {
	data, err := json.Marshal(cachedCredential{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		MonumentID:  c.MonumentID,
		VisitDate:   c.VisitDate,
		Guests:      c.Guests,
		TotalAmount: c.TotalAmount,
		Token:       c.Token,
		Status:      c.Status,
		QRCode:      c.QRCode,
		ExpiryDate:  c.ExpiryDate,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeCacheEntry(raw string) (*domain.Credential, error) {
	var cached cachedCredential
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, err
	}
	return &domain.Credential{
		ID:          cached.ID,
		OwnerID:     cached.OwnerID,
		MonumentID:  cached.MonumentID,
		VisitDate:   cached.VisitDate,
		Guests:      cached.Guests,
		TotalAmount: cached.TotalAmount,
		Token:       cached.Token,
		Status:      cached.Status,
		QRCode:      cached.QRCode,
		ExpiryDate:  cached.ExpiryDate,
		CreatedAt:   cached.CreatedAt,
		UpdatedAt:   cached.UpdatedAt,
	}, nil
}

func (r *CachedCredentialRepository) GetByToken(ctx context.Context, token string) (*domain.Credential, error) {
	key := CacheKey(token)
	raw, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil && raw == cacheTombstone:
	case err == nil:
		if c, decodeErr := decodeCacheEntry(raw); decodeErr == nil && c.Token == token {
			return c, nil
		}
		r.logger.Warn("discarding unreadable credential cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("credential cache read failed", zap.Error(err))
	}

	c, err := r.CredentialRepository.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	r.store(ctx, c)
	return c, nil
}

func (r *CachedCredentialRepository) AttachQRCode(ctx context.Context, id, qrCode string) error {
	err := r.CredentialRepository.AttachQRCode(ctx, id, qrCode)
	r.invalidateID(ctx, id)
	return err
}

func (r *CachedCredentialRepository) UpdateStatus(ctx context.Context, id string, from, to domain.CredentialStatus) error {
	err := r.CredentialRepository.UpdateStatus(ctx, id, from, to)
	r.invalidateID(ctx, id)
	return err
}

func (r *CachedCredentialRepository) ExpireThrough(ctx context.Context, through domain.Date) ([]domain.Credential, error) {
	expired, err := r.CredentialRepository.ExpireThrough(ctx, through)
	for i := range expired {
		r.invalidate(ctx, expired[i].Token)
	}
	return expired, err
}

func (r *CachedCredentialRepository) store(ctx context.Context, c *domain.Credential) {
	if r.ttl <= 0 {
		return
	}
	raw, err := EncodeCacheEntry(c)
	if err != nil {
		r.logger.Warn("credential cache encode failed", zap.Error(err))
		return
	}
	if err := r.client.SetNX(ctx, CacheKey(c.Token), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("credential cache write failed", zap.Error(err))
	}
}

func (r *CachedCredentialRepository) invalidateID(ctx context.Context, id string) {
	c, err := r.CredentialRepository.GetByID(ctx, id)
	if err != nil {
		return
	}
	r.invalidate(ctx, c.Token)
}

func (r *CachedCredentialRepository) invalidate(ctx context.Context, token string) {
	var err error
	if r.ttl > 0 {
		err = r.client.Set(ctx, CacheKey(token), cacheTombstone, r.ttl).Err()
	} else {
		err = r.client.Del(ctx, CacheKey(token)).Err()
	}
	if err != nil {
		r.logger.Warn("credential cache invalidation failed", zap.Error(err))
	}
}
