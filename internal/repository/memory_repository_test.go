package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/admission-service/internal/domain"
)

func TestMemoryInsertRejectsDuplicateTokenUnderConcurrency(t *testing.T) {
	repo := NewMemoryCredentialRepository()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Insert(context.Background(), sampleCredential()); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrDuplicateToken)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestMemoryListByOwnerNewestFirst(t *testing.T) {
	repo := NewMemoryCredentialRepository()
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	for _, tok := range []string{"tok-aaaaaaaa", "tok-bbbbbbbb", "tok-cccccccc"} {
		c := sampleCredential()
		c.Token = tok
		require.NoError(t, repo.Insert(context.Background(), c))
		clock = clock.Add(time.Minute)
	}
	other := sampleCredential()
	other.OwnerID = "u2"
	other.Token = "tok-dddddddd"
	require.NoError(t, repo.Insert(context.Background(), other))

	list, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "tok-cccccccc", list[0].Token)
	assert.Equal(t, "tok-aaaaaaaa", list[2].Token)

	empty, err := repo.ListByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryAttachQRCodeOnlyOnce(t *testing.T) {
	repo := NewMemoryCredentialRepository()
	c := sampleCredential()
	require.NoError(t, repo.Insert(context.Background(), c))

	require.NoError(t, repo.AttachQRCode(context.Background(), c.ID, "first"))
	assert.ErrorIs(t, repo.AttachQRCode(context.Background(), c.ID, "second"), ErrQRCodeAttached)
	assert.ErrorIs(t, repo.AttachQRCode(context.Background(), "missing", "x"), ErrNotFound)

	got, err := repo.GetByToken(context.Background(), c.Token)
	require.NoError(t, err)
	assert.Equal(t, "first", *got.QRCode)
}

func TestMemoryExpireThroughSkipsTerminal(t *testing.T) {
	repo := NewMemoryCredentialRepository()

	live := sampleCredential()
	require.NoError(t, repo.Insert(context.Background(), live))

	cancelled := sampleCredential()
	cancelled.Token = "tok-cancelled"
	cancelled.Status = domain.CredentialStatusCancelled
	require.NoError(t, repo.Insert(context.Background(), cancelled))

	future := sampleCredential()
	future.Token = "tok-future"
	future.ExpiryDate = domain.Date{Year: 2025, Month: time.March, Day: 20}
	require.NoError(t, repo.Insert(context.Background(), future))

	expired, err := repo.ExpireThrough(context.Background(), domain.Date{Year: 2025, Month: time.March, Day: 11})
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, live.Token, expired[0].Token)

	got, err := repo.GetByID(context.Background(), cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CredentialStatusCancelled, got.Status)
}
