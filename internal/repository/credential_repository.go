package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/admission-service/internal/domain"
)

var (
	// ErrNotFound is returned when no credential matches the lookup.
	ErrNotFound = errors.New("credential not found")
	// ErrDuplicateToken is returned when an insert collides on the token index.
	ErrDuplicateToken = errors.New("credential token already issued")
	// ErrStatusConflict is returned when a compare-and-set status update lost a race.
	ErrStatusConflict = errors.New("credential status changed concurrently")
	// ErrQRCodeAttached is returned when the credential already carries a QR code.
	ErrQRCodeAttached = errors.New("credential qr code already attached")
)

const uniqueViolation = "23505"

// CredentialRepository encapsulates credential persistence.
type CredentialRepository interface {
	Insert(ctx context.Context, credential *domain.Credential) error
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	GetByToken(ctx context.Context, token string) (*domain.Credential, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Credential, error)
	AttachQRCode(ctx context.Context, id, qrCode string) error
	UpdateStatus(ctx context.Context, id string, from, to domain.CredentialStatus) error
	ExpireThrough(ctx context.Context, through domain.Date) ([]domain.Credential, error)
}

// DBTX is the subset of pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type credentialRepository struct {
	db DBTX
}

// NewCredentialRepository instantiates the Postgres-backed repository.
func NewCredentialRepository(db DBTX) CredentialRepository {
	return &credentialRepository{db: db}
}

const credentialColumns = `id, owner_id, monument_id, visit_date, adults, children, foreigners,
               total_amount, token, status, qr_code, expiry_date, created_at, updated_at`

func (r *credentialRepository) Insert(ctx context.Context, c *domain.Credential) error {
	const query = `
        INSERT INTO credentials (owner_id, monument_id, visit_date, adults, children, foreigners,
            total_amount, token, status, expiry_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		c.OwnerID,
		c.MonumentID,
		c.VisitDate.Midnight(time.UTC),
		c.Guests.Adults,
		c.Guests.Children,
		c.Guests.Foreigners,
		c.TotalAmount,
		c.Token,
		c.Status,
		c.ExpiryDate.Midnight(time.UTC),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isTokenViolation(err) {
		return ErrDuplicateToken
	}
	return err
}

func (r *credentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return r.fetchSingle(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id=$1`, id)
}

func (r *credentialRepository) GetByToken(ctx context.Context, token string) (*domain.Credential, error) {
	return r.fetchSingle(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE token=$1`, token)
}

func (r *credentialRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Credential, error) {
	c, err := scanCredential(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *credentialRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE owner_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Credential{}
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *credentialRepository) AttachQRCode(ctx context.Context, id, qrCode string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	const query = `UPDATE credentials SET qr_code=$1, updated_at=NOW() WHERE id=$2 AND qr_code IS NULL`
	cmd, err := r.db.Exec(ctx, query, qrCode, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrQRCodeAttached
}

func (r *credentialRepository) UpdateStatus(ctx context.Context, id string, from, to domain.CredentialStatus) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	const query = `UPDATE credentials SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	cmd, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrStatusConflict
}

func (r *credentialRepository) ExpireThrough(ctx context.Context, through domain.Date) ([]domain.Credential, error) {
	query := `
        UPDATE credentials SET status='expired', updated_at=NOW()
        WHERE status IN ('pending','confirmed') AND expiry_date <= $1
        RETURNING ` + credentialColumns
	rows, err := r.db.Query(ctx, query, through.Midnight(time.UTC))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *c)
	}
	return expired, rows.Err()
}

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	var (
		c                 domain.Credential
		visitDate, expiry time.Time
	)
	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.MonumentID,
		&visitDate,
		&c.Guests.Adults,
		&c.Guests.Children,
		&c.Guests.Foreigners,
		&c.TotalAmount,
		&c.Token,
		&c.Status,
		&c.QRCode,
		&expiry,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.VisitDate = domain.DateOf(visitDate)
	c.ExpiryDate = domain.DateOf(expiry)
	return &c, nil
}

func isTokenViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return strings.Contains(pgErr.ConstraintName, "token")
}
