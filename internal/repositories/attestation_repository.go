package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/locshare-service/internal/models"
)

// AttestationRepository stores challenge-response cycles. Expiry is always
// computed and compared with the database clock.
type AttestationRepository interface {
	// CreatePending inserts a fresh challenge expiring ttl from now and
	// fills in ExpiresAt and CreatedAt.
	CreatePending(ctx context.Context, a *models.Attestation, ttl time.Duration) error
	// GetPendingByChallenge returns nil, nil unless an unverified,
	// unfulfilled, unexpired attestation carries exactly this challenge.
	GetPendingByChallenge(ctx context.Context, challenge string) (*models.Attestation, error)
	// Fulfill moves a pending attestation to verified+fulfilled with the
	// given token hash and a new expiry. It only touches rows that are
	// still pending, so a zero RowsAffected means the challenge was lost.
	Fulfill(ctx context.Context, id uuid.UUID, tokenHash string, ttl time.Duration) (pgconn.CommandTag, error)
	// GetActiveByTokenHash returns nil, nil unless a verified, fulfilled,
	// unexpired attestation carries this token hash.
	GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.Attestation, error)
	// CleanupExpired deletes every attestation past its expiry and reports
	// how many went.
	CleanupExpired(ctx context.Context) (int64, error)
}

type attestationRepo struct {
	db DB
}

func NewAttestationRepository(db DB) AttestationRepository {
	return &attestationRepo{db: db}
}

const baseSelectAttestation = `
    SELECT id, identity_fingerprint, challenge, type, verified, fulfilled,
           auth_token, expires_at, created_at
    FROM attestations
`

func (r *attestationRepo) CreatePending(ctx context.Context, a *models.Attestation, ttl time.Duration) error {
	row := r.db.QueryRow(ctx, `
        INSERT INTO attestations (id, identity_fingerprint, challenge, type, expires_at)
        VALUES ($1, $2, $3, $4, NOW() + $5::interval)
        RETURNING expires_at, created_at
    `,
		a.ID, a.IdentityFingerprint, a.Challenge, string(a.Type), ttl,
	)
	return row.Scan(&a.ExpiresAt, &a.CreatedAt)
}

func (r *attestationRepo) GetPendingByChallenge(ctx context.Context, challenge string) (*models.Attestation, error) {
	row := r.db.QueryRow(ctx, baseSelectAttestation+`
        WHERE challenge = $1
          AND verified = FALSE
          AND fulfilled = FALSE
          AND expires_at > NOW()
    `, challenge)
	return scanAttestation(row)
}

func (r *attestationRepo) Fulfill(ctx context.Context, id uuid.UUID, tokenHash string, ttl time.Duration) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE attestations
        SET verified = TRUE,
            fulfilled = TRUE,
            auth_token = $2,
            expires_at = NOW() + $3::interval
        WHERE id = $1
          AND verified = FALSE
          AND fulfilled = FALSE
          AND expires_at > NOW()
    `, id, tokenHash, ttl)
}

func (r *attestationRepo) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.Attestation, error) {
	row := r.db.QueryRow(ctx, baseSelectAttestation+`
        WHERE auth_token = $1
          AND verified = TRUE
          AND fulfilled = TRUE
          AND expires_at > NOW()
        ORDER BY expires_at DESC
        LIMIT 1
    `, tokenHash)
	return scanAttestation(row)
}

func (r *attestationRepo) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM attestations WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAttestation(row pgx.Row) (*models.Attestation, error) {
	var a models.Attestation
	var typ string
	var authToken pgtype.Text

	err := row.Scan(
		&a.ID, &a.IdentityFingerprint, &a.Challenge, &typ, &a.Verified, &a.Fulfilled,
		&authToken, &a.ExpiresAt, &a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	a.Type = models.AttestationType(typ)
	if authToken.Status == pgtype.Present {
		a.AuthToken = &authToken.String
	}
	return &a, nil
}
