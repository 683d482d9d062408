package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/utils"
)

type IdentityRepository interface {
	// Create returns utils.ErrIdentityExists if the fingerprint is taken.
	Create(ctx context.Context, identity *models.Identity) error
	// GetByFingerprint returns nil, nil when no identity matches.
	GetByFingerprint(ctx context.Context, fingerprint string) (*models.Identity, error)
	// FindExisting returns the subset of fingerprints that are registered.
	FindExisting(ctx context.Context, fingerprints []string) ([]string, error)
}

type identityRepo struct {
	db     DB
	encKey []byte
}

func NewIdentityRepository(db DB, key []byte) IdentityRepository {
	return &identityRepo{db: db, encKey: key}
}

func (r *identityRepo) Create(ctx context.Context, identity *models.Identity) error {
	encEmail, err := utils.Encrypt(r.encKey, identity.Email)
	if err != nil {
		return err
	}

	row := r.db.QueryRow(ctx, `
        INSERT INTO identities (fingerprint, display_name, email, public_key)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at
    `,
		identity.Fingerprint, identity.DisplayName, encEmail, identity.PublicKey,
	)
	if err := row.Scan(&identity.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return utils.ErrIdentityExists
		}
		return err
	}
	return nil
}

func (r *identityRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*models.Identity, error) {
	row := r.db.QueryRow(ctx, `
        SELECT fingerprint, display_name, email, public_key, created_at
        FROM identities
        WHERE fingerprint = $1
    `, fingerprint)

	var i models.Identity
	var encEmail string
	if err := row.Scan(&i.Fingerprint, &i.DisplayName, &encEmail, &i.PublicKey, &i.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	email, err := utils.Decrypt(r.encKey, encEmail)
	if err != nil {
		return nil, err
	}
	i.Email = email
	return &i, nil
}

func (r *identityRepo) FindExisting(ctx context.Context, fingerprints []string) ([]string, error) {
	if len(fingerprints) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT fingerprint FROM identities WHERE fingerprint = ANY($1::text[])`,
		fingerprints,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		found = append(found, fp)
	}
	return found, rows.Err()
}
