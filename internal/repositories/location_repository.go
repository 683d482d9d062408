package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/locshare-service/internal/models"
)

type LocationRepository interface {
	// Create stores the record expiring ttl from now and links it to every
	// group in groupIDs.
	Create(ctx context.Context, rec *models.LocationRecord, groupIDs []uuid.UUID, ttl time.Duration) error
	// ListVisible returns every unexpired record published to a group the
	// requester belongs to, restricted to groupID when it is non-nil,
	// ordered by sender ascending then newest first. Groups on each record
	// only include groups the requester can see.
	ListVisible(ctx context.Context, requester string, groupID *uuid.UUID) ([]*models.LocationRecord, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type locationRepo struct {
	db DB
}

func NewLocationRepository(db DB) LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) Create(ctx context.Context, rec *models.LocationRecord, groupIDs []uuid.UUID, ttl time.Duration) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            INSERT INTO location_records (id, sender_fingerprint, ciphertext, expires_at)
            VALUES ($1, $2, $3, NOW() + $4::interval)
            RETURNING created_at, expires_at
        `, rec.ID, rec.SenderFingerprint, rec.Ciphertext, ttl)
		if err := row.Scan(&rec.CreatedAt, &rec.ExpiresAt); err != nil {
			return err
		}

		rec.Groups = rec.Groups[:0]
		for _, gid := range groupIDs {
			var ref models.GroupRef
			err := tx.QueryRow(ctx, `
                WITH linked AS (
                    INSERT INTO location_record_groups (location_record_id, group_id)
                    VALUES ($1, $2)
                    ON CONFLICT DO NOTHING
                )
                SELECT id, name FROM groups WHERE id = $2
            `, rec.ID, gid).Scan(&ref.ID, &ref.Name)
			if err != nil {
				return err
			}
			rec.Groups = append(rec.Groups, ref)
		}
		return nil
	})
}

func (r *locationRepo) ListVisible(ctx context.Context, requester string, groupID *uuid.UUID) ([]*models.LocationRecord, error) {
	filter := pgtype.UUID{Status: pgtype.Null}
	if groupID != nil {
		filter = pgtype.UUID{Bytes: *groupID, Status: pgtype.Present}
	}

	rows, err := r.db.Query(ctx, `
        SELECT lr.id, lr.sender_fingerprint, i.display_name, lr.ciphertext,
               lr.created_at, lr.expires_at, g.id, g.name
        FROM location_records lr
        JOIN identities i ON i.fingerprint = lr.sender_fingerprint
        JOIN location_record_groups lrg ON lrg.location_record_id = lr.id
        JOIN group_members gm ON gm.group_id = lrg.group_id AND gm.identity_fingerprint = $1
        JOIN groups g ON g.id = lrg.group_id
        WHERE lr.expires_at > NOW()
          AND ($2::uuid IS NULL OR lrg.group_id = $2::uuid)
        ORDER BY lr.sender_fingerprint ASC, lr.created_at DESC, lr.id ASC, g.name ASC
    `, requester, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LocationRecord
	byID := make(map[uuid.UUID]*models.LocationRecord)
	for rows.Next() {
		var rec models.LocationRecord
		var ref models.GroupRef
		if err := rows.Scan(
			&rec.ID, &rec.SenderFingerprint, &rec.SenderName, &rec.Ciphertext,
			&rec.CreatedAt, &rec.ExpiresAt, &ref.ID, &ref.Name,
		); err != nil {
			return nil, err
		}
		if existing, ok := byID[rec.ID]; ok {
			existing.Groups = append(existing.Groups, ref)
			continue
		}
		rec.Groups = []models.GroupRef{ref}
		byID[rec.ID] = &rec
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *locationRepo) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM location_records WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
