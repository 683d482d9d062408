package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/poofware/locshare-service/internal/models"
)

type GroupRepository interface {
	// Create inserts the group and links every listed fingerprint that is
	// a registered identity. Unregistered fingerprints are skipped.
	Create(ctx context.Context, g *models.Group, memberFingerprints []string) error
	// GetByID returns nil, nil if the group does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	ListByMember(ctx context.Context, fingerprint string) ([]*models.Group, error)
	IsMember(ctx context.Context, groupID uuid.UUID, fingerprint string) (bool, error)
	// MemberGroupIDs returns which of groupIDs the fingerprint belongs to.
	MemberGroupIDs(ctx context.Context, fingerprint string, groupIDs []uuid.UUID) ([]uuid.UUID, error)
	// AddMembers links all fingerprints in one transaction; existing
	// memberships are left as they are.
	AddMembers(ctx context.Context, groupID uuid.UUID, fingerprints []string) error
}

type groupRepo struct {
	db DB
}

func NewGroupRepository(db DB) GroupRepository {
	return &groupRepo{db: db}
}

const insertMembers = `
    INSERT INTO group_members (group_id, identity_fingerprint)
    SELECT $1, fingerprint FROM identities WHERE fingerprint = ANY($2::text[])
    ON CONFLICT (group_id, identity_fingerprint) DO NOTHING
`

func (r *groupRepo) Create(ctx context.Context, g *models.Group, memberFingerprints []string) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO groups (id, name) VALUES ($1, $2) RETURNING created_at`,
			g.ID, g.Name,
		)
		if err := row.Scan(&g.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertMembers, g.ID, memberFingerprints); err != nil {
			return err
		}
		members, err := loadMembers(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		g.Members = members
		return nil
	})
}

func (r *groupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var g models.Group
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	g.Members, err = loadMembers(ctx, r.db, g.ID)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepo) ListByMember(ctx context.Context, fingerprint string) ([]*models.Group, error) {
	rows, err := r.db.Query(ctx, `
        SELECT g.id, g.name, g.created_at
        FROM groups g
        JOIN group_members gm ON gm.group_id = g.id
        WHERE gm.identity_fingerprint = $1
        ORDER BY g.created_at ASC
    `, fingerprint)
	if err != nil {
		return nil, err
	}

	var groups []*models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		groups = append(groups, &g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, g := range groups {
		if g.Members, err = loadMembers(ctx, r.db, g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *groupRepo) IsMember(ctx context.Context, groupID uuid.UUID, fingerprint string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM group_members
            WHERE group_id = $1 AND identity_fingerprint = $2
        )
    `, groupID, fingerprint).Scan(&exists)
	return exists, err
}

func (r *groupRepo) MemberGroupIDs(ctx context.Context, fingerprint string, groupIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(groupIDs))
	for i, id := range groupIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.Query(ctx, `
        SELECT group_id FROM group_members
        WHERE identity_fingerprint = $1 AND group_id = ANY($2::uuid[])
    `, fingerprint, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *groupRepo) AddMembers(ctx context.Context, groupID uuid.UUID, fingerprints []string) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		// Serialises concurrent additions to the same group.
		var id uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertMembers, groupID, fingerprints)
		return err
	})
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func loadMembers(ctx context.Context, q queryer, groupID uuid.UUID) ([]models.GroupMember, error) {
	rows, err := q.Query(ctx, `
        SELECT i.fingerprint, i.display_name
        FROM group_members gm
        JOIN identities i ON i.fingerprint = gm.identity_fingerprint
        WHERE gm.group_id = $1
        ORDER BY gm.added_at ASC, i.fingerprint ASC
    `, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.GroupMember{}
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.Fingerprint, &m.DisplayName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
