package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
)

// memStore backs every fake repository with one mutex and one clock so
// tests can move time forward and watch expiry take effect.
type memStore struct {
	mu           sync.Mutex
	now          time.Time
	identities   map[string]models.Identity
	attestations map[uuid.UUID]*models.Attestation
	groups       map[uuid.UUID]*memGroup
	groupOrder   []uuid.UUID
	records      []*memRecord
	counters     map[string]*memCounter
}

type memGroup struct {
	name      string
	createdAt time.Time
	members   []string
}

type memRecord struct {
	rec      models.LocationRecord
	groupIDs []uuid.UUID
}

type memCounter struct {
	count     int
	expiresAt time.Time
}

func newMemStore() *memStore {
	return &memStore{
		now:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		identities:   make(map[string]models.Identity),
		attestations: make(map[uuid.UUID]*models.Attestation),
		groups:       make(map[uuid.UUID]*memGroup),
		counters:     make(map[string]*memCounter),
	}
}

func (m *memStore) clock() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *memStore) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *memStore) attestation(challenge string) *models.Attestation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attestations {
		if a.Challenge == challenge {
			cp := *a
			return &cp
		}
	}
	return nil
}

func (m *memStore) groupView(id uuid.UUID) *models.Group {
	g, ok := m.groups[id]
	if !ok {
		return nil
	}
	out := &models.Group{ID: id, Name: g.name, CreatedAt: g.createdAt, Members: []models.GroupMember{}}
	for _, fp := range g.members {
		out.Members = append(out.Members, models.GroupMember{Fingerprint: fp, DisplayName: m.identities[fp].DisplayName})
	}
	return out
}

func (m *memStore) isMember(id uuid.UUID, fp string) bool {
	g, ok := m.groups[id]
	if !ok {
		return false
	}
	for _, member := range g.members {
		if member == fp {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------
// Identities
// ---------------------------------------------------------------------
type fakeIdentityRepo struct{ *memStore }

func (r fakeIdentityRepo) Create(_ context.Context, i *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.identities[i.Fingerprint]; ok {
		return utils.ErrIdentityExists
	}
	i.CreatedAt = r.now
	r.identities[i.Fingerprint] = *i
	return nil
}

func (r fakeIdentityRepo) GetByFingerprint(_ context.Context, fp string) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.identities[fp]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r fakeIdentityRepo) FindExisting(_ context.Context, fps []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, fp := range fps {
		if _, ok := r.identities[fp]; ok {
			out = append(out, fp)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------
// Attestations
// ---------------------------------------------------------------------
type fakeAttestationRepo struct{ *memStore }

func (r fakeAttestationRepo) CreatePending(_ context.Context, a *models.Attestation, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.CreatedAt = r.now
	a.ExpiresAt = r.now.Add(ttl)
	cp := *a
	r.attestations[a.ID] = &cp
	return nil
}

func (r fakeAttestationRepo) GetPendingByChallenge(_ context.Context, challenge string) (*models.Attestation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attestations {
		if a.Challenge == challenge && !a.Verified && !a.Fulfilled && r.now.Before(a.ExpiresAt) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeAttestationRepo) Fulfill(_ context.Context, id uuid.UUID, hash string, ttl time.Duration) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attestations[id]
	if !ok || a.Verified || a.Fulfilled || !r.now.Before(a.ExpiresAt) {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	a.Verified = true
	a.Fulfilled = true
	a.AuthToken = &hash
	a.ExpiresAt = r.now.Add(ttl)
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r fakeAttestationRepo) GetActiveByTokenHash(_ context.Context, hash string) (*models.Attestation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attestations {
		if a.AuthToken != nil && *a.AuthToken == hash && a.Verified && a.Fulfilled && r.now.Before(a.ExpiresAt) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeAttestationRepo) CleanupExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.attestations {
		if !a.ExpiresAt.After(r.now) {
			delete(r.attestations, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------
type fakeGroupRepo struct{ *memStore }

func (r fakeGroupRepo) Create(_ context.Context, g *models.Group, fps []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mg := &memGroup{name: g.Name, createdAt: r.now}
	for _, fp := range fps {
		if _, ok := r.identities[fp]; ok {
			mg.members = append(mg.members, fp)
		}
	}
	r.groups[g.ID] = mg
	r.groupOrder = append(r.groupOrder, g.ID)
	*g = *r.groupView(g.ID)
	return nil
}

func (r fakeGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.groupView(id), nil
}

func (r fakeGroupRepo) ListByMember(_ context.Context, fp string) ([]*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Group
	for _, id := range r.groupOrder {
		if r.isMember(id, fp) {
			out = append(out, r.groupView(id))
		}
	}
	return out, nil
}

func (r fakeGroupRepo) IsMember(_ context.Context, id uuid.UUID, fp string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isMember(id, fp), nil
}

func (r fakeGroupRepo) MemberGroupIDs(_ context.Context, fp string, ids []uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, id := range ids {
		if r.isMember(id, fp) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r fakeGroupRepo) AddMembers(_ context.Context, id uuid.UUID, fps []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return utils.ErrGroupNotFound
	}
	for _, fp := range fps {
		if _, ok := r.identities[fp]; !ok {
			continue
		}
		if !r.isMember(id, fp) {
			g.members = append(g.members, fp)
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Location records
// ---------------------------------------------------------------------
type fakeLocationRepo struct{ *memStore }

func (r fakeLocationRepo) Create(_ context.Context, rec *models.LocationRecord, ids []uuid.UUID, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.CreatedAt = r.now
	rec.ExpiresAt = r.now.Add(ttl)
	rec.Groups = nil
	for _, id := range ids {
		rec.Groups = append(rec.Groups, models.GroupRef{ID: id, Name: r.groups[id].name})
	}
	r.records = append(r.records, &memRecord{rec: *rec, groupIDs: ids})
	return nil
}

func (r fakeLocationRepo) ListVisible(_ context.Context, requester string, groupID *uuid.UUID) ([]*models.LocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LocationRecord
	for _, mr := range r.records {
		if !r.now.Before(mr.rec.ExpiresAt) {
			continue
		}
		var visible []models.GroupRef
		for _, id := range mr.groupIDs {
			if groupID != nil && id != *groupID {
				continue
			}
			if r.isMember(id, requester) {
				visible = append(visible, models.GroupRef{ID: id, Name: r.groups[id].name})
			}
		}
		if len(visible) == 0 {
			continue
		}
		rec := mr.rec
		rec.SenderName = r.identities[rec.SenderFingerprint].DisplayName
		rec.Groups = visible
		out = append(out, &rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SenderFingerprint != out[j].SenderFingerprint {
			return out[i].SenderFingerprint < out[j].SenderFingerprint
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r fakeLocationRepo) CleanupExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, mr := range r.records {
		if mr.rec.ExpiresAt.After(r.now) {
			kept = append(kept, mr)
		}
	}
	n := int64(len(r.records) - len(kept))
	r.records = kept
	return n, nil
}

// ---------------------------------------------------------------------
// Rate limit counters
// ---------------------------------------------------------------------
type fakeRateLimitRepo struct{ *memStore }

func (r fakeRateLimitRepo) Hit(_ context.Context, key string, window time.Duration) (repositories.RateWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[key]
	if !ok || !c.expiresAt.After(r.now) {
		c = &memCounter{expiresAt: r.now.Add(window)}
		r.counters[key] = c
	}
	c.count++
	return repositories.RateWindow{Count: c.count, ResetAt: c.expiresAt}, nil
}

func (r fakeRateLimitRepo) CleanupExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, c := range r.counters {
		if !c.expiresAt.After(r.now) {
			delete(r.counters, k)
			n++
		}
	}
	return n, nil
}
