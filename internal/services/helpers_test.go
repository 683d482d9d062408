package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/poofware/locshare-service/internal/config"
	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/pgp"
	"github.com/poofware/locshare-service/internal/utils"
	"github.com/stretchr/testify/require"
)

const testIP = "198.51.100.10"

type fixture struct {
	store      *memStore
	cfg        *config.Config
	identities IdentityService
	attest     AttestationService
	sessions   SessionService
	groups     GroupService
	locations  LocationService
	limiter    RateLimiterService
	cleanup    CleanupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	cfg := config.Defaults()

	identityRepo := fakeIdentityRepo{store}
	attestationRepo := fakeAttestationRepo{store}
	groupRepo := fakeGroupRepo{store}
	locationRepo := fakeLocationRepo{store}
	rateLimitRepo := fakeRateLimitRepo{store}

	limiter := &rateLimiterService{repo: rateLimitRepo, cfg: cfg, now: store.clock}
	groups := NewGroupService(groupRepo, identityRepo)
	return &fixture{
		store:      store,
		cfg:        cfg,
		identities: NewIdentityService(identityRepo, cfg),
		attest:     NewAttestationService(identityRepo, attestationRepo, limiter, cfg),
		sessions:   NewSessionService(identityRepo, attestationRepo),
		groups:     groups,
		locations:  NewLocationService(locationRepo, groups, cfg),
		limiter:    limiter,
		cleanup:    NewCleanupService(attestationRepo, locationRepo, rateLimitRepo),
	}
}

type user struct {
	entity      *openpgp.Entity
	fingerprint string
}

func (f *fixture) register(t *testing.T, name string) user {
	t.Helper()
	e, err := pgp.GenerateKey(name, "")
	require.NoError(t, err)
	armored, err := pgp.ArmorPublic(e)
	require.NoError(t, err)

	identity, err := f.identities.Register(context.Background(), armored)
	require.NoError(t, err)
	require.Equal(t, pgp.Fingerprint(e), identity.Fingerprint)
	return user{entity: e, fingerprint: identity.Fingerprint}
}

// login runs the whole challenge-response cycle and returns the decrypted
// bearer secret.
func (f *fixture) login(t *testing.T, u user) string {
	t.Helper()
	ctx := context.Background()

	challenge, err := f.attest.IssueChallenge(ctx, u.fingerprint, testIP)
	require.NoError(t, err)
	signed, err := pgp.ClearSign(u.entity, challenge)
	require.NoError(t, err)

	encrypted, err := f.attest.SubmitAttestation(ctx, signed, testIP)
	require.NoError(t, err)
	return decryptBearer(t, u, encrypted)
}

func decryptBearer(t *testing.T, u user, encrypted string) string {
	t.Helper()
	plain, err := pgp.Decrypt(u.entity, encrypted)
	require.NoError(t, err)
	var payload dtos.BearerPayload
	require.NoError(t, json.Unmarshal(plain, &payload))
	require.Len(t, payload.Token, utils.BearerSecretLength)
	return payload.Token
}

func requireAppError(t *testing.T, err error, status int, code string) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.StatusCode)
	require.Equal(t, code, appErr.Code)
	return appErr
}
