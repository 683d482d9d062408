package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poofware/locshare-service/internal/controllers"
	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/utils"
	"github.com/stretchr/testify/require"
)

const (
	aliceFP     = "AAAAAAAAAAAAAAAA"
	aliceBearer = "alice-bearer"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubSessions struct{}

func (stubSessions) Resolve(_ context.Context, bearer string) (*models.Identity, error) {
	if bearer == aliceBearer {
		return &models.Identity{Fingerprint: aliceFP, DisplayName: "Alice"}, nil
	}
	return nil, utils.NewAppError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unauthorized", utils.ErrUnauthenticated)
}

type stubIdentities struct{}

func (stubIdentities) Register(_ context.Context, key string) (*models.Identity, error) {
	if key == "garbage" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidKeyMaterial, "Invalid public key", utils.ErrInvalidKeyMaterial)
	}
	return &models.Identity{Fingerprint: aliceFP}, nil
}

func (stubIdentities) GetPublicKey(_ context.Context, fp string) (*models.Identity, error) {
	if fp != aliceFP {
		return nil, utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, "Identity not found", utils.ErrIdentityNotFound)
	}
	return &models.Identity{Fingerprint: aliceFP, DisplayName: "Alice", PublicKey: "KEY"}, nil
}

type stubAttestations struct{ lastIP string }

func (s *stubAttestations) IssueChallenge(_ context.Context, fp, ip string) (string, error) {
	s.lastIP = ip
	return "challenge-for-" + fp, nil
}

func (s *stubAttestations) SubmitAttestation(_ context.Context, msg, _ string) (string, error) {
	if msg == "bad" {
		return "", utils.NewAppError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Signature verification failed", utils.ErrSignatureVerificationFailed)
	}
	return "ENCRYPTED", nil
}

type stubGroups struct {
	lastCreator string
	lastAdd     uuid.UUID
}

func (s *stubGroups) CreateGroup(_ context.Context, creator, name string, _ []string) (*models.Group, error) {
	s.lastCreator = creator
	return &models.Group{ID: uuid.New(), Name: name, Members: []models.GroupMember{{Fingerprint: creator}}}, nil
}

func (s *stubGroups) ListGroups(context.Context, string) ([]*models.Group, error) {
	return []*models.Group{}, nil
}

func (s *stubGroups) AddMembers(_ context.Context, _ string, id uuid.UUID, _ []string) (*models.Group, error) {
	s.lastAdd = id
	return &models.Group{ID: id, Name: "g"}, nil
}

func (s *stubGroups) RequireMembership(context.Context, string, []uuid.UUID) error { return nil }

type stubLocations struct {
	lastLimit int
	lastGroup *uuid.UUID
}

func (s *stubLocations) PublishUpdate(_ context.Context, sender, ct string, ids []uuid.UUID) (*models.LocationRecord, error) {
	return &models.LocationRecord{
		ID:                uuid.New(),
		SenderFingerprint: sender,
		Ciphertext:        ct,
		Groups:            []models.GroupRef{{ID: ids[0], Name: "g"}},
		CreatedAt:         time.Now(),
		ExpiresAt:         time.Now().Add(time.Hour),
	}, nil
}

func (s *stubLocations) FetchUpdates(_ context.Context, _ string, limit int, groupID *uuid.UUID) ([]*models.LocationRecord, error) {
	if limit < utils.MinFetchLimit || limit > utils.MaxFetchLimit {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidLimit, "Limit must be between 1 and 100", utils.ErrInvalidLimit)
	}
	s.lastLimit = limit
	s.lastGroup = groupID
	return []*models.LocationRecord{}, nil
}

type harness struct {
	handler      http.Handler
	attestations *stubAttestations
	groups       *stubGroups
	locations    *stubLocations
}

func newHarness(pingErr error) *harness {
	h := &harness{
		attestations: &stubAttestations{},
		groups:       &stubGroups{},
		locations:    &stubLocations{},
	}
	h.handler = NewRouter(Controllers{
		Health:      controllers.NewHealthController(stubPinger{err: pingErr}),
		Identity:    controllers.NewIdentityController(stubIdentities{}),
		Attestation: controllers.NewAttestationController(h.attestations),
		Group:       controllers.NewGroupController(h.groups),
		Location:    controllers.NewLocationController(h.locations),
	}, stubSessions{})
	return h
}

func (h *harness) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	rr := newHarness(nil).do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = newHarness(errors.New("down")).do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestPublicRoutesNeedNoBearer(t *testing.T) {
	h := newHarness(nil)

	rr := h.do(http.MethodPost, "/api/v1/identities", `{"publicKey":"KEY"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var reg dtos.RegisterIdentityResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reg))
	require.True(t, reg.Success)
	require.Equal(t, aliceFP, reg.Fingerprint)

	rr = h.do(http.MethodPost, "/api/v1/challenges", `{"fingerprint":"`+aliceFP+`"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var ch dtos.ChallengeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ch))
	require.Equal(t, "challenge-for-"+aliceFP, ch.Challenge)
	require.NotEmpty(t, h.attestations.lastIP)

	rr = h.do(http.MethodPost, "/api/v1/attestations", `{"signedChallengeMessage":"ok"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var att dtos.AttestationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &att))
	require.Equal(t, "ENCRYPTED", att.EncryptedBearerSecret)
}

func TestPayloadErrors(t *testing.T) {
	h := newHarness(nil)

	rr := h.do(http.MethodPost, "/api/v1/identities", `{not json`, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, utils.ErrCodeInvalidPayload, decodeError(t, rr).Code)

	rr = h.do(http.MethodPost, "/api/v1/identities", `{}`, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, utils.ErrCodeValidation, decodeError(t, rr).Code)

	rr = h.do(http.MethodPost, "/api/v1/identities", `{"publicKey":"garbage"}`, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, utils.ErrCodeInvalidKeyMaterial, decodeError(t, rr).Code)

	rr = h.do(http.MethodPost, "/api/v1/attestations", `{"signedChallengeMessage":"bad"}`, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	h := newHarness(nil)
	cases := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/identities/" + aliceFP, ""},
		{http.MethodPost, "/api/v1/groups", `{"name":"g"}`},
		{http.MethodGet, "/api/v1/groups", ""},
		{http.MethodPatch, "/api/v1/groups", `{"groupId":"` + uuid.NewString() + `","newMemberFingerprints":[]}`},
		{http.MethodPost, "/api/v1/locations", `{"ciphertext":"x","groupIds":["` + uuid.NewString() + `"]}`},
		{http.MethodGet, "/api/v1/locations", ""},
	}
	for _, tc := range cases {
		for _, bearer := range []string{"", "wrong"} {
			rr := h.do(tc.method, tc.path, tc.body, bearer)
			require.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s bearer=%q", tc.method, tc.path, bearer)
			body := decodeError(t, rr)
			require.Equal(t, utils.ErrCodeUnauthorized, body.Code)
			require.Nil(t, body.Details)
		}
	}
}

func TestGroupRoutes(t *testing.T) {
	h := newHarness(nil)

	rr := h.do(http.MethodPost, "/api/v1/groups", `{"name":"family","memberFingerprints":["B"]}`, aliceBearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, aliceFP, h.groups.lastCreator)
	var g dtos.GroupResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))
	require.Equal(t, "family", g.Name)

	rr = h.do(http.MethodGet, "/api/v1/groups", "", aliceBearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())

	id := uuid.New()
	rr = h.do(http.MethodPatch, "/api/v1/groups", `{"groupId":"`+id.String()+`","newMemberFingerprints":["B"]}`, aliceBearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, id, h.groups.lastAdd)

	rr = h.do(http.MethodPatch, "/api/v1/groups", `{"groupId":"nope","newMemberFingerprints":["B"]}`, aliceBearer)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLocationRoutes(t *testing.T) {
	h := newHarness(nil)
	gid := uuid.New()

	rr := h.do(http.MethodPost, "/api/v1/locations", `{"ciphertext":"CT","groupIds":["`+gid.String()+`"]}`, aliceBearer)
	require.Equal(t, http.StatusOK, rr.Code)
	var rec dtos.LocationRecordResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	require.Equal(t, aliceFP, rec.SenderFingerprint)
	require.Equal(t, gid.String(), rec.Groups[0].ID)

	rr = h.do(http.MethodPost, "/api/v1/locations", `{"ciphertext":"CT","groupIds":[]}`, aliceBearer)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(http.MethodGet, "/api/v1/locations", "", aliceBearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, utils.DefaultFetchLimit, h.locations.lastLimit)
	require.Nil(t, h.locations.lastGroup)

	rr = h.do(http.MethodGet, "/api/v1/locations?limit=7&groupId="+gid.String(), "", aliceBearer)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 7, h.locations.lastLimit)
	require.Equal(t, gid, *h.locations.lastGroup)

	for _, bad := range []string{"0", "101", "abc"} {
		rr = h.do(http.MethodGet, "/api/v1/locations?limit="+bad, "", aliceBearer)
		require.Equal(t, http.StatusBadRequest, rr.Code, bad)
		require.Equal(t, utils.ErrCodeInvalidLimit, decodeError(t, rr).Code)
	}
}
