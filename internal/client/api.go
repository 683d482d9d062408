package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/utils"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from the service's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%d %s: %s (%v)", e.Status, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// API is a thin JSON client for /api/v1. Bearer is sent on every request
// once set.
type API struct {
	Base   string
	HTTP   *http.Client
	Bearer string
}

func NewAPI(base string) *API {
	return &API{Base: base, HTTP: &http.Client{Timeout: defaultTimeout}}
}

func (c *API) Register(ctx context.Context, armoredPublicKey string) (string, error) {
	var out dtos.RegisterIdentityResponse
	err := c.do(ctx, http.MethodPost, "/identities", dtos.RegisterIdentityRequest{PublicKey: armoredPublicKey}, &out)
	return out.Fingerprint, err
}

func (c *API) PublicKey(ctx context.Context, fingerprint string) (*dtos.IdentityResponse, error) {
	var out dtos.IdentityResponse
	if err := c.do(ctx, http.MethodGet, "/identities/"+url.PathEscape(fingerprint), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) RequestChallenge(ctx context.Context, fingerprint string) (string, error) {
	var out dtos.ChallengeResponse
	err := c.do(ctx, http.MethodPost, "/challenges", dtos.ChallengeRequest{Fingerprint: fingerprint}, &out)
	return out.Challenge, err
}

func (c *API) SubmitAttestation(ctx context.Context, signed string) (string, error) {
	var out dtos.AttestationResponse
	err := c.do(ctx, http.MethodPost, "/attestations", dtos.AttestationRequest{SignedChallengeMessage: signed}, &out)
	return out.EncryptedBearerSecret, err
}

func (c *API) CreateGroup(ctx context.Context, name string, members []string) (*dtos.GroupResponse, error) {
	var out dtos.GroupResponse
	if err := c.do(ctx, http.MethodPost, "/groups", dtos.CreateGroupRequest{Name: name, MemberFingerprints: members}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) ListGroups(ctx context.Context) ([]dtos.GroupResponse, error) {
	var out []dtos.GroupResponse
	err := c.do(ctx, http.MethodGet, "/groups", nil, &out)
	return out, err
}

func (c *API) AddMembers(ctx context.Context, groupID string, members []string) (*dtos.GroupResponse, error) {
	var out dtos.GroupResponse
	req := dtos.AddMembersRequest{GroupID: groupID, NewMemberFingerprints: members}
	if err := c.do(ctx, http.MethodPatch, "/groups", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) PostLocation(ctx context.Context, ciphertext string, groupIDs []string) (*dtos.LocationRecordResponse, error) {
	var out dtos.LocationRecordResponse
	req := dtos.PublishLocationRequest{Ciphertext: ciphertext, GroupIDs: groupIDs}
	if err := c.do(ctx, http.MethodPost, "/locations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLocations lists visible records. limit <= 0 leaves the server default;
// an empty groupID means every shared group.
func (c *API) GetLocations(ctx context.Context, limit int, groupID string) ([]dtos.LocationRecordResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if groupID != "" {
		q.Set("groupId", groupID)
	}
	path := "/locations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []dtos.LocationRecordResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *API) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+"/api/v1"+path, &body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e utils.ErrorResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&e); decErr != nil || e.Code == "" {
			return &APIError{Status: resp.StatusCode, Code: "http_error", Message: resp.Status}
		}
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Message, Details: e.Details}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
