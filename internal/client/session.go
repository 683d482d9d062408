package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/pgp"
)

// Login proves possession of e's private key and stores the resulting
// bearer secret on c.
func (c *API) Login(ctx context.Context, e *openpgp.Entity) (string, error) {
	challenge, err := c.RequestChallenge(ctx, pgp.Fingerprint(e))
	if err != nil {
		return "", fmt.Errorf("request challenge: %w", err)
	}

	signed, err := pgp.ClearSign(e, challenge)
	if err != nil {
		return "", fmt.Errorf("sign challenge: %w", err)
	}

	encrypted, err := c.SubmitAttestation(ctx, signed)
	if err != nil {
		return "", fmt.Errorf("submit attestation: %w", err)
	}

	plain, err := pgp.Decrypt(e, encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt bearer secret: %w", err)
	}
	var payload dtos.BearerPayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return "", fmt.Errorf("decode bearer secret: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("decode bearer secret: empty token")
	}

	c.Bearer = payload.Token
	return payload.Token, nil
}
