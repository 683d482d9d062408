package pgp

import (
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/poofware/locshare-service/internal/utils"
)

// PublicKey is a validated identity key.
type PublicKey struct {
	Entity      *openpgp.Entity
	Fingerprint string
	Name        string
	Email       string
}

// ParsePublicKey accepts exactly one armored, unrevoked public key. Anything
// else, including an armored private key, fails with
// utils.ErrInvalidKeyMaterial.
func ParsePublicKey(armored string) (*PublicKey, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armored))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidKeyMaterial, err)
	}
	if len(entities) != 1 {
		return nil, fmt.Errorf("%w: expected one key, got %d", utils.ErrInvalidKeyMaterial, len(entities))
	}

	e := entities[0]
	if e.PrivateKey != nil {
		return nil, fmt.Errorf("%w: private key material supplied", utils.ErrInvalidKeyMaterial)
	}
	if len(e.Revocations) > 0 {
		return nil, fmt.Errorf("%w: key is revoked", utils.ErrInvalidKeyMaterial)
	}

	key := &PublicKey{Entity: e, Fingerprint: Fingerprint(e)}
	if id := e.PrimaryIdentity(); id != nil && id.UserId != nil {
		key.Name = id.UserId.Name
		key.Email = id.UserId.Email
	}
	return key, nil
}

// Fingerprint is the canonical identity handle: the primary key ID as
// uppercase hex.
func Fingerprint(e *openpgp.Entity) string {
	return strings.ToUpper(e.PrimaryKey.KeyIdString())
}

// NormalizeFingerprint trims and upper-cases a fingerprint supplied by a
// client so lookups match the stored form.
func NormalizeFingerprint(fp string) string {
	return strings.ToUpper(strings.TrimSpace(fp))
}
