package models

import (
	"time"

	"github.com/google/uuid"
)

type AttestationType string

const (
	AttestationTypeSession AttestationType = "SESSION"
)

// Attestation tracks one challenge-response cycle. AuthToken holds the hash
// of the bearer secret once the challenge has been answered; the secret
// itself is never stored.
type Attestation struct {
	ID                  uuid.UUID       `json:"id"`
	IdentityFingerprint string          `json:"identity_fingerprint"`
	Challenge           string          `json:"challenge"`
	Type                AttestationType `json:"type"`
	Verified            bool            `json:"verified"`
	Fulfilled           bool            `json:"fulfilled"`
	AuthToken           *string         `json:"-"`
	ExpiresAt           time.Time       `json:"expires_at"`
	CreatedAt           time.Time       `json:"created_at"`
}

func (a *Attestation) IsExpired() bool {
	return !time.Now().Before(a.ExpiresAt)
}

// IsPending reports whether the challenge can still be answered.
func (a *Attestation) IsPending() bool {
	return !a.Verified && !a.Fulfilled && !a.IsExpired()
}
