package models

import "time"

// Identity is a registered OpenPGP public key. Fingerprint is the uppercase
// hex key ID and never changes once created.
type Identity struct {
	Fingerprint string    `json:"fingerprint"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"` // stored encrypted
	PublicKey   string    `json:"public_key"`
	CreatedAt   time.Time `json:"created_at"`
}
