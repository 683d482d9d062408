package models

import (
	"time"

	"github.com/google/uuid"
)

type GroupRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LocationRecord is an opaque ciphertext published by one identity to one or
// more groups. It stops being visible at ExpiresAt.
type LocationRecord struct {
	ID                uuid.UUID  `json:"id"`
	SenderFingerprint string     `json:"sender_fingerprint"`
	SenderName        string     `json:"sender_name"`
	Ciphertext        string     `json:"ciphertext"`
	Groups            []GroupRef `json:"groups"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
}
