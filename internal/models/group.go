package models

import (
	"time"

	"github.com/google/uuid"
)

type GroupMember struct {
	Fingerprint string `json:"fingerprint"`
	DisplayName string `json:"display_name"`
}

// Group is a named set of identities that can see each other's location
// updates. Membership only grows.
type Group struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Members   []GroupMember `json:"members"`
	CreatedAt time.Time     `json:"created_at"`
}

func (g *Group) HasMember(fingerprint string) bool {
	for _, m := range g.Members {
		if m.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}
