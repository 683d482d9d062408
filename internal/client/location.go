package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/pgp"
)

// Location is the plaintext a device shares. It is only ever serialised
// inside an OpenPGP message.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AccuracyM  float64   `json:"accuracyM,omitempty"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", l.Longitude)
	}
	return nil
}

// SharedLocation is a fetched record after local decryption. Err is set
// when this key cannot open the record, e.g. one published before the
// holder joined the group.
type SharedLocation struct {
	Record   dtos.LocationRecordResponse
	Location *Location
	Err      error
}

// Publish encrypts loc to every current member of groupIDs and posts it.
// The caller must already be logged in.
func (c *API) Publish(ctx context.Context, loc Location, groupIDs []string) (*dtos.LocationRecordResponse, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	recipients, err := c.recipients(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	plain, err := json.Marshal(loc)
	if err != nil {
		return nil, err
	}
	ciphertext, err := pgp.Encrypt(recipients, plain)
	if err != nil {
		return nil, fmt.Errorf("encrypt location: %w", err)
	}
	return c.PostLocation(ctx, ciphertext, groupIDs)
}

// Fetch lists visible records and decrypts each with e.
func (c *API) Fetch(ctx context.Context, e *openpgp.Entity, limit int, groupID string) ([]SharedLocation, error) {
	records, err := c.GetLocations(ctx, limit, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]SharedLocation, 0, len(records))
	for _, rec := range records {
		out = append(out, open(e, rec))
	}
	return out, nil
}

func open(e *openpgp.Entity, rec dtos.LocationRecordResponse) SharedLocation {
	plain, err := pgp.Decrypt(e, rec.Ciphertext)
	if err != nil {
		return SharedLocation{Record: rec, Err: err}
	}
	var loc Location
	if err := json.Unmarshal(plain, &loc); err != nil {
		return SharedLocation{Record: rec, Err: fmt.Errorf("decode location: %w", err)}
	}
	return SharedLocation{Record: rec, Location: &loc}
}

// recipients resolves the public keys of every member of groupIDs. Each
// fingerprint is fetched once even when it appears in several groups.
func (c *API) recipients(ctx context.Context, groupIDs []string) ([]*openpgp.Entity, error) {
	groups, err := c.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]dtos.GroupResponse, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	seen := make(map[string]bool)
	var entities []*openpgp.Entity
	for _, id := range groupIDs {
		g, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("not a member of group %s", id)
		}
		for _, m := range g.Members {
			if seen[m.Fingerprint] {
				continue
			}
			seen[m.Fingerprint] = true

			identity, err := c.PublicKey(ctx, m.Fingerprint)
			if err != nil {
				return nil, fmt.Errorf("fetch key for %s: %w", m.Fingerprint, err)
			}
			key, err := pgp.ParsePublicKey(identity.PublicKey)
			if err != nil {
				return nil, fmt.Errorf("parse key for %s: %w", m.Fingerprint, err)
			}
			if key.Fingerprint != m.Fingerprint {
				return nil, fmt.Errorf("key served for %s has fingerprint %s", m.Fingerprint, key.Fingerprint)
			}
			entities = append(entities, key.Entity)
		}
	}
	return entities, nil
}
