package services

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
)

type SessionService interface {
	// Resolve maps a bearer secret to its identity. Malformed, unknown and
	// expired secrets all yield the same 401.
	Resolve(ctx context.Context, bearer string) (*models.Identity, error)
}

type sessionService struct {
	identityRepo    repositories.IdentityRepository
	attestationRepo repositories.AttestationRepository
}

func NewSessionService(
	identityRepo repositories.IdentityRepository,
	attestationRepo repositories.AttestationRepository,
) SessionService {
	return &sessionService{identityRepo: identityRepo, attestationRepo: attestationRepo}
}

func (s *sessionService) Resolve(ctx context.Context, bearer string) (*models.Identity, error) {
	bearer = strings.TrimSpace(bearer)
	if !wellFormedSecret(bearer) {
		return nil, unauthenticated(nil)
	}

	a, err := s.attestationRepo.GetActiveByTokenHash(ctx, utils.HashToken(bearer))
	if err != nil {
		return nil, err
	}
	if a == nil || a.Type != models.AttestationTypeSession {
		return nil, unauthenticated(nil)
	}

	identity, err := s.identityRepo.GetByFingerprint(ctx, a.IdentityFingerprint)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, unauthenticated(nil)
	}
	return identity, nil
}

func wellFormedSecret(s string) bool {
	if len(s) != utils.BearerSecretLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
