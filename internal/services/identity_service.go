package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/poofware/locshare-service/internal/config"
	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/pgp"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
)

type IdentityService interface {
	// Register validates an armored public key and stores it as a new
	// identity keyed by its fingerprint.
	Register(ctx context.Context, armoredKey string) (*models.Identity, error)
	// GetPublicKey returns the identity for a fingerprint or a 404.
	GetPublicKey(ctx context.Context, fingerprint string) (*models.Identity, error)
}

type identityService struct {
	repo          repositories.IdentityRepository
	cfg           *config.Config
	validateEmail func(ctx context.Context, email string) (bool, error)
}

func NewIdentityService(repo repositories.IdentityRepository, cfg *config.Config) IdentityService {
	s := &identityService{repo: repo, cfg: cfg}
	s.validateEmail = func(ctx context.Context, email string) (bool, error) {
		return utils.ValidateEmail(ctx, cfg.SendGridAPIKey, email, true)
	}
	return s
}

func (s *identityService) Register(ctx context.Context, armoredKey string) (*models.Identity, error) {
	key, err := pgp.ParsePublicKey(armoredKey)
	if err != nil {
		return nil, invalidKeyMaterial(err)
	}

	if key.Email != "" && s.cfg.LDFlag_ValidateEmailWithSendGrid {
		ok, err := s.validateEmail(ctx, key.Email)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, "Undeliverable email address on key", utils.ErrInvalidEmail)
		}
	}

	identity := &models.Identity{
		Fingerprint: key.Fingerprint,
		DisplayName: key.Name,
		Email:       key.Email,
		PublicKey:   armoredKey,
	}
	if err := s.repo.Create(ctx, identity); err != nil {
		if errors.Is(err, utils.ErrIdentityExists) {
			return nil, utils.NewAppError(http.StatusConflict, utils.ErrCodeConflict, "Identity already registered", err)
		}
		return nil, err
	}

	utils.Logger.WithField("fingerprint", identity.Fingerprint).Info("Registered identity")
	return identity, nil
}

func (s *identityService) GetPublicKey(ctx context.Context, fingerprint string) (*models.Identity, error) {
	identity, err := s.repo.GetByFingerprint(ctx, pgp.NormalizeFingerprint(fingerprint))
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, notFound("Identity not found", utils.ErrIdentityNotFound)
	}
	return identity, nil
}
