package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/poofware/locshare-service/internal/config"
	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/pgp"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
	"github.com/sirupsen/logrus"
)

type AttestationService interface {
	// IssueChallenge creates a pending session attestation for the identity
	// and returns the raw challenge to sign.
	IssueChallenge(ctx context.Context, fingerprint, clientIP string) (string, error)
	// SubmitAttestation verifies a cleartext-signed challenge and, on
	// success, returns a fresh bearer secret encrypted to the signer.
	SubmitAttestation(ctx context.Context, signedMessage, clientIP string) (string, error)
}

type attestationService struct {
	identityRepo    repositories.IdentityRepository
	attestationRepo repositories.AttestationRepository
	rateLimiter     RateLimiterService
	cfg             *config.Config
}

func NewAttestationService(
	identityRepo repositories.IdentityRepository,
	attestationRepo repositories.AttestationRepository,
	rateLimiter RateLimiterService,
	cfg *config.Config,
) AttestationService {
	return &attestationService{
		identityRepo:    identityRepo,
		attestationRepo: attestationRepo,
		rateLimiter:     rateLimiter,
		cfg:             cfg,
	}
}

func (s *attestationService) IssueChallenge(ctx context.Context, fingerprint, clientIP string) (string, error) {
	fingerprint = pgp.NormalizeFingerprint(fingerprint)

	if err := s.rateLimiter.CheckChallengeRateLimits(ctx, clientIP, fingerprint); err != nil {
		return "", err
	}

	identity, err := s.identityRepo.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return "", err
	}
	if identity == nil {
		return "", notFound("Identity not found", utils.ErrIdentityNotFound)
	}

	challenge, err := utils.RandomHex(utils.ChallengeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate challenge: %w", err)
	}

	a := &models.Attestation{
		ID:                  uuid.New(),
		IdentityFingerprint: identity.Fingerprint,
		Challenge:           challenge,
		Type:                models.AttestationTypeSession,
	}
	if err := s.attestationRepo.CreatePending(ctx, a, s.cfg.ChallengeTTL); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"fingerprint":    identity.Fingerprint,
		"attestation_id": a.ID,
	}).Debug("Issued session challenge")
	return challenge, nil
}

func (s *attestationService) SubmitAttestation(ctx context.Context, signedMessage, clientIP string) (string, error) {
	if err := s.rateLimiter.CheckAttestationRateLimits(ctx, clientIP); err != nil {
		return "", err
	}

	// The plaintext is only a lookup key here; nothing changes until the
	// signature has been checked against the owner's key.
	msg, err := pgp.DecodeCleartext(signedMessage)
	if err != nil {
		return "", challengeNotFound()
	}
	challenge := msg.Text()
	if challenge == "" {
		return "", challengeNotFound()
	}

	a, err := s.attestationRepo.GetPendingByChallenge(ctx, challenge)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", challengeNotFound()
	}

	identity, err := s.identityRepo.GetByFingerprint(ctx, a.IdentityFingerprint)
	if err != nil {
		return "", err
	}
	if identity == nil {
		return "", fmt.Errorf("attestation %s references missing identity %s", a.ID, a.IdentityFingerprint)
	}

	logger := utils.Logger.WithFields(logrus.Fields{
		"fingerprint":    identity.Fingerprint,
		"attestation_id": a.ID,
	})

	key, err := pgp.ParsePublicKey(identity.PublicKey)
	if err != nil {
		logger.WithError(err).Warn("Stored public key no longer valid")
		return "", unauthenticated(utils.ErrSignatureVerificationFailed)
	}
	if err := msg.Verify(key); err != nil {
		logger.WithError(err).Warn("Challenge signature verification failed")
		return "", unauthenticated(fmt.Errorf("%w: %v", utils.ErrSignatureVerificationFailed, err))
	}

	secret, err := utils.RandomHex(utils.BearerSecretLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate bearer secret: %w", err)
	}
	payload, err := json.Marshal(dtos.BearerPayload{Token: secret})
	if err != nil {
		return "", err
	}
	encrypted, err := pgp.EncryptTo(key, payload)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt bearer secret: %w", err)
	}

	tag, err := s.attestationRepo.Fulfill(ctx, a.ID, utils.HashToken(secret), s.cfg.SessionTTL)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() != 1 {
		// Another submission won, or the challenge expired in between.
		logger.Warn("Challenge no longer pending at fulfilment")
		return "", challengeNotFound()
	}

	logger.Info("Session attestation fulfilled")
	return encrypted, nil
}
