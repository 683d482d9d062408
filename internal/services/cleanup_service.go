package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
)

// One retry on transient network errors (EOF, closed connection) with a
// small back-off.
var cleanupRetryDelay = 3 * time.Second

// CleanupService physically removes rows that expiry already hides from
// every query.
type CleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type cleanupService struct {
	attestationRepo repositories.AttestationRepository
	locationRepo    repositories.LocationRepository
	rateLimitRepo   repositories.RateLimitRepository
}

func NewCleanupService(
	attestationRepo repositories.AttestationRepository,
	locationRepo repositories.LocationRepository,
	rateLimitRepo repositories.RateLimitRepository,
) CleanupService {
	return &cleanupService{
		attestationRepo: attestationRepo,
		locationRepo:    locationRepo,
		rateLimitRepo:   rateLimitRepo,
	}
}

func isTransient(err error) bool {
	return errors.Is(err, io.EOF) || pgconn.SafeToRetry(err) ||
		strings.Contains(err.Error(), "connection was closed")
}

func runWithRetry(ctx context.Context, op func(context.Context) (int64, error)) (int64, error) {
	n, err := op(ctx)
	if err == nil || !isTransient(err) {
		return n, err
	}
	utils.Logger.WithError(err).Warn("cleanup hit transient DB error; retrying once")
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(cleanupRetryDelay):
	}
	return op(ctx)
}

// CleanupDaily runs every cleanup step and stops at the first failure.
func (s *cleanupService) CleanupDaily(ctx context.Context) error {
	logger := utils.Logger

	steps := []struct {
		name string
		op   func(context.Context) (int64, error)
	}{
		{"attestations", s.attestationRepo.CleanupExpired},
		{"location_records", s.locationRepo.CleanupExpired},
		{"rate_limit_attempts", s.rateLimitRepo.CleanupExpired},
	}
	for _, step := range steps {
		n, err := runWithRetry(ctx, step.op)
		if err != nil {
			logger.WithError(err).Errorf("Failed to cleanup expired %s", step.name)
			return err
		}
		logger.WithField("deleted", n).Infof("Removed expired %s", step.name)
	}

	logger.Info("Daily cleanup of expired rows completed successfully.")
	return nil
}
