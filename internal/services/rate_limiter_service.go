package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/poofware/locshare-service/internal/config"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
	"github.com/sirupsen/logrus"
)

// RateLimiterService guards the unauthenticated challenge endpoints.
// Checks are no-ops unless enforce_challenge_rate_limits is on.
type RateLimiterService interface {
	CheckChallengeRateLimits(ctx context.Context, ip, fingerprint string) error
	CheckAttestationRateLimits(ctx context.Context, ip string) error
}

type rateLimiterService struct {
	repo repositories.RateLimitRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewRateLimiterService(repo repositories.RateLimitRepository, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{repo: repo, cfg: cfg, now: time.Now}
}

type rateLimit struct {
	key   string
	limit int
}

func (s *rateLimiterService) check(ctx context.Context, limits ...rateLimit) error {
	if !s.cfg.LDFlag_EnforceChallengeRateLimits {
		return nil
	}
	for _, l := range limits {
		w, err := s.repo.Hit(ctx, l.key, s.cfg.RateLimitWindow)
		if err != nil {
			return err
		}
		if w.Count > l.limit {
			utils.Logger.WithFields(logrus.Fields{
				"key":      l.key,
				"count":    w.Count,
				"reset_at": w.ResetAt,
			}).Warn("Rate limit exceeded")
			return rateLimited(retryAfterSeconds(w.ResetAt, s.now()))
		}
	}
	return nil
}

// CheckChallengeRateLimits checks global, per-IP, and per-fingerprint limits.
func (s *rateLimiterService) CheckChallengeRateLimits(ctx context.Context, ip, fingerprint string) error {
	return s.check(ctx,
		rateLimit{"challenge:global", s.cfg.GlobalChallengeLimitPerHour},
		rateLimit{fmt.Sprintf("challenge:ip:%s", ip), s.cfg.ChallengeLimitPerIPPerHour},
		rateLimit{fmt.Sprintf("challenge:fingerprint:%s", fingerprint), s.cfg.ChallengeLimitPerFingerprintPerHour},
	)
}

// CheckAttestationRateLimits applies the challenge budgets to submissions
// under their own counters.
func (s *rateLimiterService) CheckAttestationRateLimits(ctx context.Context, ip string) error {
	return s.check(ctx,
		rateLimit{"attestation:global", s.cfg.GlobalChallengeLimitPerHour},
		rateLimit{fmt.Sprintf("attestation:ip:%s", ip), s.cfg.ChallengeLimitPerIPPerHour},
	)
}

func retryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
