package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/poofware/locshare-service/internal/config"
	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
	"github.com/sirupsen/logrus"
)

type LocationService interface {
	// PublishUpdate stores ciphertext for every listed group; the sender
	// must belong to all of them.
	PublishUpdate(ctx context.Context, sender, ciphertext string, groupIDs []uuid.UUID) (*models.LocationRecord, error)
	// FetchUpdates returns up to limit of the newest visible records per
	// sender, optionally restricted to one group.
	FetchUpdates(ctx context.Context, requester string, limit int, groupID *uuid.UUID) ([]*models.LocationRecord, error)
}

type locationService struct {
	repo   repositories.LocationRepository
	groups GroupService
	cfg    *config.Config
}

func NewLocationService(repo repositories.LocationRepository, groups GroupService, cfg *config.Config) LocationService {
	return &locationService{repo: repo, groups: groups, cfg: cfg}
}

func (s *locationService) PublishUpdate(ctx context.Context, sender, ciphertext string, groupIDs []uuid.UUID) (*models.LocationRecord, error) {
	if strings.TrimSpace(ciphertext) == "" {
		return nil, validationError("Ciphertext is required")
	}
	ids := uniqueIDs(groupIDs)
	if len(ids) == 0 {
		return nil, validationError("At least one group is required")
	}

	if err := s.groups.RequireMembership(ctx, sender, ids); err != nil {
		return nil, err
	}

	rec := &models.LocationRecord{
		ID:                uuid.New(),
		SenderFingerprint: sender,
		Ciphertext:        ciphertext,
	}
	if err := s.repo.Create(ctx, rec, ids, s.cfg.LocationTTL); err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"record_id": rec.ID,
		"sender":    sender,
		"groups":    len(ids),
	}).Debug("Published location update")
	return rec, nil
}

func (s *locationService) FetchUpdates(ctx context.Context, requester string, limit int, groupID *uuid.UUID) ([]*models.LocationRecord, error) {
	if limit < utils.MinFetchLimit || limit > utils.MaxFetchLimit {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidLimit, "Limit must be between 1 and 100", utils.ErrInvalidLimit)
	}

	records, err := s.repo.ListVisible(ctx, requester, groupID)
	if err != nil {
		return nil, err
	}
	return capPerSender(records, limit), nil
}

// capPerSender keeps the first limit records of each sender. Input must be
// ordered by sender then recency, which keeps the output in that order too.
func capPerSender(records []*models.LocationRecord, limit int) []*models.LocationRecord {
	out := make([]*models.LocationRecord, 0, len(records))
	counts := make(map[string]int)
	for _, rec := range records {
		if counts[rec.SenderFingerprint] >= limit {
			continue
		}
		counts[rec.SenderFingerprint]++
		out = append(out, rec)
	}
	return out
}
