package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/pgp"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
	"github.com/sirupsen/logrus"
)

type GroupService interface {
	// CreateGroup makes a group whose members are the creator plus every
	// non-empty listed fingerprint. Listed fingerprints are not checked for
	// existence; unregistered ones simply never become members.
	CreateGroup(ctx context.Context, creator, name string, members []string) (*models.Group, error)
	ListGroups(ctx context.Context, fingerprint string) ([]*models.Group, error)
	// AddMembers is all-or-nothing: every new fingerprint must be a
	// registered identity and the requester must already be a member.
	AddMembers(ctx context.Context, requester string, groupID uuid.UUID, newMembers []string) (*models.Group, error)
	// RequireMembership fails with a 403 listing the groups the identity is
	// not a member of. Membership is read from the store on every call.
	RequireMembership(ctx context.Context, fingerprint string, groupIDs []uuid.UUID) error
}

type groupService struct {
	groupRepo    repositories.GroupRepository
	identityRepo repositories.IdentityRepository
}

func NewGroupService(groupRepo repositories.GroupRepository, identityRepo repositories.IdentityRepository) GroupService {
	return &groupService{groupRepo: groupRepo, identityRepo: identityRepo}
}

func (s *groupService) CreateGroup(ctx context.Context, creator, name string, members []string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("Group name is required")
	}

	g := &models.Group{ID: uuid.New(), Name: name}
	all := normalizeFingerprints(append([]string{creator}, members...))
	if err := s.groupRepo.Create(ctx, g, all); err != nil {
		return nil, err
	}
	if dropped := missingMembers(all, g); len(dropped) > 0 {
		utils.Logger.WithFields(logrus.Fields{
			"group_id": g.ID,
			"dropped":  dropped,
		}).Debug("Skipped unregistered group members")
	}

	utils.Logger.WithFields(logrus.Fields{
		"group_id": g.ID,
		"creator":  creator,
		"members":  len(g.Members),
	}).Info("Created group")
	return g, nil
}

func (s *groupService) ListGroups(ctx context.Context, fingerprint string) ([]*models.Group, error) {
	groups, err := s.groupRepo.ListByMember(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	return groups, nil
}

func (s *groupService) AddMembers(ctx context.Context, requester string, groupID uuid.UUID, newMembers []string) (*models.Group, error) {
	g, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, notFound("Group not found", utils.ErrGroupNotFound)
	}
	if !g.HasMember(requester) {
		return nil, notAMember([]string{groupID.String()})
	}

	wanted := normalizeFingerprints(newMembers)
	if len(wanted) == 0 {
		return g, nil
	}

	existing, err := s.identityRepo.FindExisting(ctx, wanted)
	if err != nil {
		return nil, err
	}
	if missing := difference(wanted, existing); len(missing) > 0 {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.ErrCodeUnknownMembers, "Unknown member fingerprints", utils.ErrUnknownMembers).
			WithDetails(missing)
	}

	if err := s.groupRepo.AddMembers(ctx, groupID, wanted); err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"group_id":  groupID,
		"requester": requester,
		"added":     len(wanted),
	}).Info("Added group members")
	return s.groupRepo.GetByID(ctx, groupID)
}

func (s *groupService) RequireMembership(ctx context.Context, fingerprint string, groupIDs []uuid.UUID) error {
	ids := uniqueIDs(groupIDs)
	in, err := s.groupRepo.MemberGroupIDs(ctx, fingerprint, ids)
	if err != nil {
		return err
	}

	member := make(map[uuid.UUID]struct{}, len(in))
	for _, id := range in {
		member[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := member[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return notAMember(missing)
	}
	return nil
}

// normalizeFingerprints upper-cases, drops empties and de-duplicates while
// keeping first-seen order.
// missingMembers returns the requested fingerprints that did not end up in g.
func missingMembers(requested []string, g *models.Group) []string {
	var out []string
	for _, fp := range requested {
		if !g.HasMember(fp) {
			out = append(out, fp)
		}
	}
	return out
}

func normalizeFingerprints(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, fp := range in {
		fp = pgp.NormalizeFingerprint(fp)
		if fp == "" {
			continue
		}
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, fp)
	}
	return out
}

func difference(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	var out []string
	for _, w := range want {
		if _, ok := set[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

func uniqueIDs(in []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := make([]uuid.UUID, 0, len(in))
	for _, id := range in {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
