package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/services"
	"github.com/poofware/locshare-service/internal/utils"
)

type GroupController struct {
	groupService services.GroupService
}

func NewGroupController(s services.GroupService) *GroupController {
	return &GroupController{groupService: s}
}

// CreateGroup handles POST /api/v1/groups.
func (c *GroupController) CreateGroup(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req dtos.CreateGroupRequest
	if !decodeAndValidate(w, r, &req, "Group name is required") {
		return
	}

	g, err := c.groupService.CreateGroup(r.Context(), caller.Fingerprint, req.Name, req.MemberFingerprints)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewGroupResponse(g))
}

// ListGroups handles GET /api/v1/groups.
func (c *GroupController) ListGroups(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	groups, err := c.groupService.ListGroups(r.Context(), caller.Fingerprint)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewGroupsResponse(groups))
}

// AddMembers handles PATCH /api/v1/groups.
func (c *GroupController) AddMembers(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req dtos.AddMembersRequest
	if !decodeAndValidate(w, r, &req, "Missing or invalid groupId or newMemberFingerprints") {
		return
	}
	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid groupId", nil, err)
		return
	}

	g, err := c.groupService.AddMembers(r.Context(), caller.Fingerprint, groupID, req.NewMemberFingerprints)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewGroupResponse(g))
}
