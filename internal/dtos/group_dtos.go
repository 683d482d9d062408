package dtos

import "github.com/poofware/locshare-service/internal/models"

type CreateGroupRequest struct {
	Name               string   `json:"name" validate:"required,max=200"`
	MemberFingerprints []string `json:"memberFingerprints"`
}

type AddMembersRequest struct {
	GroupID               string   `json:"groupId" validate:"required,uuid"`
	NewMemberFingerprints []string `json:"newMemberFingerprints" validate:"required"`
}

type GroupMemberResponse struct {
	Fingerprint string `json:"fingerprint"`
	DisplayName string `json:"displayName"`
}

type GroupResponse struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Members []GroupMemberResponse `json:"members"`
}

func NewGroupResponse(g *models.Group) GroupResponse {
	resp := GroupResponse{
		ID:      g.ID.String(),
		Name:    g.Name,
		Members: make([]GroupMemberResponse, 0, len(g.Members)),
	}
	for _, m := range g.Members {
		resp.Members = append(resp.Members, GroupMemberResponse{Fingerprint: m.Fingerprint, DisplayName: m.DisplayName})
	}
	return resp
}

func NewGroupsResponse(groups []*models.Group) []GroupResponse {
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, NewGroupResponse(g))
	}
	return out
}
