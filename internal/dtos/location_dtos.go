package dtos

import (
	"time"

	"github.com/poofware/locshare-service/internal/models"
)

type PublishLocationRequest struct {
	Ciphertext string   `json:"ciphertext" validate:"required"`
	GroupIDs   []string `json:"groupIds" validate:"required,min=1,dive,uuid"`
}

type GroupRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LocationRecordResponse struct {
	ID                string             `json:"id"`
	SenderFingerprint string             `json:"senderFingerprint"`
	SenderName        string             `json:"senderName,omitempty"`
	Ciphertext        string             `json:"ciphertext"`
	Groups            []GroupRefResponse `json:"groups"`
	CreatedAt         time.Time          `json:"createdAt"`
	ExpiresAt         time.Time          `json:"expiresAt"`
}

func NewLocationRecordResponse(r *models.LocationRecord) LocationRecordResponse {
	resp := LocationRecordResponse{
		ID:                r.ID.String(),
		SenderFingerprint: r.SenderFingerprint,
		SenderName:        r.SenderName,
		Ciphertext:        r.Ciphertext,
		Groups:            make([]GroupRefResponse, 0, len(r.Groups)),
		CreatedAt:         r.CreatedAt,
		ExpiresAt:         r.ExpiresAt,
	}
	for _, g := range r.Groups {
		resp.Groups = append(resp.Groups, GroupRefResponse{ID: g.ID.String(), Name: g.Name})
	}
	return resp
}

func NewLocationRecordsResponse(records []*models.LocationRecord) []LocationRecordResponse {
	out := make([]LocationRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, NewLocationRecordResponse(r))
	}
	return out
}
