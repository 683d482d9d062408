package controllers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/services"
	"github.com/poofware/locshare-service/internal/utils"
)

type LocationController struct {
	locationService services.LocationService
}

func NewLocationController(s services.LocationService) *LocationController {
	return &LocationController{locationService: s}
}

// PublishUpdate handles POST /api/v1/locations.
func (c *LocationController) PublishUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	var req dtos.PublishLocationRequest
	if !decodeAndValidate(w, r, &req, "ciphertext and at least one valid groupId are required") {
		return
	}

	groupIDs := make([]uuid.UUID, 0, len(req.GroupIDs))
	for _, raw := range req.GroupIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid groupId", nil, err)
			return
		}
		groupIDs = append(groupIDs, id)
	}

	rec, err := c.locationService.PublishUpdate(r.Context(), caller.Fingerprint, req.Ciphertext, groupIDs)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewLocationRecordResponse(rec))
}

// FetchUpdates handles GET /api/v1/locations?limit=&groupId=.
func (c *LocationController) FetchUpdates(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := utils.DefaultFetchLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidLimit, "Limit must be between 1 and 100", nil, err)
			return
		}
		limit = parsed
	}

	var groupID *uuid.UUID
	if raw := q.Get("groupId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid groupId", nil, err)
			return
		}
		groupID = &id
	}

	records, err := c.locationService.FetchUpdates(r.Context(), caller.Fingerprint, limit, groupID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewLocationRecordsResponse(records))
}
