package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/services"
	"github.com/poofware/locshare-service/internal/utils"
)

type IdentityController struct {
	identityService services.IdentityService
}

func NewIdentityController(s services.IdentityService) *IdentityController {
	return &IdentityController{identityService: s}
}

// Register handles POST /api/v1/identities.
func (c *IdentityController) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterIdentityRequest
	if !decodeAndValidate(w, r, &req, "publicKey is required") {
		return
	}

	identity, err := c.identityService.Register(r.Context(), req.PublicKey)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.RegisterIdentityResponse{
		Success:     true,
		Fingerprint: identity.Fingerprint,
	})
}

// GetPublicKey handles GET /api/v1/identities/{fingerprint}.
func (c *IdentityController) GetPublicKey(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerIdentity(w, r); !ok {
		return
	}

	identity, err := c.identityService.GetPublicKey(r.Context(), mux.Vars(r)["fingerprint"])
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.IdentityResponse{
		Fingerprint: identity.Fingerprint,
		DisplayName: identity.DisplayName,
		PublicKey:   identity.PublicKey,
	})
}
