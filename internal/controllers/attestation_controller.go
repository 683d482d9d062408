package controllers

import (
	"net/http"

	"github.com/poofware/locshare-service/internal/dtos"
	"github.com/poofware/locshare-service/internal/services"
	"github.com/poofware/locshare-service/internal/utils"
)

type AttestationController struct {
	attestationService services.AttestationService
}

func NewAttestationController(s services.AttestationService) *AttestationController {
	return &AttestationController{attestationService: s}
}

// IssueChallenge handles POST /api/v1/challenges.
func (c *AttestationController) IssueChallenge(w http.ResponseWriter, r *http.Request) {
	var req dtos.ChallengeRequest
	if !decodeAndValidate(w, r, &req, "fingerprint is required") {
		return
	}

	challenge, err := c.attestationService.IssueChallenge(r.Context(), req.Fingerprint, utils.ClientIP(r))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ChallengeResponse{Challenge: challenge})
}

// SubmitAttestation handles POST /api/v1/attestations.
func (c *AttestationController) SubmitAttestation(w http.ResponseWriter, r *http.Request) {
	var req dtos.AttestationRequest
	if !decodeAndValidate(w, r, &req, "signedChallengeMessage is required") {
		return
	}

	encrypted, err := c.attestationService.SubmitAttestation(r.Context(), req.SignedChallengeMessage, utils.ClientIP(r))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.AttestationResponse{EncryptedBearerSecret: encrypted})
}
