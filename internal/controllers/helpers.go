package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/poofware/locshare-service/internal/middleware"
	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/utils"
)

var validate = validator.New()

// maxBodyBytes bounds request bodies; armored keys and ciphertexts are the
// largest legitimate payloads.
const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 itself and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, validationMsg string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, validationMsg, nil, err)
		return false
	}
	return true
}

// callerIdentity reads the identity attached by AuthMiddleware. Routes
// without the middleware never reach here, so a miss is a 401.
func callerIdentity(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unauthorized", nil)
		return nil, false
	}
	return identity, true
}
