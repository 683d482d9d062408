package services

import (
	"net/http"

	"github.com/poofware/locshare-service/internal/utils"
)

// Every failure a caller may see is built here so status codes and public
// messages stay consistent across services.

func unauthenticated(err error) error {
	if err == nil {
		err = utils.ErrUnauthenticated
	}
	return utils.NewAppError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unauthorized", err)
}

func invalidKeyMaterial(err error) error {
	return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeInvalidKeyMaterial, "Invalid key material", err)
}

func validationError(message string) error {
	return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeValidation, message, utils.ErrValidation)
}

func notFound(message string, err error) error {
	return utils.NewAppError(http.StatusNotFound, utils.ErrCodeNotFound, message, err)
}

func challengeNotFound() error {
	return utils.NewAppError(http.StatusBadRequest, utils.ErrCodeChallengeNotFound, "Invalid challenge", utils.ErrChallengeNotFound)
}

func notAMember(details any) error {
	return utils.NewAppError(http.StatusForbidden, utils.ErrCodeNotAMember, "Not a member of the requested group(s)", utils.ErrNotAMember).
		WithDetails(details)
}

// RateLimitDetails tells a throttled caller when its window reopens.
type RateLimitDetails struct {
	RetryAfterSeconds int `json:"retryAfterSeconds"`
}

func rateLimited(retryAfter int) error {
	return utils.NewAppError(http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded, "Too many requests. Please try again later.", utils.ErrRateLimitExceeded).
		WithDetails(RateLimitDetails{RetryAfterSeconds: retryAfter})
}
