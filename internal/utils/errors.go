package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrUnauthenticated             = errors.New("unauthenticated")
	ErrSignatureVerificationFailed = errors.New("signature_verification_failed")
	ErrInvalidKeyMaterial          = errors.New("invalid_key_material")
	ErrIdentityNotFound            = errors.New("identity_not_found")
	ErrIdentityExists              = errors.New("identity_exists")
	ErrChallengeNotFound           = errors.New("challenge_not_found")
	ErrGroupNotFound               = errors.New("group_not_found")
	ErrNotAMember                  = errors.New("not_a_member")
	ErrUnknownMembers              = errors.New("unknown_members")
	ErrInvalidLimit                = errors.New("invalid_limit")
	ErrInvalidEmail                = errors.New("invalid_email")
	ErrValidation                  = errors.New("validation_error")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")
)

// AppError carries a failure from services to controllers together with
// the HTTP status, public code/message and optional details to render.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError is shorthand used by the services.
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{StatusCode: status, Code: code, Message: message, Err: err}
}

// WithDetails returns the same error carrying details for the response body.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
