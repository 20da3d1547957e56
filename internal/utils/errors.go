package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrInvalidPhone = errors.New("invalid_phone")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	// For external service failures (e.g., Twilio)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// AppError carries a stable error code and HTTP status from the
// service layer to the controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
