package http

import (
	"errors"
	"net/http"

	"github.com/nischalstumbeti/contestzen/internal/domain"
)

type gateDetails struct {
	Title       string `json:"title,omitempty"`
	Message     string `json:"message,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password"
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "SESSION_EXPIRED", "session expired"
	case errors.Is(err, domain.ErrSessionRevoked):
		return http.StatusUnauthorized, "SESSION_REVOKED", "session revoked"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "you do not have permission to perform this action"
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusTooManyRequests, "ACCOUNT_LOCKED", "account temporarily locked"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "too many requests"
	case errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusBadRequest, "INVALID_OTP", "Invalid or expired OTP"
	case errors.Is(err, domain.ErrInvalidMagicKey):
		return http.StatusBadRequest, "INVALID_LOGIN_LINK", "invalid or expired login link"
	case errors.Is(err, domain.ErrParticipantUnavailable):
		return http.StatusForbidden, "PARTICIPANT_UNAVAILABLE", "Participant not found or login disabled"
	case errors.Is(err, domain.ErrRegistrationClosed):
		return http.StatusForbidden, "REGISTRATION_CLOSED", "registration is closed"
	case errors.Is(err, domain.ErrSubmissionClosed):
		return http.StatusForbidden, "SUBMISSION_CLOSED", "submissions are closed"
	case errors.Is(err, domain.ErrExternalCollection):
		return http.StatusConflict, "EXTERNAL_COLLECTION", "submissions are collected through an external form"
	case errors.Is(err, domain.ErrUploadDisabled):
		return http.StatusForbidden, "UPLOAD_DISABLED", "uploads are disabled for your account"
	case errors.Is(err, domain.ErrAlreadySubmitted):
		return http.StatusConflict, "ALREADY_SUBMITTED", "you have already submitted an entry"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", err.Error()
	case errors.Is(err, domain.ErrLastSuperadmin):
		return http.StatusBadRequest, "LAST_SUPERADMIN", "cannot delete or demote the last superadmin"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusInternalServerError, "DELIVERY_FAILED", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

// gateErrorDetails extracts the configured copy of a closed gate, if err carries one.
func gateErrorDetails(err error) (gateDetails, bool) {
	var gate *domain.GateError
	if !errors.As(err, &gate) {
		return gateDetails{}, false
	}
	return gateDetails{
		Title:       gate.Title,
		Message:     gate.Message,
		ExternalURL: gate.ExternalURL,
		Contact:     gate.Contact,
	}, true
}
