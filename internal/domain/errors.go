package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether email or password failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts.
	ErrAccountLocked   = errors.New("account locked")
	ErrSessionRevoked  = errors.New("session revoked")
	ErrSessionExpired  = errors.New("session expired")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrDeliveryFailed  = errors.New("failed to send")
	ErrInvalidOTP      = errors.New("invalid or expired OTP")
	ErrInvalidMagicKey = errors.New("invalid or expired login link")

	// ErrParticipantUnavailable covers both unknown participants and participants whose
	// login was disabled by an administrator.
	ErrParticipantUnavailable = errors.New("participant not found or login disabled")

	ErrRegistrationClosed = errors.New("registration is closed")
	ErrSubmissionClosed   = errors.New("submissions are closed")
	ErrUploadDisabled     = errors.New("uploads are disabled for this participant")
	ErrAlreadySubmitted   = errors.New("participant has already submitted")
	// ErrExternalCollection is returned when submissions are gathered by an external form.
	ErrExternalCollection = errors.New("submissions are collected externally")
	ErrInvalidTransition  = errors.New("status transition not allowed")

	// ErrLastSuperadmin is returned when deleting or demoting the only superadmin.
	ErrLastSuperadmin = errors.New("cannot delete the last superadmin")
)

// GateError is a closed-gate rejection that carries the configured user-facing copy.
// It unwraps to the sentinel so callers can still match with errors.Is.
type GateError struct {
	Err         error
	Title       string
	Message     string
	ExternalURL string
	Contact     string
}

func (e *GateError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *GateError) Unwrap() error { return e.Err }
