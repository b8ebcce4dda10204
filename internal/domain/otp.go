package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	OTPLength = 6
	OTPMin    = 100000
	OTPMax    = 999999
	// OTPTTL is the validity window of an issued code.
	OTPTTL = 10 * time.Minute
)

var otpPattern = regexp.MustCompile(`^\d{6}$`)

// OneTimeCode is a short-lived login credential. Only the hash of the code is stored.
type OneTimeCode struct {
	ID        uuid.UUID
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Valid reports whether the code is still usable at now.
func (c OneTimeCode) Valid(now time.Time) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt)
}

func ValidateOTPFormat(code string) error {
	if !otpPattern.MatchString(strings.TrimSpace(code)) {
		return fmt.Errorf("%w: otp must be 6 digits", ErrInvalidInput)
	}
	return nil
}
