package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperadmin AdminRole = "superadmin"
)

type Government string

const (
	GovernmentState     Government = "state"
	GovernmentCentral   Government = "central"
	GovernmentOutsource Government = "outsource"
	GovernmentOther     Government = "other"
)

type Permission string

const (
	PermManageParticipants  Permission = "manage_participants"
	PermManageSubmissions   Permission = "manage_submissions"
	PermManageAnnouncements Permission = "manage_announcements"
	PermManageSettings      Permission = "manage_settings"
	PermViewAnalytics       Permission = "view_analytics"
	PermExportData          Permission = "export_data"
)

// Permissions holds the six back-office capability flags.
type Permissions struct {
	ManageParticipants  bool `json:"manage_participants"`
	ManageSubmissions   bool `json:"manage_submissions"`
	ManageAnnouncements bool `json:"manage_announcements"`
	ManageSettings      bool `json:"manage_settings"`
	ViewAnalytics       bool `json:"view_analytics"`
	ExportData          bool `json:"export_data"`
}

func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermManageParticipants:
		return p.ManageParticipants
	case PermManageSubmissions:
		return p.ManageSubmissions
	case PermManageAnnouncements:
		return p.ManageAnnouncements
	case PermManageSettings:
		return p.ManageSettings
	case PermViewAnalytics:
		return p.ViewAnalytics
	case PermExportData:
		return p.ExportData
	default:
		return false
	}
}

// AllPermissions is granted implicitly to superadmins.
func AllPermissions() Permissions {
	return Permissions{
		ManageParticipants:  true,
		ManageSubmissions:   true,
		ManageAnnouncements: true,
		ManageSettings:      true,
		ViewAnalytics:       true,
		ExportData:          true,
	}
}

// Admin is a back-office operator. PasswordHash never leaves the service boundary.
type Admin struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	Department   string
	Government   Government
	Place        string
	Role         AdminRole
	PasswordHash string
	Permissions  Permissions
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a Admin) Can(perm Permission) bool {
	if a.Role == RoleSuperadmin {
		return true
	}
	return a.Permissions.Has(perm)
}

func ParseAdminRole(raw string) (AdminRole, error) {
	r := AdminRole(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleAdmin, RoleSuperadmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: role must be admin or superadmin", ErrInvalidInput)
	}
}

func ParseGovernment(raw string) (Government, error) {
	g := Government(strings.ToLower(strings.TrimSpace(raw)))
	switch g {
	case GovernmentState, GovernmentCentral, GovernmentOutsource, GovernmentOther:
		return g, nil
	default:
		return "", fmt.Errorf("%w: government must be one of state, central, outsource, other", ErrInvalidInput)
	}
}

const (
	minPasswordLength = 10
	maxPasswordLength = 72
)

// ValidatePassword enforces the admin password policy. The upper bound matches bcrypt's input limit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be <= %d characters", ErrInvalidInput, maxPasswordLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("%w: password must include upper, lower and digit characters", ErrInvalidInput)
	}

	lowered := strings.ToLower(password)
	for _, banned := range []string{"password", "qwerty", "123456", "letmein", "admin123"} {
		if strings.Contains(lowered, banned) {
			return fmt.Errorf("%w: password includes weak pattern", ErrInvalidInput)
		}
	}
	return nil
}
