package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
)

type Config struct {
	TokenTTL             time.Duration
	SessionTTL           time.Duration
	SessionAbsoluteTTL   time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration

	OTPTTL          time.Duration
	OTPIssueLimit   int
	OTPIssueWindow  time.Duration
	OTPVerifyLimit  int
	OTPVerifyWindow time.Duration
	MagicLinkTTL    time.Duration

	ContestName            string
	PublicBaseURL          string
	DefaultRedirectURI     string
	AllowedRedirectOrigins []string

	TransitionPolicy     domain.TransitionPolicy
	SettingsCacheTTL     time.Duration
	DefaultUploadEnabled bool
	AnalyticsDays        int
}

// Principal is the authenticated caller resolved from a session token.
type Principal struct {
	SubjectID   uuid.UUID          `json:"subject_id"`
	SubjectKind domain.SubjectKind `json:"subject_kind"`
	Email       string             `json:"email"`
	Role        string             `json:"role"`
	SessionID   uuid.UUID          `json:"session_id"`
}

type RegisterRequest struct {
	Name            string         `json:"name" validate:"required,max=200"`
	Email           string         `json:"email" validate:"required,email,max=254"`
	Profession      string         `json:"profession" validate:"required,max=100"`
	ProfessionOther string         `json:"profession_other" validate:"max=200"`
	Gender          string         `json:"gender" validate:"required"`
	Age             *int           `json:"age"`
	ContestType     string         `json:"contest_type" validate:"required,max=100"`
	PhotoURL        string         `json:"photo_url" validate:"omitempty,url,max=2048"`
	ExtraFields     map[string]any `json:"extra_fields"`
}

type ParticipantView struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Profession      string         `json:"profession"`
	ProfessionOther string         `json:"profession_other,omitempty"`
	Gender          string         `json:"gender"`
	Age             *int           `json:"age,omitempty"`
	ContestType     string         `json:"contest_type"`
	PhotoURL        string         `json:"photo_url,omitempty"`
	LoginEnabled    bool           `json:"login_enabled"`
	UploadEnabled   bool           `json:"upload_enabled"`
	ExtraFields     map[string]any `json:"extra_fields,omitempty"`
	LastLoginAt     *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ProfilePatch holds the fields a participant may change on their own profile.
type ProfilePatch struct {
	Name            *string        `json:"name" validate:"omitempty,min=1,max=200"`
	Profession      *string        `json:"profession" validate:"omitempty,max=100"`
	ProfessionOther *string        `json:"profession_other" validate:"omitempty,max=200"`
	Gender          *string        `json:"gender"`
	Age             *int           `json:"age"`
	PhotoURL        *string        `json:"photo_url" validate:"omitempty,max=2048"`
	ExtraFields     map[string]any `json:"extra_fields"`
}

// ParticipantPatch is the administrator view of a participant update.
type ParticipantPatch struct {
	ProfilePatch
	ContestType   *string `json:"contest_type" validate:"omitempty,max=100"`
	LoginEnabled  *bool   `json:"login_enabled"`
	UploadEnabled *bool   `json:"upload_enabled"`
}

type ParticipantListQuery struct {
	Search      string
	ContestType string
	Page        int
	Limit       int
}

type ListResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type MutationView struct {
	ID            uuid.UUID          `json:"id"`
	ActorID       uuid.UUID          `json:"actor_id"`
	ActorKind     domain.SubjectKind `json:"actor_kind"`
	Before        map[string]any     `json:"before"`
	After         map[string]any     `json:"after"`
	ChangedFields []string           `json:"changed_fields"`
	CreatedAt     time.Time          `json:"created_at"`
}

type GenerateOTPRequest struct {
	Email string `json:"email"`
}

// ActionResponse mirrors the {success,message} payloads the UI toasts.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VerifyOTPRequest struct {
	Email     string `json:"email"`
	OTP       string `json:"otp"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type VerifyOTPResponse struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	ParticipantID uuid.UUID `json:"participantId"`
	Token         string    `json:"token"`
	SessionID     uuid.UUID `json:"session_id"`
	ExpiresIn     int64     `json:"expires_in"`
}

type MagicLinkRequest struct {
	Email       string `json:"email"`
	RedirectURI string `json:"redirect_uri"`
}

type MagicLinkCallback struct {
	Token     string
	IPAddress string
	UserAgent string
}

type AdminLoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type AdminLoginResponse struct {
	Admin     AdminView `json:"admin"`
	Token     string    `json:"token"`
	SessionID uuid.UUID `json:"session_id"`
	ExpiresIn int64     `json:"expires_in"`
}

type TokenRefreshResponse struct {
	Token     string    `json:"token"`
	SessionID uuid.UUID `json:"session_id"`
	ExpiresIn int64     `json:"expires_in"`
}

// AdminView is the only admin shape that leaves the service. It has no credential fields.
type AdminView struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	Department  string             `json:"department"`
	Government  domain.Government  `json:"government"`
	Place       string             `json:"place"`
	Role        domain.AdminRole   `json:"role"`
	Permissions domain.Permissions `json:"permissions"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type CreateAdminRequest struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Email       string             `json:"email" validate:"required,email,max=254"`
	Phone       string             `json:"phone" validate:"max=32"`
	Department  string             `json:"department" validate:"max=200"`
	Government  string             `json:"government" validate:"required"`
	Place       string             `json:"place" validate:"max=200"`
	Role        string             `json:"role" validate:"required"`
	Password    string             `json:"password" validate:"required"`
	Permissions domain.Permissions `json:"permissions"`
}

type UpdateAdminRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1,max=200"`
	Phone       *string             `json:"phone" validate:"omitempty,max=32"`
	Department  *string             `json:"department" validate:"omitempty,max=200"`
	Government  *string             `json:"government"`
	Place       *string             `json:"place" validate:"omitempty,max=200"`
	Role        *string             `json:"role"`
	Password    *string             `json:"password"`
	Permissions *domain.Permissions `json:"permissions"`
}

type CreateSubmissionRequest struct {
	DriveLink   string `json:"drive_link" validate:"max=2048"`
	FileName    string `json:"file_name" validate:"max=255"`
	FileData    string `json:"file_data"`
	Description string `json:"description" validate:"max=5000"`
}

type SubmissionView struct {
	ID              uuid.UUID               `json:"id"`
	ParticipantID   uuid.UUID               `json:"participant_id"`
	Type            domain.SubmissionType   `json:"type"`
	Payload         string                  `json:"payload,omitempty"`
	FileName        string                  `json:"file_name,omitempty"`
	MimeType        string                  `json:"mime_type,omitempty"`
	SizeBytes       int64                   `json:"size_bytes,omitempty"`
	Description     string                  `json:"description"`
	Status          domain.SubmissionStatus `json:"status"`
	AdminNotes      string                  `json:"admin_notes,omitempty"`
	InternalRemarks string                  `json:"internal_remarks,omitempty"`
	ReviewedBy      *uuid.UUID              `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time              `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

type SubmissionListQuery struct {
	Status string
	Type   string
	Page   int
	Limit  int
}

type UpdateSubmissionRequest struct {
	Status          *string `json:"status"`
	AdminNotes      *string `json:"admin_notes" validate:"omitempty,max=5000"`
	InternalRemarks *string `json:"internal_remarks" validate:"omitempty,max=5000"`
}

type AnnouncementInput struct {
	Title     string `json:"title" validate:"required,max=200"`
	Body      string `json:"body" validate:"required,max=20000"`
	Priority  string `json:"priority"`
	Published *bool  `json:"published"`
}

type CMSInput struct {
	Slug      string `json:"slug"`
	Title     string `json:"title" validate:"required,max=200"`
	Body      string `json:"body" validate:"max=200000"`
	Published *bool  `json:"published"`
}

type FormFieldInput struct {
	Name        string              `json:"name"`
	Label       string              `json:"label" validate:"required,max=200"`
	Kind        domain.FieldKind    `json:"kind" validate:"required"`
	Placeholder string              `json:"placeholder" validate:"max=200"`
	HelpText    string              `json:"help_text" validate:"max=1000"`
	Required    bool                `json:"required"`
	Active      *bool               `json:"active"`
	SortOrder   int                 `json:"sort_order"`
	Text        *domain.TextRules   `json:"text"`
	Number      *domain.NumberRules `json:"number"`
	Choice      *domain.ChoiceRules `json:"choice"`
}
