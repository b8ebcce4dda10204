package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"gorm.io/datatypes"
)

type participantModel struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name            string            `gorm:"column:name"`
	Email           string            `gorm:"column:email"`
	Profession      string            `gorm:"column:profession"`
	ProfessionOther string            `gorm:"column:profession_other"`
	Gender          string            `gorm:"column:gender"`
	Age             *int              `gorm:"column:age"`
	ContestType     string            `gorm:"column:contest_type"`
	PhotoURL        string            `gorm:"column:photo_url"`
	LoginEnabled    bool              `gorm:"column:login_enabled"`
	UploadEnabled   bool              `gorm:"column:upload_enabled"`
	AuthUserID      *uuid.UUID        `gorm:"column:auth_user_id;type:uuid"`
	ExtraFields     datatypes.JSONMap `gorm:"column:extra_fields;type:jsonb"`
	LastLoginAt     *time.Time        `gorm:"column:last_login_at"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
}

func (participantModel) TableName() string { return "participants" }

type mutationModel struct {
	ID            uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	ParticipantID uuid.UUID                   `gorm:"column:participant_id;type:uuid"`
	ActorID       uuid.UUID                   `gorm:"column:actor_id;type:uuid"`
	ActorKind     string                      `gorm:"column:actor_kind"`
	BeforeState   datatypes.JSONMap           `gorm:"column:before_state;type:jsonb"`
	AfterState    datatypes.JSONMap           `gorm:"column:after_state;type:jsonb"`
	ChangedFields datatypes.JSONSlice[string] `gorm:"column:changed_fields;type:jsonb"`
	CreatedAt     time.Time                   `gorm:"column:created_at"`
}

func (mutationModel) TableName() string { return "participant_mutations" }

type otpCodeModel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string     `gorm:"column:email"`
	CodeHash  string     `gorm:"column:code_hash"`
	ExpiresAt time.Time  `gorm:"column:expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (otpCodeModel) TableName() string { return "otp_codes" }

type submissionModel struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ParticipantID   uuid.UUID  `gorm:"column:participant_id;type:uuid"`
	Type            string     `gorm:"column:type"`
	Payload         string     `gorm:"column:payload"`
	FileName        string     `gorm:"column:file_name"`
	MimeType        string     `gorm:"column:mime_type"`
	SizeBytes       int64      `gorm:"column:size_bytes"`
	Description     string     `gorm:"column:description"`
	Status          string     `gorm:"column:status"`
	AdminNotes      string     `gorm:"column:admin_notes"`
	InternalRemarks string     `gorm:"column:internal_remarks"`
	ReviewedBy      *uuid.UUID `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (submissionModel) TableName() string { return "submissions" }

type adminModel struct {
	ID           uuid.UUID                              `gorm:"column:id;type:uuid;primaryKey"`
	Name         string                                 `gorm:"column:name"`
	Email        string                                 `gorm:"column:email"`
	Phone        string                                 `gorm:"column:phone"`
	Department   string                                 `gorm:"column:department"`
	Government   string                                 `gorm:"column:government"`
	Place        string                                 `gorm:"column:place"`
	Role         string                                 `gorm:"column:role"`
	PasswordHash string                                 `gorm:"column:password_hash"`
	Permissions  datatypes.JSONType[domain.Permissions] `gorm:"column:permissions;type:jsonb"`
	LastLoginAt  *time.Time                             `gorm:"column:last_login_at"`
	CreatedAt    time.Time                              `gorm:"column:created_at"`
	UpdatedAt    time.Time                              `gorm:"column:updated_at"`
}

func (adminModel) TableName() string { return "admins" }

type sessionModel struct {
	SessionID      uuid.UUID  `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubjectID      uuid.UUID  `gorm:"column:subject_id;type:uuid"`
	SubjectKind    string     `gorm:"column:subject_kind"`
	IPAddress      *string    `gorm:"column:ip_address"`
	UserAgent      string     `gorm:"column:user_agent"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	LastActivityAt time.Time  `gorm:"column:last_activity_at"`
	ExpiresAt      time.Time  `gorm:"column:expires_at"`
	RevokedAt      *time.Time `gorm:"column:revoked_at"`
}

func (sessionModel) TableName() string { return "sessions" }

type settingModel struct {
	Key       string         `gorm:"column:key;primaryKey"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb"`
	UpdatedBy *uuid.UUID     `gorm:"column:updated_by;type:uuid"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (settingModel) TableName() string { return "settings" }

// fieldRules is the JSONB payload behind a form field; only the block of the field's kind is set.
type fieldRules struct {
	Text   *domain.TextRules   `json:"text,omitempty"`
	Number *domain.NumberRules `json:"number,omitempty"`
	Choice *domain.ChoiceRules `json:"choice,omitempty"`
}

type formFieldModel struct {
	ID          uuid.UUID                      `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                         `gorm:"column:name"`
	Label       string                         `gorm:"column:label"`
	Kind        string                         `gorm:"column:kind"`
	Placeholder string                         `gorm:"column:placeholder"`
	HelpText    string                         `gorm:"column:help_text"`
	Required    bool                           `gorm:"column:required"`
	Active      bool                           `gorm:"column:active"`
	SortOrder   int                            `gorm:"column:sort_order"`
	Rules       datatypes.JSONType[fieldRules] `gorm:"column:rules;type:jsonb"`
	CreatedAt   time.Time                      `gorm:"column:created_at"`
	UpdatedAt   time.Time                      `gorm:"column:updated_at"`
}

func (formFieldModel) TableName() string { return "form_fields" }

type cmsContentModel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Slug      string     `gorm:"column:slug"`
	Title     string     `gorm:"column:title"`
	Body      string     `gorm:"column:body"`
	Published bool       `gorm:"column:published"`
	UpdatedBy *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (cmsContentModel) TableName() string { return "cms_contents" }

type announcementModel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Title     string     `gorm:"column:title"`
	Body      string     `gorm:"column:body"`
	Priority  string     `gorm:"column:priority"`
	Published bool       `gorm:"column:published"`
	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (announcementModel) TableName() string { return "announcements" }

type outboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	FirstSeenAt    time.Time  `gorm:"column:first_seen_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (outboxModel) TableName() string { return "outbox_events" }
