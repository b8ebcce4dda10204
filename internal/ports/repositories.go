package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
)

// ParticipantFilter narrows the back-office participant listing.
type ParticipantFilter struct {
	Search      string
	ContestType string
	Limit       int
	Offset      int
}

// ParticipantRepository persists contestants. Registration writes the row and its
// outbox event in one transaction.
type ParticipantRepository interface {
	CreateWithOutboxTx(ctx context.Context, participant domain.Participant, event OutboxEvent) (domain.Participant, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Participant, error)
	GetByEmail(ctx context.Context, email string) (domain.Participant, error)
	GetByAuthUserID(ctx context.Context, authUserID uuid.UUID) (domain.Participant, error)
	List(ctx context.Context, filter ParticipantFilter) ([]domain.Participant, int64, error)
	ListAll(ctx context.Context) ([]domain.Participant, error)
	Update(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	LinkAuthUser(ctx context.Context, id, authUserID uuid.UUID, at time.Time) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// MutationRepository stores participant before/after snapshots.
type MutationRepository interface {
	Insert(ctx context.Context, mutation domain.ParticipantMutation) error
	ListByParticipant(ctx context.Context, participantID uuid.UUID, limit, offset int) ([]domain.ParticipantMutation, error)
}

// OTPRepository owns the one-time-code lifecycle. Both mutating methods are atomic per email.
type OTPRepository interface {
	// ReplaceForEmail deletes every code of the email and inserts the new one.
	ReplaceForEmail(ctx context.Context, email, codeHash string, createdAt, expiresAt time.Time) (domain.OneTimeCode, error)
	// ConsumeLatest marks the newest unused unexpired code used when its hash matches.
	// Anything else returns domain.ErrInvalidOTP.
	ConsumeLatest(ctx context.Context, email, codeHash string, now time.Time) (domain.OneTimeCode, error)
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error)
}

// SubmissionFilter narrows the review queue.
type SubmissionFilter struct {
	Status domain.SubmissionStatus
	Type   domain.SubmissionType
	Limit  int
	Offset int
}

// ReviewFunc mutates a locked submission in place and optionally returns an event to enqueue
// in the same transaction.
type ReviewFunc func(current *domain.Submission) (*OutboxEvent, error)

type SubmissionRepository interface {
	// CreateWithOutboxTx fails with domain.ErrAlreadySubmitted when the participant already has a row.
	CreateWithOutboxTx(ctx context.Context, submission domain.Submission, event OutboxEvent) (domain.Submission, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Submission, error)
	GetByParticipant(ctx context.Context, participantID uuid.UUID) (domain.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, int64, error)
	Review(ctx context.Context, id uuid.UUID, apply ReviewFunc) (domain.Submission, error)
}

type AdminRepository interface {
	Create(ctx context.Context, admin domain.Admin) (domain.Admin, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (domain.Admin, error)
	List(ctx context.Context) ([]domain.Admin, error)
	Update(ctx context.Context, admin domain.Admin) (domain.Admin, error)
	// DeleteGuarded removes the admin unless it is the last superadmin (domain.ErrLastSuperadmin).
	DeleteGuarded(ctx context.Context, id uuid.UUID) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SessionCreateParams captures metadata required to create a session record.
type SessionCreateParams struct {
	SubjectID      uuid.UUID
	SubjectKind    domain.SubjectKind
	IPAddress      string
	UserAgent      string
	ExpiresAt      time.Time
	LastActivityAt time.Time
}

// SessionRepository manages persistent session lifecycle. It is the source of truth for revocation.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)
	TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt time.Time) error
	RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error
	RevokeAllBySubject(ctx context.Context, subjectID uuid.UUID, revokedAt time.Time) error
}

// SettingsRepository stores the JSON configuration singletons by key.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Put(ctx context.Context, key string, value json.RawMessage, updatedBy *uuid.UUID, at time.Time) error
}

type FormFieldRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.FormField, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.FormField, error)
	Create(ctx context.Context, field domain.FormField) (domain.FormField, error)
	Update(ctx context.Context, field domain.FormField) (domain.FormField, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CMSRepository interface {
	List(ctx context.Context, publishedOnly bool) ([]domain.CMSContent, error)
	GetBySlug(ctx context.Context, slug string) (domain.CMSContent, error)
	Create(ctx context.Context, content domain.CMSContent) (domain.CMSContent, error)
	Update(ctx context.Context, content domain.CMSContent) (domain.CMSContent, error)
	Delete(ctx context.Context, slug string) error
}

type AnnouncementRepository interface {
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]domain.Announcement, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Announcement, error)
	Create(ctx context.Context, announcement domain.Announcement) (domain.Announcement, error)
	Update(ctx context.Context, announcement domain.Announcement) (domain.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DailyCount is one bucket of a per-day series.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// AnalyticsSnapshot is the aggregate read model behind the dashboard.
type AnalyticsSnapshot struct {
	TotalParticipants   int64            `json:"total_participants"`
	LoginEnabled        int64            `json:"login_enabled"`
	UploadEnabled       int64            `json:"upload_enabled"`
	ByGender            map[string]int64 `json:"by_gender"`
	ByContestType       map[string]int64 `json:"by_contest_type"`
	ByProfession        map[string]int64 `json:"by_profession"`
	TotalSubmissions    int64            `json:"total_submissions"`
	SubmissionsByStatus map[string]int64 `json:"submissions_by_status"`
	SubmissionsByType   map[string]int64 `json:"submissions_by_type"`
	RegistrationsPerDay []DailyCount     `json:"registrations_per_day"`
	TotalAdmins         int64            `json:"total_admins"`
}

type AnalyticsRepository interface {
	Snapshot(ctx context.Context, since time.Time) (AnalyticsSnapshot, error)
}

// OutboxEvent is the write-side event payload prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the publish-retry workflow for domain events.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
