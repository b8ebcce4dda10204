package application

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

type Service struct {
	cfg           Config
	participants  ports.ParticipantRepository
	mutations     ports.MutationRepository
	codes         ports.OTPRepository
	submissions   ports.SubmissionRepository
	admins        ports.AdminRepository
	sessions      ports.SessionRepository
	settings      ports.SettingsRepository
	formFields    ports.FormFieldRepository
	cms           ports.CMSRepository
	announcements ports.AnnouncementRepository
	analytics     ports.AnalyticsRepository
	outbox        ports.OutboxRepository
	lockouts      ports.LockoutStore
	revocations   ports.SessionRevocationStore
	magicLinks    ports.MagicLinkStore
	settingsCache ports.SettingsCache
	hasher        ports.PasswordHasher
	tokenSigner   ports.TokenSigner
	mailer        ports.Mailer
	workbook      ports.WorkbookWriter
	validate      *validator.Validate
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
	Participants  ports.ParticipantRepository
	Mutations     ports.MutationRepository
	Codes         ports.OTPRepository
	Submissions   ports.SubmissionRepository
	Admins        ports.AdminRepository
	Sessions      ports.SessionRepository
	Settings      ports.SettingsRepository
	FormFields    ports.FormFieldRepository
	CMS           ports.CMSRepository
	Announcements ports.AnnouncementRepository
	Analytics     ports.AnalyticsRepository
	Outbox        ports.OutboxRepository
	Lockouts      ports.LockoutStore
	Revocations   ports.SessionRevocationStore
	MagicLinks    ports.MagicLinkStore
	SettingsCache ports.SettingsCache
	Hasher        ports.PasswordHasher
	TokenSigner   ports.TokenSigner
	Mailer        ports.Mailer
	Workbook      ports.WorkbookWriter
	// Now overrides the clock; tests pin it.
	Now func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := withConfigDefaults(deps.Config)
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		cfg:           cfg,
		participants:  deps.Participants,
		mutations:     deps.Mutations,
		codes:         deps.Codes,
		submissions:   deps.Submissions,
		admins:        deps.Admins,
		sessions:      deps.Sessions,
		settings:      deps.Settings,
		formFields:    deps.FormFields,
		cms:           deps.CMS,
		announcements: deps.Announcements,
		analytics:     deps.Analytics,
		outbox:        deps.Outbox,
		lockouts:      deps.Lockouts,
		revocations:   deps.Revocations,
		magicLinks:    deps.MagicLinks,
		settingsCache: deps.SettingsCache,
		hasher:        deps.Hasher,
		tokenSigner:   deps.TokenSigner,
		mailer:        deps.Mailer,
		workbook:      deps.Workbook,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		nowFn:         nowFn,
	}
}

func withConfigDefaults(cfg Config) Config {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 15 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.SessionAbsoluteTTL <= 0 {
		cfg.SessionAbsoluteTTL = 30 * 24 * time.Hour
	}
	if cfg.FailedLoginThreshold <= 0 {
		cfg.FailedLoginThreshold = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = domain.OTPTTL
	}
	if cfg.OTPIssueLimit <= 0 {
		cfg.OTPIssueLimit = 5
	}
	if cfg.OTPIssueWindow <= 0 {
		cfg.OTPIssueWindow = 10 * time.Minute
	}
	if cfg.OTPVerifyLimit <= 0 {
		cfg.OTPVerifyLimit = 5
	}
	if cfg.OTPVerifyWindow <= 0 {
		cfg.OTPVerifyWindow = 10 * time.Minute
	}
	if cfg.MagicLinkTTL <= 0 {
		cfg.MagicLinkTTL = 10 * time.Minute
	}
	if cfg.ContestName == "" {
		cfg.ContestName = "ContestZen"
	}
	if cfg.TransitionPolicy == "" {
		cfg.TransitionPolicy = domain.TransitionPermissive
	}
	if cfg.SettingsCacheTTL <= 0 {
		cfg.SettingsCacheTTL = 30 * time.Second
	}
	if cfg.AnalyticsDays <= 0 {
		cfg.AnalyticsDays = 30
	}
	return cfg
}

// TransitionPolicy reports the configured submission status policy.
func (s *Service) TransitionPolicy() domain.TransitionPolicy {
	return s.cfg.TransitionPolicy
}
