package postgres

import (
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
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
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Participants:  &participantRepository{db: db},
		Mutations:     &mutationRepository{db: db},
		Codes:         &otpRepository{db: db},
		Submissions:   &submissionRepository{db: db},
		Admins:        &adminRepository{db: db},
		Sessions:      &sessionRepository{db: db},
		Settings:      &settingsRepository{db: db},
		FormFields:    &formFieldRepository{db: db},
		CMS:           &cmsRepository{db: db},
		Announcements: &announcementRepository{db: db},
		Analytics:     &analyticsRepository{db: db},
		Outbox:        &outboxRepository{db: db},
	}
}
