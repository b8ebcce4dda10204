package postgres

import (
	"errors"
	"strings"

	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func toParticipantModel(p domain.Participant) participantModel {
	extra := datatypes.JSONMap(p.ExtraFields)
	if extra == nil {
		extra = datatypes.JSONMap{}
	}
	return participantModel{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		Profession:      p.Profession,
		ProfessionOther: p.ProfessionOther,
		Gender:          string(p.Gender),
		Age:             p.Age,
		ContestType:     p.ContestType,
		PhotoURL:        p.PhotoURL,
		LoginEnabled:    p.LoginEnabled,
		UploadEnabled:   p.UploadEnabled,
		AuthUserID:      p.AuthUserID,
		ExtraFields:     extra,
		LastLoginAt:     p.LastLoginAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toDomainParticipant(row participantModel) domain.Participant {
	var extra map[string]any
	if len(row.ExtraFields) > 0 {
		extra = map[string]any(row.ExtraFields)
	}
	return domain.Participant{
		ID:              row.ID,
		Name:            row.Name,
		Email:           row.Email,
		Profession:      row.Profession,
		ProfessionOther: row.ProfessionOther,
		Gender:          domain.Gender(row.Gender),
		Age:             row.Age,
		ContestType:     row.ContestType,
		PhotoURL:        row.PhotoURL,
		LoginEnabled:    row.LoginEnabled,
		UploadEnabled:   row.UploadEnabled,
		AuthUserID:      row.AuthUserID,
		ExtraFields:     extra,
		LastLoginAt:     row.LastLoginAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func toDomainMutation(row mutationModel) domain.ParticipantMutation {
	return domain.ParticipantMutation{
		ID:            row.ID,
		ParticipantID: row.ParticipantID,
		ActorID:       row.ActorID,
		ActorKind:     domain.SubjectKind(row.ActorKind),
		Before:        map[string]any(row.BeforeState),
		After:         map[string]any(row.AfterState),
		ChangedFields: []string(row.ChangedFields),
		CreatedAt:     row.CreatedAt,
	}
}

func toDomainOTP(row otpCodeModel) domain.OneTimeCode {
	return domain.OneTimeCode{
		ID:        row.ID,
		Email:     row.Email,
		CodeHash:  row.CodeHash,
		ExpiresAt: row.ExpiresAt,
		UsedAt:    row.UsedAt,
		CreatedAt: row.CreatedAt,
	}
}

func toSubmissionModel(s domain.Submission) submissionModel {
	return submissionModel{
		ID:              s.ID,
		ParticipantID:   s.ParticipantID,
		Type:            string(s.Type),
		Payload:         s.Payload,
		FileName:        s.FileName,
		MimeType:        s.MimeType,
		SizeBytes:       s.SizeBytes,
		Description:     s.Description,
		Status:          string(s.Status),
		AdminNotes:      s.AdminNotes,
		InternalRemarks: s.InternalRemarks,
		ReviewedBy:      s.ReviewedBy,
		ReviewedAt:      s.ReviewedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toDomainSubmission(row submissionModel) domain.Submission {
	return domain.Submission{
		ID:              row.ID,
		ParticipantID:   row.ParticipantID,
		Type:            domain.SubmissionType(row.Type),
		Payload:         row.Payload,
		FileName:        row.FileName,
		MimeType:        row.MimeType,
		SizeBytes:       row.SizeBytes,
		Description:     row.Description,
		Status:          domain.SubmissionStatus(row.Status),
		AdminNotes:      row.AdminNotes,
		InternalRemarks: row.InternalRemarks,
		ReviewedBy:      row.ReviewedBy,
		ReviewedAt:      row.ReviewedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func toAdminModel(a domain.Admin) adminModel {
	return adminModel{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		Department:   a.Department,
		Government:   string(a.Government),
		Place:        a.Place,
		Role:         string(a.Role),
		PasswordHash: a.PasswordHash,
		Permissions:  datatypes.NewJSONType(a.Permissions),
		LastLoginAt:  a.LastLoginAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toDomainAdmin(row adminModel) domain.Admin {
	return domain.Admin{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Phone:        row.Phone,
		Department:   row.Department,
		Government:   domain.Government(row.Government),
		Place:        row.Place,
		Role:         domain.AdminRole(row.Role),
		PasswordHash: row.PasswordHash,
		Permissions:  row.Permissions.Data(),
		LastLoginAt:  row.LastLoginAt,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainSession(row sessionModel) domain.Session {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.Session{
		SessionID:      row.SessionID,
		SubjectID:      row.SubjectID,
		SubjectKind:    domain.SubjectKind(row.SubjectKind),
		IPAddress:      ip,
		UserAgent:      row.UserAgent,
		CreatedAt:      row.CreatedAt,
		LastActivityAt: row.LastActivityAt,
		ExpiresAt:      row.ExpiresAt,
		RevokedAt:      row.RevokedAt,
	}
}

func toFormFieldModel(f domain.FormField) formFieldModel {
	return formFieldModel{
		ID:          f.ID,
		Name:        f.Name,
		Label:       f.Label,
		Kind:        string(f.Kind),
		Placeholder: f.Placeholder,
		HelpText:    f.HelpText,
		Required:    f.Required,
		Active:      f.Active,
		SortOrder:   f.SortOrder,
		Rules:       datatypes.NewJSONType(fieldRules{Text: f.Text, Number: f.Number, Choice: f.Choice}),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toDomainFormField(row formFieldModel) domain.FormField {
	rules := row.Rules.Data()
	return domain.FormField{
		ID:          row.ID,
		Name:        row.Name,
		Label:       row.Label,
		Kind:        domain.FieldKind(row.Kind),
		Placeholder: row.Placeholder,
		HelpText:    row.HelpText,
		Required:    row.Required,
		Active:      row.Active,
		SortOrder:   row.SortOrder,
		Text:        rules.Text,
		Number:      rules.Number,
		Choice:      rules.Choice,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toCMSModel(c domain.CMSContent) cmsContentModel {
	return cmsContentModel{
		ID:        c.ID,
		Slug:      c.Slug,
		Title:     c.Title,
		Body:      c.Body,
		Published: c.Published,
		UpdatedBy: c.UpdatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toDomainCMS(row cmsContentModel) domain.CMSContent {
	return domain.CMSContent{
		ID:        row.ID,
		Slug:      row.Slug,
		Title:     row.Title,
		Body:      row.Body,
		Published: row.Published,
		UpdatedBy: row.UpdatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toAnnouncementModel(a domain.Announcement) announcementModel {
	return announcementModel{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Priority:  string(a.Priority),
		Published: a.Published,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toDomainAnnouncement(row announcementModel) domain.Announcement {
	return domain.Announcement{
		ID:        row.ID,
		Title:     row.Title,
		Body:      row.Body,
		Priority:  domain.AnnouncementPriority(row.Priority),
		Published: row.Published,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toOutboxModel(event ports.OutboxEvent) outboxModel {
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	return outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      string(payload),
		CreatedAt:    event.OccurredAt,
		FirstSeenAt:  event.OccurredAt,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// notFound maps gorm's missing-row error onto the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
