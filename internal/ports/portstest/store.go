// Package portstest provides in-memory implementations of the ports for tests.
package portstest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

// Store backs every repository with maps guarded by one mutex, so multi-row checks are atomic
// the same way the postgres transactions are.
type Store struct {
	mu            sync.Mutex
	participants  map[uuid.UUID]domain.Participant
	mutations     []domain.ParticipantMutation
	codes         []domain.OneTimeCode
	submissions   map[uuid.UUID]domain.Submission
	admins        map[uuid.UUID]domain.Admin
	sessions      map[uuid.UUID]domain.Session
	settings      map[string]json.RawMessage
	formFields    map[uuid.UUID]domain.FormField
	cms           map[string]domain.CMSContent
	announcements map[uuid.UUID]domain.Announcement
	outbox        []ports.OutboxRecord

	// FailMutations makes mutation inserts fail.
	FailMutations bool
}

func NewStore() *Store {
	return &Store{
		participants:  map[uuid.UUID]domain.Participant{},
		submissions:   map[uuid.UUID]domain.Submission{},
		admins:        map[uuid.UUID]domain.Admin{},
		sessions:      map[uuid.UUID]domain.Session{},
		settings:      map[string]json.RawMessage{},
		formFields:    map[uuid.UUID]domain.FormField{},
		cms:           map[string]domain.CMSContent{},
		announcements: map[uuid.UUID]domain.Announcement{},
	}
}

// Participants returns the participant repository view of the store.
func (s *Store) Participants() *ParticipantRepo   { return &ParticipantRepo{s} }
func (s *Store) Mutations() *MutationRepo         { return &MutationRepo{s} }
func (s *Store) Codes() *CodeRepo                 { return &CodeRepo{s} }
func (s *Store) Submissions() *SubmissionRepo     { return &SubmissionRepo{s} }
func (s *Store) Admins() *AdminRepo               { return &AdminRepo{s} }
func (s *Store) Sessions() *SessionRepo           { return &SessionRepo{s} }
func (s *Store) Settings() *SettingsRepo          { return &SettingsRepo{s} }
func (s *Store) FormFields() *FormFieldRepo       { return &FormFieldRepo{s} }
func (s *Store) CMS() *CMSRepo                    { return &CMSRepo{s} }
func (s *Store) Announcements() *AnnouncementRepo { return &AnnouncementRepo{s} }
func (s *Store) Analytics() *AnalyticsRepo        { return &AnalyticsRepo{s} }
func (s *Store) Outbox() *OutboxRepo              { return &OutboxRepo{s} }

// ValidCodes counts usable codes for email at now.
func (s *Store) ValidCodes(email string, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.codes {
		if c.Email == email && c.Valid(now) {
			n++
		}
	}
	return n
}

// SubmissionCount counts stored submissions of a participant.
func (s *Store) SubmissionCount(participantID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.submissions {
		if sub.ParticipantID == participantID {
			n++
		}
	}
	return n
}

// EventTypes lists enqueued outbox event types in order.
func (s *Store) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.outbox))
	for _, r := range s.outbox {
		out = append(out, r.EventType)
	}
	return out
}

type ParticipantRepo struct{ s *Store }

func (r *ParticipantRepo) CreateWithOutboxTx(_ context.Context, p domain.Participant, event ports.OutboxEvent) (domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.participants {
		if existing.Email == p.Email {
			return domain.Participant{}, domain.ErrConflict
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.participants[p.ID] = p
	r.s.appendOutbox(event)
	return p, nil
}

func (r *ParticipantRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *ParticipantRepo) GetByEmail(_ context.Context, email string) (domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participants {
		if p.Email == email {
			return p, nil
		}
	}
	return domain.Participant{}, domain.ErrNotFound
}

func (r *ParticipantRepo) GetByAuthUserID(_ context.Context, authUserID uuid.UUID) (domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participants {
		if p.AuthUserID != nil && *p.AuthUserID == authUserID {
			return p, nil
		}
	}
	return domain.Participant{}, domain.ErrNotFound
}

func (r *ParticipantRepo) List(_ context.Context, f ports.ParticipantFilter) ([]domain.Participant, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []domain.Participant
	search := strings.ToLower(f.Search)
	for _, p := range r.s.participants {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(p.Email, search) {
			continue
		}
		if f.ContestType != "" && p.ContestType != f.ContestType {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	return window(matched, f.Limit, f.Offset), total, nil
}

func (r *ParticipantRepo) ListAll(_ context.Context) ([]domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Participant, 0, len(r.s.participants))
	for _, p := range r.s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *ParticipantRepo) Update(_ context.Context, p domain.Participant) (domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.participants[p.ID]; !ok {
		return domain.Participant{}, domain.ErrNotFound
	}
	r.s.participants[p.ID] = p
	return p, nil
}

func (r *ParticipantRepo) LinkAuthUser(_ context.Context, id, authUserID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.AuthUserID == nil {
		p.AuthUserID = &authUserID
		p.UpdatedAt = at
		r.s.participants[id] = p
	}
	return nil
}

func (r *ParticipantRepo) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.LastLoginAt = &at
	r.s.participants[id] = p
	return nil
}

type MutationRepo struct{ s *Store }

func (r *MutationRepo) Insert(_ context.Context, m domain.ParticipantMutation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailMutations {
		return errors.New("audit table unavailable")
	}
	r.s.mutations = append(r.s.mutations, m)
	return nil
}

func (r *MutationRepo) ListByParticipant(_ context.Context, participantID uuid.UUID, limit, offset int) ([]domain.ParticipantMutation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ParticipantMutation
	for i := len(r.s.mutations) - 1; i >= 0; i-- {
		if r.s.mutations[i].ParticipantID == participantID {
			out = append(out, r.s.mutations[i])
		}
	}
	return window(out, limit, offset), nil
}

type CodeRepo struct{ s *Store }

func (r *CodeRepo) ReplaceForEmail(_ context.Context, email, codeHash string, createdAt, expiresAt time.Time) (domain.OneTimeCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.codes[:0]
	for _, c := range r.s.codes {
		if c.Email != email {
			kept = append(kept, c)
		}
	}
	code := domain.OneTimeCode{ID: uuid.New(), Email: email, CodeHash: codeHash, CreatedAt: createdAt, ExpiresAt: expiresAt}
	r.s.codes = append(kept, code)
	return code, nil
}

func (r *CodeRepo) ConsumeLatest(_ context.Context, email, codeHash string, now time.Time) (domain.OneTimeCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	latest := -1
	for i, c := range r.s.codes {
		if c.Email != email || !c.Valid(now) {
			continue
		}
		if latest < 0 || c.CreatedAt.After(r.s.codes[latest].CreatedAt) {
			latest = i
		}
	}
	if latest < 0 || subtle.ConstantTimeCompare([]byte(r.s.codes[latest].CodeHash), []byte(codeHash)) != 1 {
		return domain.OneTimeCode{}, domain.ErrInvalidOTP
	}
	used := now
	r.s.codes[latest].UsedAt = &used
	return r.s.codes[latest], nil
}

func (r *CodeRepo) DeleteExpired(_ context.Context, before time.Time, limit int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	kept := r.s.codes[:0]
	for _, c := range r.s.codes {
		if (c.ExpiresAt.Before(before) || c.UsedAt != nil) && int(n) < limit {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.s.codes = kept
	return n, nil
}

type SubmissionRepo struct{ s *Store }

func (r *SubmissionRepo) CreateWithOutboxTx(_ context.Context, sub domain.Submission, event ports.OutboxEvent) (domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.submissions {
		if existing.ParticipantID == sub.ParticipantID {
			return domain.Submission{}, domain.ErrAlreadySubmitted
		}
	}
	r.s.submissions[sub.ID] = sub
	r.s.appendOutbox(event)
	return sub, nil
}

func (r *SubmissionRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return domain.Submission{}, domain.ErrNotFound
	}
	return sub, nil
}

func (r *SubmissionRepo) GetByParticipant(_ context.Context, participantID uuid.UUID) (domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.submissions {
		if sub.ParticipantID == participantID {
			return sub, nil
		}
	}
	return domain.Submission{}, domain.ErrNotFound
}

func (r *SubmissionRepo) List(_ context.Context, f ports.SubmissionFilter) ([]domain.Submission, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Submission
	for _, sub := range r.s.submissions {
		if f.Status != "" && sub.Status != f.Status {
			continue
		}
		if f.Type != "" && sub.Type != f.Type {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (r *SubmissionRepo) Review(_ context.Context, id uuid.UUID, apply ports.ReviewFunc) (domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return domain.Submission{}, domain.ErrNotFound
	}
	event, err := apply(&sub)
	if err != nil {
		return domain.Submission{}, err
	}
	r.s.submissions[id] = sub
	if event != nil {
		r.s.appendOutbox(*event)
	}
	return sub, nil
}

type AdminRepo struct{ s *Store }

func (r *AdminRepo) Create(_ context.Context, a domain.Admin) (domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.admins {
		if existing.Email == a.Email {
			return domain.Admin{}, domain.ErrConflict
		}
	}
	r.s.admins[a.ID] = a
	return a, nil
}

func (r *AdminRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return domain.Admin{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *AdminRepo) GetByEmail(_ context.Context, email string) (domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Admin{}, domain.ErrNotFound
}

func (r *AdminRepo) List(_ context.Context) ([]domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Admin, 0, len(r.s.admins))
	for _, a := range r.s.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AdminRepo) Update(_ context.Context, a domain.Admin) (domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.admins[a.ID]
	if !ok {
		return domain.Admin{}, domain.ErrNotFound
	}
	if current.Role == domain.RoleSuperadmin && a.Role != domain.RoleSuperadmin && r.s.superadminsLocked() <= 1 {
		return domain.Admin{}, domain.ErrLastSuperadmin
	}
	r.s.admins[a.ID] = a
	return a, nil
}

func (r *AdminRepo) DeleteGuarded(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Role == domain.RoleSuperadmin && r.s.superadminsLocked() <= 1 {
		return domain.ErrLastSuperadmin
	}
	delete(r.s.admins, id)
	return nil
}

func (r *AdminRepo) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.LastLoginAt = &at
	r.s.admins[id] = a
	return nil
}

func (s *Store) superadminsLocked() int {
	n := 0
	for _, a := range s.admins {
		if a.Role == domain.RoleSuperadmin {
			n++
		}
	}
	return n
}

type SessionRepo struct{ s *Store }

func (r *SessionRepo) Create(_ context.Context, p ports.SessionCreateParams) (domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session := domain.Session{
		SessionID:      uuid.New(),
		SubjectID:      p.SubjectID,
		SubjectKind:    p.SubjectKind,
		IPAddress:      p.IPAddress,
		UserAgent:      p.UserAgent,
		CreatedAt:      p.LastActivityAt,
		LastActivityAt: p.LastActivityAt,
		ExpiresAt:      p.ExpiresAt,
	}
	r.s.sessions[session.SessionID] = session
	return session, nil
}

func (r *SessionRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepo) TouchActivity(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if session, ok := r.s.sessions[id]; ok {
		session.LastActivityAt = at
		r.s.sessions[id] = session
	}
	return nil
}

func (r *SessionRepo) RevokeByID(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	session.RevokedAt = &at
	r.s.sessions[id] = session
	return nil
}

func (r *SessionRepo) RevokeAllBySubject(_ context.Context, subjectID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, session := range r.s.sessions {
		if session.SubjectID == subjectID && session.RevokedAt == nil {
			session.RevokedAt = &at
			r.s.sessions[id] = session
		}
	}
	return nil
}

type SettingsRepo struct{ s *Store }

func (r *SettingsRepo) Get(_ context.Context, key string) (json.RawMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	raw, ok := r.s.settings[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append(json.RawMessage(nil), raw...), nil
}

func (r *SettingsRepo) Put(_ context.Context, key string, value json.RawMessage, _ *uuid.UUID, _ time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings[key] = append(json.RawMessage(nil), value...)
	return nil
}

type FormFieldRepo struct{ s *Store }

func (r *FormFieldRepo) List(_ context.Context, activeOnly bool) ([]domain.FormField, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.FormField
	for _, f := range r.s.formFields {
		if activeOnly && !f.Active {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *FormFieldRepo) GetByID(_ context.Context, id uuid.UUID) (domain.FormField, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.formFields[id]
	if !ok {
		return domain.FormField{}, domain.ErrNotFound
	}
	return f, nil
}

func (r *FormFieldRepo) Create(_ context.Context, f domain.FormField) (domain.FormField, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.formFields {
		if existing.Name == f.Name {
			return domain.FormField{}, domain.ErrConflict
		}
	}
	r.s.formFields[f.ID] = f
	return f, nil
}

func (r *FormFieldRepo) Update(_ context.Context, f domain.FormField) (domain.FormField, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.formFields[f.ID]; !ok {
		return domain.FormField{}, domain.ErrNotFound
	}
	r.s.formFields[f.ID] = f
	return f, nil
}

func (r *FormFieldRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.formFields[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.formFields, id)
	return nil
}

type CMSRepo struct{ s *Store }

func (r *CMSRepo) List(_ context.Context, publishedOnly bool) ([]domain.CMSContent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.CMSContent
	for _, c := range r.s.cms {
		if publishedOnly && !c.Published {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *CMSRepo) GetBySlug(_ context.Context, slug string) (domain.CMSContent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cms[slug]
	if !ok {
		return domain.CMSContent{}, domain.ErrNotFound
	}
	return c, nil
}

func (r *CMSRepo) Create(_ context.Context, c domain.CMSContent) (domain.CMSContent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cms[c.Slug]; ok {
		return domain.CMSContent{}, domain.ErrConflict
	}
	r.s.cms[c.Slug] = c
	return c, nil
}

func (r *CMSRepo) Update(_ context.Context, c domain.CMSContent) (domain.CMSContent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cms[c.Slug]; !ok {
		return domain.CMSContent{}, domain.ErrNotFound
	}
	r.s.cms[c.Slug] = c
	return c, nil
}

func (r *CMSRepo) Delete(_ context.Context, slug string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cms[slug]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.cms, slug)
	return nil
}

type AnnouncementRepo struct{ s *Store }

func (r *AnnouncementRepo) List(_ context.Context, publishedOnly bool, limit, offset int) ([]domain.Announcement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Announcement
	for _, a := range r.s.announcements {
		if publishedOnly && !a.Published {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, limit, offset), nil
}

func (r *AnnouncementRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Announcement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.announcements[id]
	if !ok {
		return domain.Announcement{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *AnnouncementRepo) Create(_ context.Context, a domain.Announcement) (domain.Announcement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.announcements[a.ID] = a
	return a, nil
}

func (r *AnnouncementRepo) Update(_ context.Context, a domain.Announcement) (domain.Announcement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.announcements[a.ID]; !ok {
		return domain.Announcement{}, domain.ErrNotFound
	}
	r.s.announcements[a.ID] = a
	return a, nil
}

func (r *AnnouncementRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.announcements[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.announcements, id)
	return nil
}

type AnalyticsRepo struct{ s *Store }

func (r *AnalyticsRepo) Snapshot(_ context.Context, since time.Time) (ports.AnalyticsSnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := ports.AnalyticsSnapshot{
		ByGender:            map[string]int64{},
		ByContestType:       map[string]int64{},
		ByProfession:        map[string]int64{},
		SubmissionsByStatus: map[string]int64{},
		SubmissionsByType:   map[string]int64{},
		TotalAdmins:         int64(len(r.s.admins)),
	}
	perDay := map[time.Time]int64{}
	for _, p := range r.s.participants {
		snap.TotalParticipants++
		if p.LoginEnabled {
			snap.LoginEnabled++
		}
		if p.UploadEnabled {
			snap.UploadEnabled++
		}
		snap.ByGender[string(p.Gender)]++
		snap.ByContestType[p.ContestType]++
		snap.ByProfession[p.Profession]++
		if !p.CreatedAt.Before(since) {
			perDay[p.CreatedAt.UTC().Truncate(24*time.Hour)]++
		}
	}
	for day, n := range perDay {
		snap.RegistrationsPerDay = append(snap.RegistrationsPerDay, ports.DailyCount{Day: day, Count: n})
	}
	for _, sub := range r.s.submissions {
		snap.TotalSubmissions++
		snap.SubmissionsByStatus[string(sub.Status)]++
		snap.SubmissionsByType[string(sub.Type)]++
	}
	return snap, nil
}

type OutboxRepo struct{ s *Store }

func (r *OutboxRepo) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.appendOutbox(event)
	return nil
}

func (r *OutboxRepo) ClaimUnpublished(_ context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	var out []ports.OutboxRecord
	for i := range r.s.outbox {
		rec := &r.s.outbox[i]
		if rec.PublishedAt != nil || rec.DeadLetteredAt != nil {
			continue
		}
		if rec.ClaimUntil != nil && rec.ClaimUntil.After(now) {
			continue
		}
		token, until := claimToken, claimUntil
		rec.ClaimToken, rec.ClaimUntil = &token, &until
		out = append(out, *rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepo) MarkPublished(_ context.Context, id uuid.UUID, claimToken string, at time.Time) error {
	return r.update(id, claimToken, func(rec *ports.OutboxRecord) { rec.PublishedAt = &at })
}

func (r *OutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, claimToken, errMsg string, _ time.Time) error {
	return r.update(id, claimToken, func(rec *ports.OutboxRecord) {
		rec.RetryCount++
		rec.LastError = &errMsg
	})
}

func (r *OutboxRepo) MarkDeadLettered(_ context.Context, id uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return r.update(id, claimToken, func(rec *ports.OutboxRecord) {
		rec.DeadLetteredAt = &at
		rec.LastError = &errMsg
	})
}

// Records returns a copy of the outbox.
func (r *OutboxRepo) Records() []ports.OutboxRecord {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]ports.OutboxRecord(nil), r.s.outbox...)
}

func (r *OutboxRepo) update(id uuid.UUID, claimToken string, fn func(*ports.OutboxRecord)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.outbox {
		rec := &r.s.outbox[i]
		if rec.OutboxID != id {
			continue
		}
		if rec.ClaimToken == nil || *rec.ClaimToken != claimToken {
			return domain.ErrConflict
		}
		fn(rec)
		rec.ClaimToken, rec.ClaimUntil = nil, nil
		return nil
	}
	return domain.ErrNotFound
}

func (s *Store) appendOutbox(event ports.OutboxEvent) {
	s.outbox = append(s.outbox, ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      event.Payload,
		CreatedAt:    event.OccurredAt,
	})
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
