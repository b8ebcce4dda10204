package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

func toParticipantView(p domain.Participant) ParticipantView {
	return ParticipantView{
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
		ExtraFields:     p.ExtraFields,
		LastLoginAt:     p.LastLoginAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// Register creates a participant while the registration gate is open.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (ParticipantView, error) {
	gate, err := s.RegistrationControl(ctx)
	if err != nil {
		return ParticipantView{}, err
	}
	if !gate.Enabled {
		return ParticipantView{}, &domain.GateError{
			Err:     domain.ErrRegistrationClosed,
			Title:   gate.ClosedTitle,
			Message: gate.ClosedMessage,
			Contact: strings.TrimSpace(strings.Join([]string{gate.ContactEmail, gate.ContactPhone}, " ")),
		}
	}

	if err := s.validateStruct(req); err != nil {
		return ParticipantView{}, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return ParticipantView{}, err
	}
	gender, err := domain.ParseGender(req.Gender)
	if err != nil {
		return ParticipantView{}, err
	}
	if err := domain.ValidateAge(req.Age); err != nil {
		return ParticipantView{}, err
	}
	if err := domain.ValidateProfession(req.Profession, req.ProfessionOther); err != nil {
		return ParticipantView{}, err
	}
	extra, err := s.validateExtraFields(ctx, req.ExtraFields)
	if err != nil {
		return ParticipantView{}, err
	}

	now := s.nowFn()
	participant := domain.Participant{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(req.Name),
		Email:           email,
		Profession:      strings.TrimSpace(req.Profession),
		ProfessionOther: strings.TrimSpace(req.ProfessionOther),
		Gender:          gender,
		Age:             req.Age,
		ContestType:     strings.TrimSpace(req.ContestType),
		PhotoURL:        strings.TrimSpace(req.PhotoURL),
		LoginEnabled:    true,
		UploadEnabled:   s.cfg.DefaultUploadEnabled,
		ExtraFields:     extra,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	event, err := newEvent("participant.registered", participant.ID.String(), map[string]any{
		"participant_id": participant.ID,
		"contest_type":   participant.ContestType,
	}, now)
	if err != nil {
		return ParticipantView{}, err
	}
	created, err := s.participants.CreateWithOutboxTx(ctx, participant, event)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return ParticipantView{}, fmt.Errorf("%w: this email is already registered", domain.ErrConflict)
		}
		return ParticipantView{}, err
	}
	return toParticipantView(created), nil
}

func (s *Service) validateExtraFields(ctx context.Context, answers map[string]any) (map[string]any, error) {
	fields, err := s.formFields.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load form fields: %w", err)
	}
	return domain.ValidateAnswers(fields, answers)
}

func (s *Service) GetParticipant(ctx context.Context, id uuid.UUID) (ParticipantView, error) {
	p, err := s.participants.GetByID(ctx, id)
	if err != nil {
		return ParticipantView{}, err
	}
	return toParticipantView(p), nil
}

func (s *Service) ListParticipants(ctx context.Context, q ParticipantListQuery) (ListResult[ParticipantView], error) {
	page, limit, offset := pageBounds(q.Page, q.Limit)
	items, total, err := s.participants.List(ctx, ports.ParticipantFilter{
		Search:      strings.TrimSpace(q.Search),
		ContestType: strings.TrimSpace(q.ContestType),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return ListResult[ParticipantView]{}, err
	}
	views := make([]ParticipantView, 0, len(items))
	for _, p := range items {
		views = append(views, toParticipantView(p))
	}
	return ListResult[ParticipantView]{Items: views, Total: total, Page: page, Limit: limit}, nil
}

// UpdateMyProfile applies a participant's own edit.
func (s *Service) UpdateMyProfile(ctx context.Context, principal Principal, patch ProfilePatch) (ParticipantView, error) {
	if principal.SubjectKind != domain.SubjectParticipant {
		return ParticipantView{}, domain.ErrForbidden
	}
	return s.updateParticipant(ctx, principal.SubjectID, domain.SubjectParticipant, principal.SubjectID, ParticipantPatch{ProfilePatch: patch})
}

// UpdateParticipant applies an administrator edit, including the login and upload switches.
func (s *Service) UpdateParticipant(ctx context.Context, actorID, id uuid.UUID, patch ParticipantPatch) (ParticipantView, error) {
	return s.updateParticipant(ctx, actorID, domain.SubjectAdmin, id, patch)
}

func (s *Service) updateParticipant(ctx context.Context, actorID uuid.UUID, actorKind domain.SubjectKind, id uuid.UUID, patch ParticipantPatch) (ParticipantView, error) {
	if err := s.validateStruct(patch); err != nil {
		return ParticipantView{}, err
	}
	current, err := s.participants.GetByID(ctx, id)
	if err != nil {
		return ParticipantView{}, err
	}
	next := current
	if err := s.applyParticipantPatch(ctx, &next, patch); err != nil {
		return ParticipantView{}, err
	}

	before := participantSnapshot(current)
	after := participantSnapshot(next)
	changed := changedFields(before, after)
	if len(changed) == 0 {
		return toParticipantView(current), nil
	}
	next.UpdatedAt = s.nowFn()

	updated, err := s.participants.Update(ctx, next)
	if err != nil {
		return ParticipantView{}, err
	}
	s.recordMutation(ctx, domain.ParticipantMutation{
		ID:            uuid.New(),
		ParticipantID: id,
		ActorID:       actorID,
		ActorKind:     actorKind,
		Before:        pick(before, changed),
		After:         pick(after, changed),
		ChangedFields: changed,
		CreatedAt:     next.UpdatedAt,
	})
	if current.LoginEnabled && !updated.LoginEnabled {
		s.revokeSubjectSessions(ctx, id)
	}
	return toParticipantView(updated), nil
}

func (s *Service) applyParticipantPatch(ctx context.Context, p *domain.Participant, patch ParticipantPatch) error {
	if v := trimPtr(patch.Name); v != nil {
		if *v == "" {
			return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
		}
		p.Name = *v
	}
	if v := trimPtr(patch.Profession); v != nil {
		p.Profession = *v
	}
	if v := trimPtr(patch.ProfessionOther); v != nil {
		p.ProfessionOther = *v
	}
	if err := domain.ValidateProfession(p.Profession, p.ProfessionOther); err != nil {
		return err
	}
	if patch.Gender != nil {
		g, err := domain.ParseGender(*patch.Gender)
		if err != nil {
			return err
		}
		p.Gender = g
	}
	if patch.Age != nil {
		if err := domain.ValidateAge(patch.Age); err != nil {
			return err
		}
		age := *patch.Age
		p.Age = &age
	}
	if v := trimPtr(patch.PhotoURL); v != nil {
		p.PhotoURL = *v
	}
	if v := trimPtr(patch.ContestType); v != nil {
		if *v == "" {
			return fmt.Errorf("%w: contest_type is required", domain.ErrInvalidInput)
		}
		p.ContestType = *v
	}
	if patch.LoginEnabled != nil {
		p.LoginEnabled = *patch.LoginEnabled
	}
	if patch.UploadEnabled != nil {
		p.UploadEnabled = *patch.UploadEnabled
	}
	if patch.ExtraFields != nil {
		extra, err := s.validateExtraFields(ctx, patch.ExtraFields)
		if err != nil {
			return err
		}
		p.ExtraFields = extra
	}
	return nil
}

// recordMutation writes the audit row. Audit failures never fail the update.
func (s *Service) recordMutation(ctx context.Context, m domain.ParticipantMutation) {
	if err := s.mutations.Insert(ctx, m); err != nil {
		logWarn(ctx, "record_participant_mutation", "participant mutation audit failed", err,
			"participant_id", m.ParticipantID,
			"changed_fields", m.ChangedFields,
		)
	}
}

func (s *Service) ListMutations(ctx context.Context, participantID uuid.UUID, page, limit int) ([]MutationView, error) {
	if _, err := s.participants.GetByID(ctx, participantID); err != nil {
		return nil, err
	}
	_, limit, offset := pageBounds(page, limit)
	items, err := s.mutations.ListByParticipant(ctx, participantID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]MutationView, 0, len(items))
	for _, m := range items {
		out = append(out, MutationView{
			ID:            m.ID,
			ActorID:       m.ActorID,
			ActorKind:     m.ActorKind,
			Before:        m.Before,
			After:         m.After,
			ChangedFields: m.ChangedFields,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

func participantSnapshot(p domain.Participant) map[string]any {
	var age any
	if p.Age != nil {
		age = *p.Age
	}
	return map[string]any{
		"name":             p.Name,
		"profession":       p.Profession,
		"profession_other": p.ProfessionOther,
		"gender":           string(p.Gender),
		"age":              age,
		"contest_type":     p.ContestType,
		"photo_url":        p.PhotoURL,
		"login_enabled":    p.LoginEnabled,
		"upload_enabled":   p.UploadEnabled,
		"extra_fields":     p.ExtraFields,
	}
}

func changedFields(before, after map[string]any) []string {
	var out []string
	for k, v := range after {
		if !cmp.Equal(before[k], v, cmpopts.EquateEmpty()) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func pick(m map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = m[k]
	}
	return out
}
