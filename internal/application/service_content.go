package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
)

func (s *Service) ListAnnouncements(ctx context.Context, publishedOnly bool, page, limit int) ([]domain.Announcement, error) {
	_, limit, offset := pageBounds(page, limit)
	return s.announcements.List(ctx, publishedOnly, limit, offset)
}

// GetAnnouncement hides drafts from public readers.
func (s *Service) GetAnnouncement(ctx context.Context, id uuid.UUID, publishedOnly bool) (domain.Announcement, error) {
	a, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		return domain.Announcement{}, err
	}
	if publishedOnly && !a.Published {
		return domain.Announcement{}, domain.ErrNotFound
	}
	return a, nil
}

func (s *Service) CreateAnnouncement(ctx context.Context, actorID uuid.UUID, in AnnouncementInput) (domain.Announcement, error) {
	if err := s.validateStruct(in); err != nil {
		return domain.Announcement{}, err
	}
	priority, err := domain.ParseAnnouncementPriority(in.Priority)
	if err != nil {
		return domain.Announcement{}, err
	}
	now := s.nowFn()
	actor := actorID
	a := domain.Announcement{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Priority:  priority,
		Published: in.Published == nil || *in.Published,
		CreatedBy: &actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.announcements.Create(ctx, a)
	if err != nil {
		return domain.Announcement{}, err
	}
	if created.Published {
		s.enqueueEvent(ctx, "announcement.published", created.ID.String(), map[string]any{
			"announcement_id": created.ID,
			"priority":        created.Priority,
		})
	}
	return created, nil
}

func (s *Service) UpdateAnnouncement(ctx context.Context, id uuid.UUID, in AnnouncementInput) (domain.Announcement, error) {
	if err := s.validateStruct(in); err != nil {
		return domain.Announcement{}, err
	}
	priority, err := domain.ParseAnnouncementPriority(in.Priority)
	if err != nil {
		return domain.Announcement{}, err
	}
	a, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		return domain.Announcement{}, err
	}
	a.Title = strings.TrimSpace(in.Title)
	a.Body = in.Body
	a.Priority = priority
	if in.Published != nil {
		a.Published = *in.Published
	}
	a.UpdatedAt = s.nowFn()
	return s.announcements.Update(ctx, a)
}

func (s *Service) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	return s.announcements.Delete(ctx, id)
}

func (s *Service) ListCMS(ctx context.Context, publishedOnly bool) ([]domain.CMSContent, error) {
	return s.cms.List(ctx, publishedOnly)
}

func (s *Service) GetCMS(ctx context.Context, slug string, publishedOnly bool) (domain.CMSContent, error) {
	slug, err := domain.ValidateSlug(slug)
	if err != nil {
		return domain.CMSContent{}, err
	}
	c, err := s.cms.GetBySlug(ctx, slug)
	if err != nil {
		return domain.CMSContent{}, err
	}
	if publishedOnly && !c.Published {
		return domain.CMSContent{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *Service) CreateCMS(ctx context.Context, actorID uuid.UUID, in CMSInput) (domain.CMSContent, error) {
	if err := s.validateStruct(in); err != nil {
		return domain.CMSContent{}, err
	}
	slug, err := domain.ValidateSlug(in.Slug)
	if err != nil {
		return domain.CMSContent{}, err
	}
	now := s.nowFn()
	actor := actorID
	created, err := s.cms.Create(ctx, domain.CMSContent{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Published: in.Published != nil && *in.Published,
		UpdatedBy: &actor,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, domain.ErrConflict) {
		return domain.CMSContent{}, fmt.Errorf("%w: slug %q already exists", domain.ErrConflict, slug)
	}
	return created, err
}

func (s *Service) UpdateCMS(ctx context.Context, actorID uuid.UUID, slug string, in CMSInput) (domain.CMSContent, error) {
	if err := s.validateStruct(in); err != nil {
		return domain.CMSContent{}, err
	}
	c, err := s.GetCMS(ctx, slug, false)
	if err != nil {
		return domain.CMSContent{}, err
	}
	c.Title = strings.TrimSpace(in.Title)
	c.Body = in.Body
	if in.Published != nil {
		c.Published = *in.Published
	}
	actor := actorID
	c.UpdatedBy = &actor
	c.UpdatedAt = s.nowFn()
	return s.cms.Update(ctx, c)
}

func (s *Service) DeleteCMS(ctx context.Context, slug string) error {
	slug, err := domain.ValidateSlug(slug)
	if err != nil {
		return err
	}
	return s.cms.Delete(ctx, slug)
}

func (s *Service) ListFormFields(ctx context.Context, activeOnly bool) ([]domain.FormField, error) {
	return s.formFields.List(ctx, activeOnly)
}

// CreateFormField validates the definition against its kind before it is stored.
func (s *Service) CreateFormField(ctx context.Context, in FormFieldInput) (domain.FormField, error) {
	if err := s.validateStruct(in); err != nil {
		return domain.FormField{}, err
	}
	now := s.nowFn()
	field := formFieldFromInput(in)
	field.ID = uuid.New()
	field.CreatedAt = now
	field.UpdatedAt = now
	if err := field.ValidateDefinition(); err != nil {
		return domain.FormField{}, err
	}
	created, err := s.formFields.Create(ctx, field)
	if errors.Is(err, domain.ErrConflict) {
		return domain.FormField{}, fmt.Errorf("%w: a field named %q already exists", domain.ErrConflict, field.Name)
	}
	return created, err
}

func (s *Service) UpdateFormField(ctx context.Context, id uuid.UUID, in FormFieldInput) (domain.FormField, error) {
	if err := s.validateStruct(in); err != nil {
		return domain.FormField{}, err
	}
	current, err := s.formFields.GetByID(ctx, id)
	if err != nil {
		return domain.FormField{}, err
	}
	field := formFieldFromInput(in)
	field.ID = current.ID
	field.CreatedAt = current.CreatedAt
	field.UpdatedAt = s.nowFn()
	if in.Active == nil {
		field.Active = current.Active
	}
	if err := field.ValidateDefinition(); err != nil {
		return domain.FormField{}, err
	}
	updated, err := s.formFields.Update(ctx, field)
	if errors.Is(err, domain.ErrConflict) {
		return domain.FormField{}, fmt.Errorf("%w: a field named %q already exists", domain.ErrConflict, field.Name)
	}
	return updated, err
}

func (s *Service) DeleteFormField(ctx context.Context, id uuid.UUID) error {
	return s.formFields.Delete(ctx, id)
}

func formFieldFromInput(in FormFieldInput) domain.FormField {
	return domain.FormField{
		Name:        in.Name,
		Label:       in.Label,
		Kind:        domain.FieldKind(strings.ToLower(strings.TrimSpace(string(in.Kind)))),
		Placeholder: strings.TrimSpace(in.Placeholder),
		HelpText:    strings.TrimSpace(in.HelpText),
		Required:    in.Required,
		Active:      in.Active == nil || *in.Active,
		SortOrder:   in.SortOrder,
		Text:        in.Text,
		Number:      in.Number,
		Choice:      in.Choice,
	}
}
