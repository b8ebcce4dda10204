package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"gorm.io/gorm"
)

type formFieldRepository struct {
	db *gorm.DB
}

func (r *formFieldRepository) List(ctx context.Context, activeOnly bool) ([]domain.FormField, error) {
	query := r.db.WithContext(ctx).Model(&formFieldModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []formFieldModel
	if err := query.Order("sort_order ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FormField, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainFormField(row))
	}
	return out, nil
}

func (r *formFieldRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.FormField, error) {
	var rec formFieldModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		return domain.FormField{}, notFound(err)
	}
	return toDomainFormField(rec), nil
}

func (r *formFieldRepository) Create(ctx context.Context, field domain.FormField) (domain.FormField, error) {
	rec := toFormFieldModel(field)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.FormField{}, domain.ErrConflict
		}
		return domain.FormField{}, err
	}
	return toDomainFormField(rec), nil
}

func (r *formFieldRepository) Update(ctx context.Context, field domain.FormField) (domain.FormField, error) {
	rec := toFormFieldModel(field)
	res := r.db.WithContext(ctx).
		Model(&formFieldModel{}).
		Where("id = ?", field.ID).
		Select("label", "kind", "placeholder", "help_text", "required", "active", "sort_order", "rules", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return domain.FormField{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.FormField{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, field.ID)
}

func (r *formFieldRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteWhere(ctx, r.db, &formFieldModel{}, "id = ?", id)
}

type cmsRepository struct {
	db *gorm.DB
}

func (r *cmsRepository) List(ctx context.Context, publishedOnly bool) ([]domain.CMSContent, error) {
	query := r.db.WithContext(ctx).Model(&cmsContentModel{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	var rows []cmsContentModel
	if err := query.Order("slug ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CMSContent, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCMS(row))
	}
	return out, nil
}

func (r *cmsRepository) GetBySlug(ctx context.Context, slug string) (domain.CMSContent, error) {
	var rec cmsContentModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&rec).Error; err != nil {
		return domain.CMSContent{}, notFound(err)
	}
	return toDomainCMS(rec), nil
}

func (r *cmsRepository) Create(ctx context.Context, content domain.CMSContent) (domain.CMSContent, error) {
	rec := toCMSModel(content)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.CMSContent{}, domain.ErrConflict
		}
		return domain.CMSContent{}, err
	}
	return toDomainCMS(rec), nil
}

func (r *cmsRepository) Update(ctx context.Context, content domain.CMSContent) (domain.CMSContent, error) {
	res := r.db.WithContext(ctx).
		Model(&cmsContentModel{}).
		Where("slug = ?", content.Slug).
		Updates(map[string]any{
			"title":      content.Title,
			"body":       content.Body,
			"published":  content.Published,
			"updated_by": content.UpdatedBy,
			"updated_at": content.UpdatedAt,
		})
	if res.Error != nil {
		return domain.CMSContent{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.CMSContent{}, domain.ErrNotFound
	}
	return r.GetBySlug(ctx, content.Slug)
}

func (r *cmsRepository) Delete(ctx context.Context, slug string) error {
	return deleteWhere(ctx, r.db, &cmsContentModel{}, "slug = ?", slug)
}

type announcementRepository struct {
	db *gorm.DB
}

func (r *announcementRepository) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]domain.Announcement, error) {
	query := r.db.WithContext(ctx).Model(&announcementModel{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	var rows []announcementModel
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Announcement, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAnnouncement(row))
	}
	return out, nil
}

func (r *announcementRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Announcement, error) {
	var rec announcementModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		return domain.Announcement{}, notFound(err)
	}
	return toDomainAnnouncement(rec), nil
}

func (r *announcementRepository) Create(ctx context.Context, announcement domain.Announcement) (domain.Announcement, error) {
	rec := toAnnouncementModel(announcement)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Announcement{}, err
	}
	return toDomainAnnouncement(rec), nil
}

func (r *announcementRepository) Update(ctx context.Context, announcement domain.Announcement) (domain.Announcement, error) {
	rec := toAnnouncementModel(announcement)
	res := r.db.WithContext(ctx).
		Model(&announcementModel{}).
		Where("id = ?", announcement.ID).
		Select("title", "body", "priority", "published", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return domain.Announcement{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Announcement{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, announcement.ID)
}

func (r *announcementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteWhere(ctx, r.db, &announcementModel{}, "id = ?", id)
}

func deleteWhere(ctx context.Context, db *gorm.DB, model any, cond string, arg any) error {
	res := db.WithContext(ctx).Where(cond, arg).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
