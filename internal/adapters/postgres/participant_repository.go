package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"gorm.io/gorm"
)

type participantRepository struct {
	db *gorm.DB
}

func (r *participantRepository) CreateWithOutboxTx(ctx context.Context, participant domain.Participant, event ports.OutboxEvent) (domain.Participant, error) {
	rec := toParticipantModel(participant)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		outbox := toOutboxModel(event)
		return tx.Create(&outbox).Error
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return toDomainParticipant(rec), nil
}

func (r *participantRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Participant, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *participantRepository) GetByEmail(ctx context.Context, email string) (domain.Participant, error) {
	return r.take(ctx, "email = ?", email)
}

func (r *participantRepository) GetByAuthUserID(ctx context.Context, authUserID uuid.UUID) (domain.Participant, error) {
	return r.take(ctx, "auth_user_id = ?", authUserID)
}

func (r *participantRepository) take(ctx context.Context, query string, arg any) (domain.Participant, error) {
	var rec participantModel
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&rec).Error; err != nil {
		return domain.Participant{}, notFound(err)
	}
	return toDomainParticipant(rec), nil
}

func (r *participantRepository) List(ctx context.Context, filter ports.ParticipantFilter) ([]domain.Participant, int64, error) {
	query := r.db.WithContext(ctx).Model(&participantModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR email LIKE ?", like, like)
	}
	if filter.ContestType != "" {
		query = query.Where("contest_type = ?", filter.ContestType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []participantModel
	if err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainParticipant(row))
	}
	return out, total, nil
}

func (r *participantRepository) ListAll(ctx context.Context) ([]domain.Participant, error) {
	var rows []participantModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainParticipant(row))
	}
	return out, nil
}

func (r *participantRepository) Update(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	rec := toParticipantModel(participant)
	res := r.db.WithContext(ctx).
		Model(&participantModel{}).
		Where("id = ?", participant.ID).
		Select("name", "profession", "profession_other", "gender", "age", "contest_type", "photo_url",
			"login_enabled", "upload_enabled", "extra_fields", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return domain.Participant{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Participant{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, participant.ID)
}

// LinkAuthUser sets auth_user_id only while it is still empty.
func (r *participantRepository) LinkAuthUser(ctx context.Context, id, authUserID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&participantModel{}).
		Where("id = ?", id).
		Where("auth_user_id IS NULL").
		Updates(map[string]any{"auth_user_id": authUserID, "updated_at": at})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ErrConflict
		}
		return res.Error
	}
	return nil
}

func (r *participantRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&participantModel{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

type mutationRepository struct {
	db *gorm.DB
}

func (r *mutationRepository) Insert(ctx context.Context, m domain.ParticipantMutation) error {
	rec := mutationModel{
		ID:            m.ID,
		ParticipantID: m.ParticipantID,
		ActorID:       m.ActorID,
		ActorKind:     string(m.ActorKind),
		BeforeState:   m.Before,
		AfterState:    m.After,
		ChangedFields: m.ChangedFields,
		CreatedAt:     m.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *mutationRepository) ListByParticipant(ctx context.Context, participantID uuid.UUID, limit, offset int) ([]domain.ParticipantMutation, error) {
	var rows []mutationModel
	if err := r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ParticipantMutation, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainMutation(row))
	}
	return out, nil
}
