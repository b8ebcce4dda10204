package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type submissionRepository struct {
	db *gorm.DB
}

// CreateWithOutboxTx relies on the UNIQUE(participant_id) index so two concurrent inserts cannot both win.
func (r *submissionRepository) CreateWithOutboxTx(ctx context.Context, submission domain.Submission, event ports.OutboxEvent) (domain.Submission, error) {
	rec := toSubmissionModel(submission)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadySubmitted
			}
			return err
		}
		outbox := toOutboxModel(event)
		return tx.Create(&outbox).Error
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return toDomainSubmission(rec), nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Submission, error) {
	var rec submissionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		return domain.Submission{}, notFound(err)
	}
	return toDomainSubmission(rec), nil
}

func (r *submissionRepository) GetByParticipant(ctx context.Context, participantID uuid.UUID) (domain.Submission, error) {
	var rec submissionModel
	if err := r.db.WithContext(ctx).Where("participant_id = ?", participantID).Take(&rec).Error; err != nil {
		return domain.Submission{}, notFound(err)
	}
	return toDomainSubmission(rec), nil
}

func (r *submissionRepository) List(ctx context.Context, filter ports.SubmissionFilter) ([]domain.Submission, int64, error) {
	query := r.db.WithContext(ctx).Model(&submissionModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []submissionModel
	if err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSubmission(row))
	}
	return out, total, nil
}

// Review locks the row, lets apply mutate it and writes the result plus any event atomically.
func (r *submissionRepository) Review(ctx context.Context, id uuid.UUID, apply ports.ReviewFunc) (domain.Submission, error) {
	var result domain.Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec submissionModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&rec).Error; err != nil {
			return notFound(err)
		}
		current := toDomainSubmission(rec)
		event, err := apply(&current)
		if err != nil {
			return err
		}
		if err := tx.Model(&submissionModel{}).Where("id = ?", id).Updates(map[string]any{
			"status":           string(current.Status),
			"admin_notes":      current.AdminNotes,
			"internal_remarks": current.InternalRemarks,
			"reviewed_by":      current.ReviewedBy,
			"reviewed_at":      current.ReviewedAt,
			"updated_at":       current.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		if event != nil {
			outbox := toOutboxModel(*event)
			if err := tx.Create(&outbox).Error; err != nil {
				return err
			}
		}
		result = current
		return nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return result, nil
}
