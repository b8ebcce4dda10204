package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type settingsRepository struct {
	db *gorm.DB
}

func (r *settingsRepository) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var rec settingModel
	if err := r.db.WithContext(ctx).Where("key = ?", key).Take(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return json.RawMessage(rec.Value), nil
}

func (r *settingsRepository) Put(ctx context.Context, key string, value json.RawMessage, updatedBy *uuid.UUID, at time.Time) error {
	rec := settingModel{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedBy: updatedBy,
		UpdatedAt: at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&rec).Error
}
