package postgres

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type otpRepository struct {
	db *gorm.DB
}

// lockEmail serializes code issue and consumption for one address until the transaction ends.
func lockEmail(tx *gorm.DB, email string) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "otp:"+email).Error
}

func (r *otpRepository) ReplaceForEmail(ctx context.Context, email, codeHash string, createdAt, expiresAt time.Time) (domain.OneTimeCode, error) {
	rec := otpCodeModel{
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEmail(tx, email); err != nil {
			return err
		}
		if err := tx.Where("email = ?", email).Delete(&otpCodeModel{}).Error; err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return domain.OneTimeCode{}, err
	}
	return toDomainOTP(rec), nil
}

func (r *otpRepository) ConsumeLatest(ctx context.Context, email, codeHash string, now time.Time) (domain.OneTimeCode, error) {
	var rec otpCodeModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEmail(tx, email); err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("email = ?", email).
			Where("used_at IS NULL").
			Where("expires_at > ?", now).
			Order("created_at DESC").
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrInvalidOTP
			}
			return err
		}
		if subtle.ConstantTimeCompare([]byte(rec.CodeHash), []byte(codeHash)) != 1 {
			return domain.ErrInvalidOTP
		}
		rec.UsedAt = &now
		return tx.Model(&otpCodeModel{}).Where("id = ?", rec.ID).Update("used_at", now).Error
	})
	if err != nil {
		return domain.OneTimeCode{}, err
	}
	return toDomainOTP(rec), nil
}

// DeleteExpired removes a batch of expired or used codes.
func (r *otpRepository) DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error) {
	if limit <= 0 {
		return 0, nil
	}
	sub := r.db.Model(&otpCodeModel{}).
		Select("id").
		Where("expires_at < ? OR used_at IS NOT NULL", before).
		Limit(limit)
	res := r.db.WithContext(ctx).Where("id IN (?)", sub).Delete(&otpCodeModel{})
	return res.RowsAffected, res.Error
}
