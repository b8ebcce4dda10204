package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type adminRepository struct {
	db *gorm.DB
}

func (r *adminRepository) Create(ctx context.Context, admin domain.Admin) (domain.Admin, error) {
	rec := toAdminModel(admin)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Admin{}, domain.ErrConflict
		}
		return domain.Admin{}, err
	}
	return toDomainAdmin(rec), nil
}

func (r *adminRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Admin, error) {
	var rec adminModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		return domain.Admin{}, notFound(err)
	}
	return toDomainAdmin(rec), nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (domain.Admin, error) {
	var rec adminModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		return domain.Admin{}, notFound(err)
	}
	return toDomainAdmin(rec), nil
}

func (r *adminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	var rows []adminModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Admin, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAdmin(row))
	}
	return out, nil
}

// lockSuperadmins holds every superadmin row until the transaction ends and reports how many
// remain. Callers that could drop the last superadmin serialize on it.
func lockSuperadmins(tx *gorm.DB) (int, error) {
	var supers []adminModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("role = ?", string(domain.RoleSuperadmin)).
		Order("id").
		Find(&supers).Error
	return len(supers), err
}

// Update rewrites the admin. A demotion that would leave no superadmin fails with
// domain.ErrLastSuperadmin.
func (r *adminRepository) Update(ctx context.Context, admin domain.Admin) (domain.Admin, error) {
	rec := toAdminModel(admin)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supers, err := lockSuperadmins(tx)
		if err != nil {
			return err
		}
		var current adminModel
		if err := tx.Where("id = ?", admin.ID).Take(&current).Error; err != nil {
			return notFound(err)
		}
		if current.Role == string(domain.RoleSuperadmin) && admin.Role != domain.RoleSuperadmin && supers <= 1 {
			return domain.ErrLastSuperadmin
		}
		return tx.Model(&adminModel{}).
			Where("id = ?", admin.ID).
			Select("name", "phone", "department", "government", "place", "role", "password_hash", "permissions", "updated_at").
			Updates(&rec).Error
	})
	if err != nil {
		return domain.Admin{}, err
	}
	return r.GetByID(ctx, admin.ID)
}

// DeleteGuarded removes the admin unless it is the last superadmin. It takes the same
// superadmin locks as Update, so concurrent deletes and demotions see each other's result.
func (r *adminRepository) DeleteGuarded(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supers, err := lockSuperadmins(tx)
		if err != nil {
			return err
		}
		var target adminModel
		if err := tx.Select("id", "role").Where("id = ?", id).Take(&target).Error; err != nil {
			return notFound(err)
		}
		if target.Role == string(domain.RoleSuperadmin) && supers <= 1 {
			return domain.ErrLastSuperadmin
		}
		return tx.Where("id = ?", id).Delete(&adminModel{}).Error
	})
}

func (r *adminRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&adminModel{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}
