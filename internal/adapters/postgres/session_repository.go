package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sessionRepository persists participant and admin sessions in one table keyed by subject.
type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) sessions(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&sessionModel{})
}

// unrevoked narrows a query to sessions that are still usable.
func unrevoked(db *gorm.DB) *gorm.DB {
	return db.Where("revoked_at IS NULL")
}

func (r *sessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	row := sessionModel{
		SubjectID:      params.SubjectID,
		SubjectKind:    string(params.SubjectKind),
		IPAddress:      nullableString(params.IPAddress),
		UserAgent:      params.UserAgent,
		CreatedAt:      params.LastActivityAt,
		LastActivityAt: params.LastActivityAt,
		ExpiresAt:      params.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Session{}, err
	}
	return toDomainSession(row), nil
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).Take(&row, "session_id = ?", sessionID).Error
	if err != nil {
		return domain.Session{}, notFound(err)
	}
	return toDomainSession(row), nil
}

func (r *sessionRepository) TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt time.Time) error {
	return unrevoked(r.sessions(ctx)).
		Where("session_id = ? AND last_activity_at < ?", sessionID, touchedAt).
		Update("last_activity_at", touchedAt).Error
}

// RevokeByID keeps the first revocation time when a session is revoked twice.
func (r *sessionRepository) RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sessionModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&row, "session_id = ?", sessionID).Error
		if err != nil {
			return notFound(err)
		}
		if row.RevokedAt != nil {
			return nil
		}
		return tx.Model(&row).Update("revoked_at", revokedAt).Error
	})
}

func (r *sessionRepository) RevokeAllBySubject(ctx context.Context, subjectID uuid.UUID, revokedAt time.Time) error {
	return unrevoked(r.sessions(ctx)).
		Where("subject_id = ?", subjectID).
		Update("revoked_at", revokedAt).Error
}
