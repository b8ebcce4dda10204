package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/ports"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

type groupCount struct {
	Key   string `gorm:"column:key"`
	Count int64  `gorm:"column:count"`
}

type dayCount struct {
	Day   time.Time `gorm:"column:day"`
	Count int64     `gorm:"column:count"`
}

// Snapshot runs the dashboard aggregates inside one read-only repeatable-read transaction so
// the numbers agree with each other.
func (r *analyticsRepository) Snapshot(ctx context.Context, since time.Time) (ports.AnalyticsSnapshot, error) {
	var snap ports.AnalyticsSnapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ READ ONLY").Error; err != nil {
			return err
		}
		participants := func() *gorm.DB { return tx.Model(&participantModel{}) }
		submissions := func() *gorm.DB { return tx.Model(&submissionModel{}) }

		if err := participants().Count(&snap.TotalParticipants).Error; err != nil {
			return err
		}
		if err := participants().Where("login_enabled = ?", true).Count(&snap.LoginEnabled).Error; err != nil {
			return err
		}
		if err := participants().Where("upload_enabled = ?", true).Count(&snap.UploadEnabled).Error; err != nil {
			return err
		}
		if err := submissions().Count(&snap.TotalSubmissions).Error; err != nil {
			return err
		}
		if err := tx.Model(&adminModel{}).Count(&snap.TotalAdmins).Error; err != nil {
			return err
		}

		var err error
		if snap.ByGender, err = groupBy(participants(), "gender"); err != nil {
			return err
		}
		if snap.ByContestType, err = groupBy(participants(), "contest_type"); err != nil {
			return err
		}
		if snap.ByProfession, err = groupBy(participants(), "profession"); err != nil {
			return err
		}
		if snap.SubmissionsByStatus, err = groupBy(submissions(), "status"); err != nil {
			return err
		}
		if snap.SubmissionsByType, err = groupBy(submissions(), "type"); err != nil {
			return err
		}

		var days []dayCount
		if err := participants().
			Select("date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, count(*) AS count").
			Where("created_at >= ?", since).
			Group("day").
			Order("day ASC").
			Scan(&days).Error; err != nil {
			return err
		}
		snap.RegistrationsPerDay = make([]ports.DailyCount, 0, len(days))
		for _, d := range days {
			snap.RegistrationsPerDay = append(snap.RegistrationsPerDay, ports.DailyCount{Day: d.Day.UTC(), Count: d.Count})
		}
		return nil
	})
	if err != nil {
		return ports.AnalyticsSnapshot{}, fmt.Errorf("analytics snapshot: %w", err)
	}
	return snap, nil
}

func groupBy(query *gorm.DB, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := query.
		Select(column + " AS key, count(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}
