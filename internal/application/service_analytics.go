package application

import (
	"context"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/ports"
)

// Analytics returns dashboard aggregates with a dense per-day registration series.
func (s *Service) Analytics(ctx context.Context, days int) (ports.AnalyticsSnapshot, error) {
	if days <= 0 || days > 365 {
		days = s.cfg.AnalyticsDays
	}
	today := s.nowFn().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	snap, err := s.analytics.Snapshot(ctx, since)
	if err != nil {
		return ports.AnalyticsSnapshot{}, err
	}
	counts := make(map[string]int64, len(snap.RegistrationsPerDay))
	for _, d := range snap.RegistrationsPerDay {
		counts[d.Day.UTC().Format(time.DateOnly)] += d.Count
	}
	series := make([]ports.DailyCount, 0, days)
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		series = append(series, ports.DailyCount{Day: day, Count: counts[day.Format(time.DateOnly)]})
	}
	snap.RegistrationsPerDay = series
	return snap, nil
}
