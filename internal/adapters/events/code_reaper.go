package events

import (
	"context"
	"log/slog"
	"time"
)

// CodePurger deletes expired or consumed one-time codes in batches.
type CodePurger interface {
	PurgeExpiredCodes(ctx context.Context, batchSize int) (int64, error)
}

// CodeReaper periodically clears stale login codes.
type CodeReaper struct {
	logger    *slog.Logger
	purger    CodePurger
	interval  time.Duration
	batchSize int
}

func NewCodeReaper(logger *slog.Logger, purger CodePurger, interval time.Duration, batchSize int) *CodeReaper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &CodeReaper{logger: logger, purger: purger, interval: interval, batchSize: batchSize}
}

func (r *CodeReaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		r.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sweep drains full batches so a backlog clears in one tick.
func (r *CodeReaper) sweep(ctx context.Context) int64 {
	var total int64
	for ctx.Err() == nil {
		n, err := r.purger.PurgeExpiredCodes(ctx, r.batchSize)
		if err != nil {
			r.logger.ErrorContext(ctx, "otp purge failed",
				"module", "events.code_reaper",
				"layer", "adapter",
				"operation", "purge_expired_codes",
				"outcome", "failure",
				"error", err,
			)
			break
		}
		total += n
		if n < int64(r.batchSize) {
			break
		}
	}
	if total > 0 {
		r.logger.InfoContext(ctx, "expired otp codes purged",
			"module", "events.code_reaper",
			"layer", "adapter",
			"operation", "purge_expired_codes",
			"outcome", "success",
			"deleted", total,
		)
	}
	return total
}
