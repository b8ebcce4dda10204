package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

// OutboxWorker leases pending outbox rows and hands them to the publisher.
type OutboxWorker struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	claimTTL   time.Duration
	maxRetries int
	nowFn      func() time.Time
}

type OutboxWorkerConfig struct {
	Interval   time.Duration
	BatchSize  int
	ClaimTTL   time.Duration
	MaxRetries int
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, cfg OutboxWorkerConfig) *OutboxWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &OutboxWorker{
		logger:     logger,
		outbox:     outbox,
		publisher:  publisher,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		claimTTL:   cfg.ClaimTTL,
		maxRetries: cfg.MaxRetries,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Run publishes on every tick until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.ProcessOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "outbox_process_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// BatchResult counts what one pass did.
type BatchResult struct {
	Claimed      int
	Published    int
	Failed       int
	DeadLettered int
}

func (w *OutboxWorker) ProcessOnce(ctx context.Context) (BatchResult, error) {
	claimToken := uuid.NewString()
	records, err := w.outbox.ClaimUnpublished(ctx, w.batchSize, claimToken, w.nowFn().Add(w.claimTTL))
	if err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{Claimed: len(records)}
	now := w.nowFn()
	for _, rec := range records {
		if rec.RetryCount >= w.maxRetries {
			res.DeadLettered++
			w.mark(ctx, rec, w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, "retry threshold reached before publish", now))
			continue
		}

		if err := w.publisher.Publish(ctx, rec.Delivery()); err != nil {
			res.Failed++
			retries := rec.RetryCount + 1
			if retries >= w.maxRetries {
				res.DeadLettered++
				w.logger.ErrorContext(ctx, "outbox message moved to dlq",
					"module", "events.outbox_worker",
					"layer", "adapter",
					"operation", "publish_event",
					"outcome", "failure",
					"outbox_id", rec.OutboxID,
					"event_type", rec.EventType,
					"retry_count", retries,
					"error", err,
				)
				w.mark(ctx, rec, w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, err.Error(), now))
				continue
			}

			w.logger.WarnContext(ctx, "outbox publish failed; retry scheduled",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "publish_event",
				"outcome", "failure",
				"outbox_id", rec.OutboxID,
				"event_type", rec.EventType,
				"retry_count", retries,
				"error", err,
			)
			w.mark(ctx, rec, w.outbox.MarkFailed(ctx, rec.OutboxID, claimToken, err.Error(), now))
			continue
		}
		res.Published++
		w.mark(ctx, rec, w.outbox.MarkPublished(ctx, rec.OutboxID, claimToken, now))
	}

	if len(records) > 0 {
		w.logger.InfoContext(ctx, "outbox batch processed",
			"module", "events.outbox_worker",
			"layer", "adapter",
			"operation", "outbox_process_once",
			"outcome", "success",
			"batch_size", res.Claimed,
			"published_count", res.Published,
			"failed_count", res.Failed,
			"dead_lettered_count", res.DeadLettered,
		)
	}
	return res, nil
}

// mark logs a lost lease; the row is picked up again once the claim expires.
func (w *OutboxWorker) mark(ctx context.Context, rec ports.OutboxRecord, err error) {
	if err == nil {
		return
	}
	w.logger.WarnContext(ctx, "outbox state update failed",
		"module", "events.outbox_worker",
		"layer", "adapter",
		"operation", "mark_outbox",
		"outcome", "failure",
		"outbox_id", rec.OutboxID,
		"error", err,
	)
}
