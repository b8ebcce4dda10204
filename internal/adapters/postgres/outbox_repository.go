package postgres

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"gorm.io/gorm"
)

// claimOutboxSQL leases the oldest deliverable rows in one statement. Rows already locked by
// another worker are skipped.
const claimOutboxSQL = `
UPDATE outbox_events AS o
SET claim_token = @token, claim_until = @until
WHERE o.outbox_id IN (
	SELECT outbox_id FROM outbox_events
	WHERE published_at IS NULL
	  AND dead_lettered_at IS NULL
	  AND (claim_until IS NULL OR claim_until < @now)
	ORDER BY created_at
	LIMIT @limit
	FOR UPDATE SKIP LOCKED
)
RETURNING o.*`

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, event ports.OutboxEvent) error {
	row := toOutboxModel(event)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *outboxRepository) ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	if claimToken == "" {
		return nil, errors.New("outbox claim needs a token")
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).Raw(claimOutboxSQL,
		sql.Named("token", claimToken),
		sql.Named("until", claimUntil),
		sql.Named("now", time.Now().UTC()),
		sql.Named("limit", limit),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	slices.SortFunc(rows, func(a, b outboxModel) int { return a.CreatedAt.Compare(b.CreatedAt) })

	records := make([]ports.OutboxRecord, len(rows))
	for i, row := range rows {
		records[i] = toOutboxRecord(row)
	}
	return records, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error {
	return r.release(ctx, outboxID, claimToken, map[string]any{"published_at": at})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return r.release(ctx, outboxID, claimToken, failure(errMsg, at))
}

func (r *outboxRepository) MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	cols := failure(errMsg, at)
	cols["dead_lettered_at"] = at
	return r.release(ctx, outboxID, claimToken, cols)
}

func failure(errMsg string, at time.Time) map[string]any {
	return map[string]any{
		"retry_count":   gorm.Expr("retry_count + 1"),
		"last_error":    errMsg,
		"last_error_at": at,
	}
}

// release applies cols and drops the lease. It is a no-op when the lease has moved on.
func (r *outboxRepository) release(ctx context.Context, outboxID uuid.UUID, claimToken string, cols map[string]any) error {
	cols["claim_token"] = nil
	cols["claim_until"] = nil
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND claim_token = ?", outboxID, claimToken).
		Updates(cols).Error
}

func toOutboxRecord(row outboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:       row.OutboxID,
		EventType:      row.EventType,
		PartitionKey:   row.PartitionKey,
		Payload:        []byte(row.Payload),
		RetryCount:     row.RetryCount,
		LastError:      row.LastError,
		CreatedAt:      row.CreatedAt,
		PublishedAt:    row.PublishedAt,
		ClaimToken:     row.ClaimToken,
		ClaimUntil:     row.ClaimUntil,
		DeadLetteredAt: row.DeadLetteredAt,
	}
}
