package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeliveredEvent is an outbox row handed to a broker. Attempt starts at 1.
type DeliveredEvent struct {
	ID           uuid.UUID
	Type         string
	PartitionKey string
	Payload      []byte
	RecordedAt   time.Time
	Attempt      int
}

type EventPublisher interface {
	Publish(ctx context.Context, event DeliveredEvent) error
}

func (r OutboxRecord) Delivery() DeliveredEvent {
	return DeliveredEvent{
		ID:           r.OutboxID,
		Type:         r.EventType,
		PartitionKey: r.PartitionKey,
		Payload:      r.Payload,
		RecordedAt:   r.CreatedAt,
		Attempt:      r.RetryCount + 1,
	}
}
