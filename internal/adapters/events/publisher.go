package events

import (
	"context"
	"log/slog"

	"github.com/nischalstumbeti/contestzen/internal/ports"
)

// LogPublisher stands in for a broker in local runs. Events are logged and considered delivered.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("module", "events.log_publisher", "layer", "adapter")}
}

func (p *LogPublisher) Publish(ctx context.Context, event ports.DeliveredEvent) error {
	p.logger.InfoContext(ctx, "event delivered to log",
		"operation", "publish_event",
		"outcome", "success",
		"event_id", event.ID,
		"event_type", event.Type,
		"partition_key", event.PartitionKey,
		"attempt", event.Attempt,
		"payload", string(event.Payload),
	)
	return nil
}
