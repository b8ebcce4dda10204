package events

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to Kafka keyed by partition key. Topics default to
// "<prefix>.<event type>" unless mapped explicitly.
type KafkaPublisher struct {
	writer       *kafka.Writer
	topicPrefix  string
	topicByEvent map[string]string
}

func NewKafkaPublisher(brokers []string, topicPrefix string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	cleaned := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			cleaned = append(cleaned, b)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cleaned...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			WriteTimeout:           10 * time.Second,
		},
		topicPrefix:  topicPrefix,
		topicByEvent: topicByEvent,
	}, nil
}

func (p *KafkaPublisher) Topic(eventType string) string {
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		return mapped
	}
	if p.topicPrefix == "" {
		return eventType
	}
	return p.topicPrefix + "." + eventType
}

// Publish carries the outbox id in a header so consumers can drop redeliveries.
func (p *KafkaPublisher) Publish(ctx context.Context, event ports.DeliveredEvent) error {
	msg := kafka.Message{
		Topic: p.Topic(event.Type),
		Key:   []byte(event.PartitionKey),
		Value: event.Payload,
		Time:  event.RecordedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "attempt", Value: []byte(strconv.Itoa(event.Attempt))},
		},
	}
	if msg.Time.IsZero() {
		msg.Time = time.Now().UTC()
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
