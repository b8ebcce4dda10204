package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/ports"
	"github.com/nischalstumbeti/contestzen/internal/ports/portstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enqueue(t *testing.T, repo ports.OutboxRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Enqueue(context.Background(), ports.OutboxEvent{
			EventID:      uuid.New(),
			EventType:    "participant.registered",
			PartitionKey: uuid.NewString(),
			Payload:      []byte(`{}`),
			OccurredAt:   time.Now().UTC(),
		}))
	}
}

func TestOutboxWorkerPublishes(t *testing.T) {
	store := portstest.NewStore()
	outbox := store.Outbox()
	enqueue(t, outbox, 3)
	pub := &portstest.Publisher{}

	w := NewOutboxWorker(quietLogger(), outbox, pub, OutboxWorkerConfig{BatchSize: 2})
	res, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Claimed: 2, Published: 2}, res)

	res, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)
	assert.Len(t, pub.Events, 3)

	for _, rec := range outbox.Records() {
		assert.NotNil(t, rec.PublishedAt)
		assert.Nil(t, rec.ClaimToken)
	}
}

func TestOutboxWorkerRetriesThenDeadLetters(t *testing.T) {
	store := portstest.NewStore()
	outbox := store.Outbox()
	enqueue(t, outbox, 1)
	pub := &portstest.Publisher{Fail: true}

	w := NewOutboxWorker(quietLogger(), outbox, pub, OutboxWorkerConfig{MaxRetries: 3})
	for i := 0; i < 2; i++ {
		res, err := w.ProcessOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Zero(t, res.DeadLettered)
	}

	res, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.DeadLettered)

	recs := outbox.Records()
	require.Len(t, recs, 1)
	assert.NotNil(t, recs[0].DeadLetteredAt)
	assert.Equal(t, 2, recs[0].RetryCount)

	res, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Claimed)
}

type stubPurger struct {
	batches []int64
	calls   int
	err     error
}

func (p *stubPurger) PurgeExpiredCodes(_ context.Context, _ int) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	if p.calls >= len(p.batches) {
		return 0, nil
	}
	n := p.batches[p.calls]
	p.calls++
	return n, nil
}

func TestCodeReaperDrainsFullBatches(t *testing.T) {
	p := &stubPurger{batches: []int64{10, 10, 4}}
	r := NewCodeReaper(quietLogger(), p, time.Minute, 10)
	assert.EqualValues(t, 24, r.sweep(context.Background()))
	assert.Equal(t, 3, p.calls)
}

func TestCodeReaperStopsOnError(t *testing.T) {
	p := &stubPurger{err: errors.New("db down")}
	r := NewCodeReaper(quietLogger(), p, time.Minute, 10)
	assert.Zero(t, r.sweep(context.Background()))
}

func TestKafkaPublisherTopics(t *testing.T) {
	_, err := NewKafkaPublisher([]string{" ", ""}, "contestzen", nil)
	assert.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "contestzen", map[string]string{"settings.updated": "contestzen.config"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, "contestzen.participant.registered", p.Topic("participant.registered"))
	assert.Equal(t, "contestzen.config", p.Topic("settings.updated"))
}
