package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-assessment-be/internal/entity"
	"ai-assessment-be/internal/repository/contract"
	"ai-assessment-be/internal/repository/specification"
	"ai-assessment-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUsageRecords struct {
	mu      sync.Mutex
	records []*entity.UsageRecord
}

func (m *memoryUsageRecords) Create(ctx context.Context, record *entity.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryUsageRecords) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.UsageRecord(nil), m.records...), nil
}

func (m *memoryUsageRecords) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// flakyUsageRecords fails the first failures writes
type flakyUsageRecords struct {
	memoryUsageRecords
	failures int
	attempts int
}

func (f *flakyUsageRecords) Create(ctx context.Context, record *entity.UsageRecord) error {
	f.mu.Lock()
	f.attempts++
	failing := f.attempts <= f.failures
	f.mu.Unlock()
	if failing {
		return errors.New("connection refused")
	}
	return f.memoryUsageRecords.Create(ctx, record)
}

func (f *flakyUsageRecords) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func startTestConsumer(t *testing.T, ctx context.Context, records contract.UsageRecordRepository) events.Publisher {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	consumer := NewUsageConsumerService(pubSub, "workflow.events", records, nil).(*usageConsumerService)
	consumer.retryInterval = time.Millisecond
	require.NoError(t, consumer.Consume(ctx))

	return events.NewGoChannelPublisher(pubSub, "workflow.events")
}

func usageEvent(sessionId string) events.Event {
	return events.NewEvent(events.EventUsageRecorded, map[string]interface{}{
		"session_id":   sessionId,
		"stage":        "topic_recommendation",
		"total_tokens": 10,
	}, time.Now())
}

func TestUsageConsumerRetriesFailedWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := &flakyUsageRecords{failures: 2}
	publisher := startTestConsumer(t, ctx, records)
	require.NoError(t, publisher.Publish(ctx, usageEvent("s1")))

	require.Eventually(t, func() bool { return records.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, records.attemptCount())
}

func TestUsageConsumerGivesUpAfterMaxRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := &flakyUsageRecords{failures: 1000}
	publisher := startTestConsumer(t, ctx, records)
	require.NoError(t, publisher.Publish(ctx, usageEvent("s1")))

	require.Eventually(t, func() bool { return records.attemptCount() == usageMaxRetries+1 }, time.Second, 5*time.Millisecond)

	// Acked after the last retry, so it is never redelivered
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, usageMaxRetries+1, records.attemptCount())
	assert.Zero(t, records.count())

	// The subscriber is not blocked by the dropped message
	records.mu.Lock()
	records.failures = 0
	records.mu.Unlock()
	require.NoError(t, publisher.Publish(ctx, usageEvent("s2")))
	require.Eventually(t, func() bool { return records.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestUsageConsumerStoresUsageEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	records := &memoryUsageRecords{}
	require.NoError(t, NewUsageConsumerService(pubSub, "workflow.events", records, nil).Consume(ctx))

	publisher := events.NewGoChannelPublisher(pubSub, "workflow.events")
	require.NoError(t, publisher.Publish(ctx, events.NewEvent(events.EventStageChanged, map[string]interface{}{
		"session_id": "s1",
	}, time.Now())))
	require.NoError(t, publisher.Publish(ctx, events.NewEvent(events.EventUsageRecorded, map[string]interface{}{
		"session_id":    "s1",
		"stage":         "final_generation",
		"model":         "gemini-2.5-pro",
		"input_tokens":  1000,
		"output_tokens": 200,
		"total_tokens":  1200,
		"total_cost":    0.00325,
	}, time.Now())))

	require.Eventually(t, func() bool { return records.count() == 1 }, time.Second, 10*time.Millisecond)

	found, err := records.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "final_generation", found[0].Stage)
	assert.Equal(t, 1200, found[0].TotalTokens)
	assert.InDelta(t, 0.00325, found[0].TotalCost, 1e-9)
}
