package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestMultiPublisherFansOut(t *testing.T) {
	a := &recordingPublisher{err: errors.New("down")}
	b := &recordingPublisher{}
	m := MultiPublisher{a, nil, b}

	err := m.Publish(context.Background(), NewEvent(EventSessionReset, nil, time.Now()))
	assert.EqualError(t, err, "down")
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestGoChannelPublisherDeliversEnvelope(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "workflow")
	require.NoError(t, err)

	p := NewGoChannelPublisher(pubSub, "workflow")
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(ctx, NewEvent(EventUsageRecorded, map[string]interface{}{"stage": "final_generation"}, at)))

	select {
	case msg := <-messages:
		var env Envelope
		require.NoError(t, json.Unmarshal(msg.Payload, &env))
		msg.Ack()
		assert.Equal(t, EventUsageRecorded, env.Type)
		assert.Equal(t, "final_generation", env.Data["stage"])
		assert.Equal(t, "2026-05-01T12:00:00.000Z", env.OccurredAt)
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}
