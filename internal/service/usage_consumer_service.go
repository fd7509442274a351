package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-assessment-be/internal/entity"
	"ai-assessment-be/internal/pkg/logger"
	"ai-assessment-be/internal/repository/contract"
	"ai-assessment-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IUsageConsumerService interface {
	Consume(ctx context.Context) error
}

const (
	usageConsumerHandler = "usage_ledger"
	usageMaxRetries      = 3
	usageRetryInterval   = 500 * time.Millisecond
)

// usageConsumerService turns workflow events from the in-process bus into
// usage ledger rows. Without a ledger repository it only logs.
// Failed writes are retried with backoff, then dropped and logged.
type usageConsumerService struct {
	pubSub        *gochannel.GoChannel
	topicName     string
	records       contract.UsageRecordRepository
	logger        logger.ILogger
	maxRetries    int
	retryInterval time.Duration
}

func NewUsageConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	records contract.UsageRecordRepository,
	log logger.ILogger,
) IUsageConsumerService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &usageConsumerService{
		pubSub:        pubSub,
		topicName:     topicName,
		records:       records,
		logger:        log,
		maxRetries:    usageMaxRetries,
		retryInterval: usageRetryInterval,
	}
}

// Consume starts the router in the background and returns once the
// handler is subscribed. The router stops when ctx is cancelled.
func (cs *usageConsumerService) Consume(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	if err != nil {
		return err
	}

	router.AddMiddleware(
		cs.dropExhausted,
		middleware.Retry{
			MaxRetries:      cs.maxRetries,
			InitialInterval: cs.retryInterval,
			MaxInterval:     8 * cs.retryInterval,
			Multiplier:      2,
		}.Middleware,
	)
	router.AddNoPublisherHandler(usageConsumerHandler, cs.topicName, cs.pubSub, cs.processMessage)

	go func() {
		if err := router.Run(ctx); err != nil {
			cs.logger.Error("UsageConsumer", "Router stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	select {
	case <-router.Running():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dropExhausted acks a message whose retries are used up so it is not
// redelivered forever
func (cs *usageConsumerService) dropExhausted(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		if err != nil {
			cs.logger.Error("UsageConsumer", "Dropping usage event after retries", map[string]interface{}{
				"message_uuid": msg.UUID,
				"retries":      cs.maxRetries,
				"error":        err.Error(),
			})
			return nil, nil
		}
		return produced, nil
	}
}

func (cs *usageConsumerService) processMessage(msg *message.Message) error {
	var envelope events.Envelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.logger.Error("UsageConsumer", "Failed to unmarshal event", map[string]interface{}{
			"error": err.Error(),
		})
		return nil // malformed, retrying cannot help
	}

	if envelope.Type != events.EventUsageRecorded {
		cs.logger.Debug("UsageConsumer", "Workflow event", map[string]interface{}{
			"type": envelope.Type,
			"data": envelope.Data,
		})
		return nil
	}

	record := usageRecordFromEvent(envelope)
	if cs.records == nil {
		cs.logger.Info("UsageConsumer", "Usage recorded", map[string]interface{}{
			"session_id":   record.SessionId,
			"stage":        record.Stage,
			"total_tokens": record.TotalTokens,
			"total_cost":   record.TotalCost,
		})
		return nil
	}

	if err := cs.records.Create(msg.Context(), record); err != nil {
		cs.logger.Warn("UsageConsumer", "Failed to store usage record", map[string]interface{}{
			"session_id": record.SessionId,
			"error":      err.Error(),
		})
		return err
	}
	return nil
}

func usageRecordFromEvent(envelope events.Envelope) *entity.UsageRecord {
	data := envelope.Data
	createdAt, err := time.Parse(time.RFC3339Nano, envelope.OccurredAt)
	if err != nil {
		createdAt = time.Now()
	}

	return &entity.UsageRecord{
		Id:           uuid.New(),
		SessionId:    stringField(data, "session_id"),
		Stage:        stringField(data, "stage"),
		Model:        stringField(data, "model"),
		InputTokens:  int(numberField(data, "input_tokens")),
		OutputTokens: int(numberField(data, "output_tokens")),
		TotalTokens:  int(numberField(data, "total_tokens")),
		InputCost:    numberField(data, "input_cost"),
		OutputCost:   numberField(data, "output_cost"),
		TotalCost:    numberField(data, "total_cost"),
		Details:      data,
		CreatedAt:    createdAt,
	}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

// numberField reads a JSON number; encoding/json decodes them as float64
func numberField(data map[string]interface{}, key string) float64 {
	if v, ok := data[key].(float64); ok {
		return v
	}
	return 0
}
