// FILE: internal/service/consumer_service.go
package service

import (
	"context"

	"llm-chat-be/internal/pkg/logger"
	"llm-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService keeps an audit trail of session lifecycle events published in-process.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	logger     logger.ILogger
	handled    func(events.BaseEvent) // test hook
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	evt, err := events.Decode(msg)
	if err != nil {
		cs.logger.Error("EVENTS", "Failed to decode event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite redelivery
		return
	}

	details := map[string]interface{}{
		"event_type":  evt.EventType(),
		"occurred_at": evt.Timestamp(),
	}
	for k, v := range evt.Payload() {
		details[k] = v
	}

	switch evt.EventType() {
	case events.CompletionFailed:
		cs.logger.Warn("EVENTS", "Session event", details)
	default:
		cs.logger.Info("EVENTS", "Session event", details)
	}

	if cs.handled != nil {
		cs.handled(evt)
	}
	msg.Ack()
}
