package events

import (
	"context"
	"time"

	"llm-chat-be/internal/pkg/logger"
)

// SessionPublisher emits session lifecycle events. Delivery is best effort: a failed
// publish is logged and never fails the caller.
type SessionPublisher struct {
	publisher Publisher
	logger    logger.ILogger
	now       func() time.Time
}

func NewSessionPublisher(publisher Publisher, log logger.ILogger) *SessionPublisher {
	return &SessionPublisher{
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func (p *SessionPublisher) PublishStarted(ctx context.Context, sessionId, owner string) {
	p.publish(ctx, SessionStarted, map[string]interface{}{
		"session_id": sessionId,
		"owner":      owner,
	})
}

func (p *SessionPublisher) PublishReactivated(ctx context.Context, sessionId, owner string) {
	p.publish(ctx, SessionReactivated, map[string]interface{}{
		"session_id": sessionId,
		"owner":      owner,
	})
}

func (p *SessionPublisher) PublishEnded(ctx context.Context, sessionId string) {
	p.publish(ctx, SessionEnded, map[string]interface{}{
		"session_id": sessionId,
	})
}

func (p *SessionPublisher) PublishReclaimed(ctx context.Context, sessionId, owner string, idleMillis int64) {
	p.publish(ctx, SessionReclaimed, map[string]interface{}{
		"session_id":  sessionId,
		"owner":       owner,
		"idle_millis": idleMillis,
	})
}

func (p *SessionPublisher) PublishCompletionFailed(ctx context.Context, sessionId, provider, reason string) {
	p.publish(ctx, CompletionFailed, map[string]interface{}{
		"session_id": sessionId,
		"provider":   provider,
		"reason":     reason,
	})
}

func (p *SessionPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p == nil || p.publisher == nil {
		return
	}

	evt := BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: p.now(),
	}
	if err := p.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		p.logger.Warn("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{
			"error":      err.Error(),
			"session_id": data["session_id"],
		})
	}
}
