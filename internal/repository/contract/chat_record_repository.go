package contract

import (
	"context"

	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/repository/specification"
)

// ChatRecordRepository is append-only: there is no Update or Delete.
type ChatRecordRepository interface {
	Create(ctx context.Context, record *entity.ChatRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	LastTimestamp(ctx context.Context, sessionId string) (int64, bool, error)
}
