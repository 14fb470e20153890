package contract

import (
	"context"

	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/repository/specification"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Conditional status transitions. Each returns whether a row changed.
	Reactivate(ctx context.Context, id string) (bool, error)
	End(ctx context.Context, id string) (bool, error)
	EndIfIdleSince(ctx context.Context, id string, cutoffMillis int64) (bool, error)

	ListActiveWithLastActivity(ctx context.Context) ([]*entity.SessionActivity, error)
}
