package unitofwork

import (
	"context"

	"llm-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatRecordRepository() contract.ChatRecordRepository
}
