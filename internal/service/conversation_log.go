package service

import (
	"context"

	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/pkg/apperror"
	"llm-chat-be/internal/repository/specification"
	"llm-chat-be/internal/repository/unitofwork"
)

type IConversationLog interface {
	// Append records one turn in its own transaction.
	Append(ctx context.Context, sessionId, role, content string, modelId *string) (*entity.ChatRecord, error)
	// AppendWith records one turn inside uow's open transaction. The caller must already
	// hold the session row (created or locked it in the same transaction).
	AppendWith(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, role, content string, modelId *string) (*entity.ChatRecord, error)
	// LoadOrdered returns the transcript in replay order.
	LoadOrdered(ctx context.Context, sessionId string) ([]*entity.ChatRecord, error)
}

type conversationLog struct {
	uowFactory unitofwork.RepositoryFactory
	clock      Clock
}

func NewConversationLog(uowFactory unitofwork.RepositoryFactory, clock Clock) IConversationLog {
	if clock == nil {
		clock = SystemClock
	}
	return &conversationLog{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (l *conversationLog) Append(ctx context.Context, sessionId, role, content string, modelId *string) (*entity.ChatRecord, error) {
	if !entity.IsValidRole(role) {
		return nil, apperror.WithMessage(apperror.ErrInvalidRequest, "unknown role "+role)
	}

	uow := l.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Store(err)
	}
	defer uow.Rollback()

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.ForUpdate{},
	)
	if err != nil {
		return nil, apperror.Store(err)
	}
	if session == nil {
		return nil, apperror.ErrSessionNotFound
	}

	record, err := l.AppendWith(ctx, uow, sessionId, role, content, modelId)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, apperror.Store(err)
	}
	return record, nil
}

func (l *conversationLog) AppendWith(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, role, content string, modelId *string) (*entity.ChatRecord, error) {
	if !entity.IsValidRole(role) {
		return nil, apperror.WithMessage(apperror.ErrInvalidRequest, "unknown role "+role)
	}

	// Timestamps never go backwards within a session, even if the wall clock does.
	ts := l.clock().UnixMilli()
	last, ok, err := uow.ChatRecordRepository().LastTimestamp(ctx, sessionId)
	if err != nil {
		return nil, apperror.Store(err)
	}
	if ok && last > ts {
		ts = last
	}

	record := &entity.ChatRecord{
		SessionId: sessionId,
		Role:      role,
		Content:   content,
		Model:     modelId,
		Timestamp: ts,
	}
	if err := uow.ChatRecordRepository().Create(ctx, record); err != nil {
		return nil, apperror.Store(err)
	}
	return record, nil
}

func (l *conversationLog) LoadOrdered(ctx context.Context, sessionId string) ([]*entity.ChatRecord, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	records, err := uow.ChatRecordRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ReplayOrder{},
	)
	if err != nil {
		return nil, apperror.Store(err)
	}
	return records, nil
}
