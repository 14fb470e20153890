package service

import (
	"context"
	"strings"
	"time"

	"llm-chat-be/internal/dto"
	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/pkg/apperror"
	"llm-chat-be/internal/pkg/logger"
	"llm-chat-be/internal/pkg/metrics"
	"llm-chat-be/internal/repository/specification"
	"llm-chat-be/internal/repository/unitofwork"
	"llm-chat-be/pkg/codefence"
	"llm-chat-be/pkg/events"
	"llm-chat-be/pkg/llm"
	"llm-chat-be/pkg/prompt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("llm-chat-be/internal/service")

type IChatService interface {
	// Complete records the user turn, asks the provider and records the reply.
	Complete(ctx context.Context, owner, sessionId, message string) (*dto.CompletionResult, error)
	// Generate admits the session and completes one turn built from req.
	Generate(ctx context.Context, owner string, req *dto.GenerateRequest) (*dto.CompletionResult, error)
}

type chatService struct {
	uowFactory      unitofwork.RepositoryFactory
	admission       IAdmissionService
	convLog         IConversationLog
	provider        llm.CompletionProvider
	providerTimeout time.Duration
	publisher       *events.SessionPublisher
	metrics         metrics.Recorder
	logger          logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	admission IAdmissionService,
	convLog IConversationLog,
	provider llm.CompletionProvider,
	providerTimeout time.Duration,
	publisher *events.SessionPublisher,
	recorder metrics.Recorder,
	log logger.ILogger,
) IChatService {
	if providerTimeout <= 0 {
		providerTimeout = 120 * time.Second
	}
	return &chatService{
		uowFactory:      uowFactory,
		admission:       admission,
		convLog:         convLog,
		provider:        provider,
		providerTimeout: providerTimeout,
		publisher:       publisher,
		metrics:         recorder,
		logger:          log,
	}
}

func (s *chatService) Generate(ctx context.Context, owner string, req *dto.GenerateRequest) (*dto.CompletionResult, error) {
	message := req.Message
	if strings.TrimSpace(req.Code) != "" {
		message = prompt.BuildCodePrompt(req.Code, req.ErrorLogs)
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperror.WithMessage(apperror.ErrInvalidRequest, "message or code is required")
	}

	if _, err := s.admission.Admit(ctx, owner, req.SessionId); err != nil {
		return nil, err
	}

	return s.Complete(ctx, owner, req.SessionId, message)
}

func (s *chatService) Complete(ctx context.Context, owner, sessionId, message string) (*dto.CompletionResult, error) {
	ctx, span := tracer.Start(ctx, "ChatService.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.session_id", sessionId),
		attribute.String("llm.provider", s.provider.Name()),
	)

	if strings.TrimSpace(message) == "" {
		return nil, apperror.WithMessage(apperror.ErrInvalidRequest, "message is required")
	}

	// 1. Durably record the user turn before the provider sees it
	transcript, err := s.recordUserTurn(ctx, owner, sessionId, message)
	if err != nil {
		s.metrics.Completion("rejected")
		span.RecordError(err)
		span.SetStatus(codes.Error, "user turn rejected")
		return nil, err
	}

	// 2. Ask the provider
	providerCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	start := time.Now()
	completion, err := s.provider.Complete(providerCtx, transcript)
	cancel()
	s.metrics.ProviderRequest(s.provider.Name(), time.Since(start), err != nil)

	if err != nil {
		s.metrics.Completion("provider_failure")
		s.logger.Error("CHAT", "Completion provider failed", map[string]interface{}{
			"session_id": sessionId,
			"provider":   s.provider.Name(),
			"elapsed_ms": time.Since(start).Milliseconds(),
			"error":      err.Error(),
		})
		s.publisher.PublishCompletionFailed(ctx, sessionId, s.provider.Name(), err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider failure")
		return nil, apperror.Provider(err)
	}

	s.metrics.ProviderTokens(completion.PromptTokens, completion.CompletionTokens)
	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", completion.PromptTokens),
		attribute.Int("llm.completion_tokens", completion.CompletionTokens),
	)

	// 3. Record the reply even if the caller has gone away meanwhile
	modelId := s.provider.Model()
	if _, err := s.convLog.Append(context.WithoutCancel(ctx), sessionId, entity.RoleAssistant, completion.Text, &modelId); err != nil {
		s.metrics.Completion("store_failure")
		span.RecordError(err)
		span.SetStatus(codes.Error, "assistant turn not recorded")
		return nil, err
	}

	s.metrics.Completion("success")
	s.logger.Info("CHAT", "Completion recorded", map[string]interface{}{
		"session_id":        sessionId,
		"model":             modelId,
		"prompt_tokens":     completion.PromptTokens,
		"completion_tokens": completion.CompletionTokens,
	})

	return &dto.CompletionResult{
		Reply:            completion.Text,
		Codes:            codefence.Extract(completion.Text),
		Model:            modelId,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
	}, nil
}

// recordUserTurn validates the session under a row lock, appends the user turn and returns
// the transcript the provider should see, user turn included.
func (s *chatService) recordUserTurn(ctx context.Context, owner, sessionId, message string) ([]llm.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
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
	if session.Owner != owner {
		return nil, apperror.ErrSessionOwnerMismatch
	}
	if session.Ended {
		return nil, apperror.ErrSessionEnded
	}

	records, err := uow.ChatRecordRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ReplayOrder{},
	)
	if err != nil {
		return nil, apperror.Store(err)
	}

	userTurn, err := s.convLog.AppendWith(ctx, uow, sessionId, entity.RoleUser, message, nil)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, apperror.Store(err)
	}

	transcript := make([]llm.Message, 0, len(records)+1)
	for _, r := range records {
		transcript = append(transcript, llm.Message{Role: r.Role, Content: r.Content})
	}
	transcript = append(transcript, llm.Message{Role: userTurn.Role, Content: userTurn.Content})
	return transcript, nil
}
