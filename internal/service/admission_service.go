package service

import (
	"context"
	"strings"

	"llm-chat-be/internal/entity"
	"llm-chat-be/internal/pkg/apperror"
	"llm-chat-be/internal/pkg/logger"
	"llm-chat-be/internal/pkg/metrics"
	"llm-chat-be/internal/repository/specification"
	"llm-chat-be/internal/repository/unitofwork"
	"llm-chat-be/pkg/database"
	"llm-chat-be/pkg/events"
)

// SeedSource provides the system message written with every new session. On error the
// returned string is still usable.
type SeedSource interface {
	Build(ctx context.Context) (string, error)
}

type IAdmissionService interface {
	// Admit returns the active session sessionId for owner, creating or reactivating it
	// when the owner holds no other active session.
	Admit(ctx context.Context, owner, sessionId string) (*entity.ChatSession, error)
	// End marks the session ended. An empty owner skips the ownership check.
	End(ctx context.Context, owner, sessionId string) error
}

type admissionService struct {
	uowFactory unitofwork.RepositoryFactory
	convLog    IConversationLog
	seed       SeedSource
	publisher  *events.SessionPublisher
	metrics    metrics.Recorder
	logger     logger.ILogger
}

func NewAdmissionService(
	uowFactory unitofwork.RepositoryFactory,
	convLog IConversationLog,
	seed SeedSource,
	publisher *events.SessionPublisher,
	recorder metrics.Recorder,
	log logger.ILogger,
) IAdmissionService {
	return &admissionService{
		uowFactory: uowFactory,
		convLog:    convLog,
		seed:       seed,
		publisher:  publisher,
		metrics:    recorder,
		logger:     log,
	}
}

func (s *admissionService) Admit(ctx context.Context, owner, sessionId string) (*entity.ChatSession, error) {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(sessionId) == "" {
		return nil, apperror.WithMessage(apperror.ErrInvalidRequest, "owner and session id are required")
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository()

	session, err := repo.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, apperror.Store(err)
	}

	if session == nil {
		created, err := s.start(ctx, owner, sessionId)
		if err == nil {
			s.metrics.SessionAdmission(metrics.AdmissionStarted)
			s.logger.Info("ADMISSION", "Session started", map[string]interface{}{
				"session_id": sessionId,
				"owner":      owner,
			})
			s.publisher.PublishStarted(ctx, sessionId, owner)
			return created, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, apperror.Store(err)
		}

		// Either the owner already has an active session or someone created this id
		// concurrently. Only the latter leaves a row behind.
		session, err = repo.FindOne(ctx, specification.ByID{ID: sessionId})
		if err != nil {
			return nil, apperror.Store(err)
		}
		if session == nil {
			s.rejectLimit(owner, sessionId)
			return nil, apperror.ErrSessionLimitExceeded
		}
	}

	return s.admitExisting(ctx, owner, session)
}

// start inserts the session and its seed system message atomically. The raw store error
// is returned so the caller can classify unique violations.
func (s *admissionService) start(ctx context.Context, owner, sessionId string) (*entity.ChatSession, error) {
	seed := s.seedContent(ctx)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session := &entity.ChatSession{
		Id:    sessionId,
		Owner: owner,
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	if _, err := s.convLog.AppendWith(ctx, uow, sessionId, entity.RoleSystem, seed, nil); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *admissionService) admitExisting(ctx context.Context, owner string, session *entity.ChatSession) (*entity.ChatSession, error) {
	if session.Owner != owner {
		s.metrics.SessionAdmission(metrics.AdmissionOwnerMismatch)
		s.logger.Warn("ADMISSION", "Session owned by another identity", map[string]interface{}{
			"session_id": session.Id,
			"owner":      owner,
		})
		return nil, apperror.ErrSessionOwnerMismatch
	}

	if !session.Ended {
		s.metrics.SessionAdmission(metrics.AdmissionContinued)
		return session, nil
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository()

	reactivated, err := repo.Reactivate(ctx, session.Id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.rejectLimit(owner, session.Id)
			return nil, apperror.ErrSessionLimitExceeded
		}
		return nil, apperror.Store(err)
	}

	if !reactivated {
		// A concurrent request reactivated it first.
		current, err := repo.FindOne(ctx, specification.ByID{ID: session.Id})
		if err != nil {
			return nil, apperror.Store(err)
		}
		if current == nil {
			return nil, apperror.ErrSessionNotFound
		}
		if current.Ended {
			s.rejectLimit(owner, session.Id)
			return nil, apperror.ErrSessionLimitExceeded
		}
		s.metrics.SessionAdmission(metrics.AdmissionContinued)
		return current, nil
	}

	session.Ended = false
	s.metrics.SessionAdmission(metrics.AdmissionReactivated)
	s.logger.Info("ADMISSION", "Session reactivated", map[string]interface{}{
		"session_id": session.Id,
		"owner":      owner,
	})
	s.publisher.PublishReactivated(ctx, session.Id, owner)
	return session, nil
}

func (s *admissionService) End(ctx context.Context, owner, sessionId string) error {
	if strings.TrimSpace(sessionId) == "" {
		return apperror.WithMessage(apperror.ErrInvalidRequest, "session id is required")
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository()

	session, err := repo.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return apperror.Store(err)
	}
	if session == nil {
		return apperror.ErrSessionNotFound
	}
	if owner != "" && session.Owner != owner {
		return apperror.ErrSessionOwnerMismatch
	}

	changed, err := repo.End(ctx, sessionId)
	if err != nil {
		return apperror.Store(err)
	}
	if changed {
		s.metrics.SessionEnded("explicit")
		s.logger.Info("ADMISSION", "Session ended", map[string]interface{}{
			"session_id": sessionId,
		})
		s.publisher.PublishEnded(ctx, sessionId)
	}
	return nil
}

func (s *admissionService) seedContent(ctx context.Context) string {
	seed, err := s.seed.Build(ctx)
	if err != nil {
		s.metrics.DocsFetchError()
		s.logger.Warn("ADMISSION", "Reference docs unavailable, seeding with instruction only", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return seed
}

func (s *admissionService) rejectLimit(owner, sessionId string) {
	s.metrics.SessionAdmission(metrics.AdmissionLimitExceeded)
	s.logger.Info("ADMISSION", "Owner already has an active session", map[string]interface{}{
		"session_id": sessionId,
		"owner":      owner,
	})
}
