package service

import (
	"context"
	"errors"
	"time"

	"llm-chat-be/internal/dto"
	"llm-chat-be/internal/pkg/apperror"
	"llm-chat-be/internal/pkg/logger"
	"llm-chat-be/internal/pkg/metrics"
	"llm-chat-be/internal/repository/unitofwork"
	"llm-chat-be/pkg/events"
	"llm-chat-be/pkg/redislock"
)

const sweepLockKey = "llm-chat:reclaimer:sweep"

type IReclaimerService interface {
	// Sweep ends every active session whose newest record is at least threshold old.
	Sweep(ctx context.Context, threshold time.Duration) (*dto.SweepResult, error)
}

type reclaimerService struct {
	uowFactory unitofwork.RepositoryFactory
	locker     redislock.Locker
	lockTTL    time.Duration
	clock      Clock
	publisher  *events.SessionPublisher
	metrics    metrics.Recorder
	logger     logger.ILogger
}

func NewReclaimerService(
	uowFactory unitofwork.RepositoryFactory,
	locker redislock.Locker,
	lockTTL time.Duration,
	clock Clock,
	publisher *events.SessionPublisher,
	recorder metrics.Recorder,
	log logger.ILogger,
) IReclaimerService {
	if locker == nil {
		locker = redislock.Noop{}
	}
	if clock == nil {
		clock = SystemClock
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &reclaimerService{
		uowFactory: uowFactory,
		locker:     locker,
		lockTTL:    lockTTL,
		clock:      clock,
		publisher:  publisher,
		metrics:    recorder,
		logger:     log,
	}
}

func (s *reclaimerService) Sweep(ctx context.Context, threshold time.Duration) (*dto.SweepResult, error) {
	if threshold <= 0 {
		return nil, apperror.WithMessage(apperror.ErrInvalidRequest, "stale threshold must be positive")
	}

	release, err := s.locker.Acquire(ctx, sweepLockKey, s.lockTTL)
	switch {
	case errors.Is(err, redislock.ErrNotAcquired):
		s.logger.Debug("RECLAIMER", "Sweep already running elsewhere", nil)
		return &dto.SweepResult{Skipped: true, Ended: []string{}, Anomalies: []string{}}, nil
	case err != nil:
		// The sweep is idempotent, so running without the lease only risks duplicate work.
		s.logger.Warn("RECLAIMER", "Sweep lock unavailable, continuing unlocked", map[string]interface{}{
			"error": err.Error(),
		})
		release = func() {}
	}
	defer release()

	repo := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository()

	activities, err := repo.ListActiveWithLastActivity(ctx)
	if err != nil {
		return nil, apperror.Store(err)
	}

	now := s.clock().UnixMilli()
	thresholdMillis := threshold.Milliseconds()
	cutoff := now - thresholdMillis

	result := &dto.SweepResult{
		Scanned:   len(activities),
		Ended:     []string{},
		Anomalies: []string{},
	}

	for _, activity := range activities {
		if activity.LastTimestamp == nil {
			// Admission writes the seed record with the session, so this should not happen.
			result.Anomalies = append(result.Anomalies, activity.SessionId)
			s.metrics.ReclaimAnomaly()
			s.logger.Warn("RECLAIMER", "Active session has no records", map[string]interface{}{
				"session_id": activity.SessionId,
				"owner":      activity.Owner,
			})
			continue
		}

		idle := now - *activity.LastTimestamp
		if idle < thresholdMillis {
			continue
		}

		ended, err := repo.EndIfIdleSince(ctx, activity.SessionId, cutoff)
		if err != nil {
			s.logger.Error("RECLAIMER", "Failed to end stale session", map[string]interface{}{
				"session_id": activity.SessionId,
				"error":      err.Error(),
			})
			continue
		}
		if !ended {
			// Ended concurrently, or a new record arrived after the scan.
			continue
		}

		result.Ended = append(result.Ended, activity.SessionId)
		s.metrics.SessionEnded("reclaimed")
		s.publisher.PublishReclaimed(ctx, activity.SessionId, activity.Owner, idle)
	}

	s.logger.Info("RECLAIMER", "Sweep finished", map[string]interface{}{
		"scanned":   result.Scanned,
		"ended":     len(result.Ended),
		"anomalies": len(result.Anomalies),
	})
	return result, nil
}
