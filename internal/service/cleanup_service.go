package service

import (
	"context"
	"errors"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/ports"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// CleanupService : фоновая очистка сессий и журнала отзыва
type CleanupService struct {
	tx          ports.Transactor
	sessions    ports.SessionManager
	sessionRepo ports.SessionRepository
	ledger      ports.RevocationLedger
	archiver    ports.SessionArchiver
	cfg         config.CleanupConfig
	clock       clockwork.Clock
	metrics     ports.AuthMetrics
	logger      *zap.Logger
}

// NewCleanupService : archiver может быть nil, тогда старые сессии удаляются без выгрузки
func NewCleanupService(
	tx ports.Transactor,
	sessions ports.SessionManager,
	sessionRepo ports.SessionRepository,
	ledger ports.RevocationLedger,
	archiver ports.SessionArchiver,
	cfg config.CleanupConfig,
	clock clockwork.Clock,
	metrics ports.AuthMetrics,
	logger *zap.Logger,
) *CleanupService {
	return &CleanupService{
		tx:          tx,
		sessions:    sessions,
		sessionRepo: sessionRepo,
		ledger:      ledger,
		archiver:    archiver,
		cfg:         cfg,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run : первый проход сразу, далее раз в interval. После ошибки повтор через retry_delay.
// Возвращается при отмене ctx.
func (s *CleanupService) Run(ctx context.Context) {
	timer := s.clock.NewTimer(s.pass(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("фоновая очистка остановлена")
			return
		case <-timer.Chan():
			timer.Reset(s.pass(ctx))
		}
	}
}

// pass : один проход, возвращает паузу до следующего
func (s *CleanupService) pass(ctx context.Context) time.Duration {
	if _, err := s.RunOnce(ctx); err != nil {
		if ctx.Err() == nil {
			s.logger.Error("ошибка фоновой очистки", zap.Error(err), zap.Duration("retry_in", s.cfg.RetryDelay))
		}
		return s.cfg.RetryDelay
	}
	return s.cfg.Interval
}

// RunOnce : один проход. Шаги независимы, ошибка одного не отменяет остальные
func (s *CleanupService) RunOnce(ctx context.Context) (*model.CleanupReport, error) {
	report := &model.CleanupReport{}
	now := s.clock.Now().UTC()

	errDeactivate := runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		n, err := s.sessions.DeactivateIdle(ctx, exec, now.Add(-s.cfg.IdleCeiling))
		report.Deactivated = n
		return err
	})
	if errDeactivate != nil {
		report.Deactivated = 0
		errDeactivate = fmt.Errorf("[CleanupService] деактивация: %w", errDeactivate)
	}

	errDelete := s.deleteOld(ctx, now.Add(-s.cfg.Retention), report)

	errPurge := runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		n, err := s.ledger.PurgeExpired(ctx, exec)
		report.PurgedTokens = n
		return err
	})
	if errPurge != nil {
		report.PurgedTokens = 0
		errPurge = fmt.Errorf("[CleanupService] журнал отзыва: %w", errPurge)
	}

	s.metrics.CleanupItems("deactivated_sessions", report.Deactivated)
	s.metrics.CleanupItems("archived_sessions", report.Archived)
	s.metrics.CleanupItems("deleted_sessions", int(report.DeletedSession))
	s.metrics.CleanupItems("purged_tokens", int(report.PurgedTokens))

	err := errors.Join(errDeactivate, errDelete, errPurge)
	if err != nil {
		s.metrics.CleanupRun("failure")
		return report, err
	}

	s.metrics.CleanupRun("success")
	s.logger.Info("очистка завершена",
		zap.Int("deactivated", report.Deactivated),
		zap.Int("archived", report.Archived),
		zap.Int64("deleted", report.DeletedSession),
		zap.Int64("purged_tokens", report.PurgedTokens))
	return report, nil
}

func (s *CleanupService) deleteOld(ctx context.Context, before time.Time, report *model.CleanupReport) error {
	err := runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		old, err := s.sessionRepo.ListLastActiveBefore(ctx, exec, before)
		if err != nil {
			return err
		}
		if len(old) == 0 {
			return nil
		}

		if s.archiver != nil {
			if err := s.archiver.ArchiveSessions(ctx, old); err != nil {
				return fmt.Errorf("архивирование: %w", err)
			}
		}

		ids := make([]string, 0, len(old))
		for _, session := range old {
			ids = append(ids, session.ID)
		}
		deleted, err := s.sessionRepo.DeleteByIDs(ctx, exec, ids)
		if err != nil {
			return err
		}

		if s.archiver != nil {
			report.Archived = len(old)
		}
		report.DeletedSession = deleted
		return nil
	})
	if err != nil {
		report.Archived = 0
		report.DeletedSession = 0
		return fmt.Errorf("[CleanupService] удаление старых сессий: %w", err)
	}
	return nil
}
