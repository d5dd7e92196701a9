package service

import (
	"context"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/ports"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// SessionService : жизненный цикл сессий. Сессия остается записью без поведения,
// все изменения идут через переданный exec вызывающей транзакции.
type SessionService struct {
	repo    ports.SessionRepository
	ledger  ports.RevocationLedger
	policy  config.SessionConfig
	clock   clockwork.Clock
	metrics ports.AuthMetrics
	logger  *zap.Logger
}

func NewSessionService(
	repo ports.SessionRepository,
	ledger ports.RevocationLedger,
	policy config.SessionConfig,
	clock clockwork.Clock,
	metrics ports.AuthMetrics,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		repo:    repo,
		ledger:  ledger,
		policy:  policy,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// CreateSession : создает сессию. Если активных сессий уже max_active_sessions,
// самые старые по времени создания отзываются до вставки новой.
func (s *SessionService) CreateSession(
	ctx context.Context,
	exec sqlx.ExtContext,
	user *model.User,
	client model.ClientInfo,
	accessJTI, refreshJTI string,
) (*model.Session, error) {
	if net.ParseIP(client.IP) == nil {
		s.logger.Warn("некорректный ip клиента", zap.String("ip", client.IP), zap.String("user", user.Username))
		return nil, model.ErrInvalidClientIP
	}

	active, err := s.repo.ListActiveByUserForUpdate(ctx, exec, user.ID)
	if err != nil {
		return nil, fmt.Errorf("[SessionService] %w", err)
	}

	for i := 0; len(active)-i >= s.policy.MaxActiveSessions; i++ {
		if err := s.RevokeSession(ctx, exec, &active[i], nil, model.ReasonTooManySessions); err != nil {
			return nil, err
		}
		s.logger.Info("старая сессия вытеснена лимитом",
			zap.String("user", user.Username), zap.String("session", active[i].ID))
	}

	now := s.clock.Now().UTC()
	session := &model.Session{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		IPAddress:       client.IP,
		UserAgent:       client.UserAgent,
		CreatedAt:       now,
		LastActivity:    now,
		IsActive:        true,
		AccessTokenJTI:  accessJTI,
		RefreshTokenJTI: refreshJTI,
	}

	if err := s.repo.Create(ctx, exec, session); err != nil {
		return nil, fmt.Errorf("[SessionService] не удалось создать сессию: %w", err)
	}

	return session, nil
}

// Touch : обновляет last_activity. false означает, что сессия мертва
// (уже неактивна, превысила абсолютный срок или простаивала слишком долго).
func (s *SessionService) Touch(ctx context.Context, exec sqlx.ExtContext, session *model.Session) (bool, error) {
	if !session.IsActive {
		return false, nil
	}

	now := s.clock.Now().UTC()
	reason := ""
	switch {
	case now.Sub(session.CreatedAt) > s.policy.AbsoluteTimeout:
		reason = model.ReasonExpired
	case now.Sub(session.LastActivity) > s.policy.IdleTimeout:
		reason = model.ReasonInactivity
	}

	if reason != "" {
		if err := s.RevokeSession(ctx, exec, session, nil, reason); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.repo.Touch(ctx, exec, session.ID, now); err != nil {
		return false, fmt.Errorf("[SessionService] %w", err)
	}
	session.LastActivity = now
	return true, nil
}

// Rotate : заменяет jti сессии. Пустой refreshJTI оставляет текущий refresh токен.
// Старый refresh отзывается до перезаписи, проигравший гонку получает ErrSessionConflict.
func (s *SessionService) Rotate(ctx context.Context, exec sqlx.ExtContext, session *model.Session, accessJTI, refreshJTI string) error {
	if !session.IsActive {
		return model.ErrSessionInactive
	}

	oldRefresh := session.RefreshTokenJTI
	newRefresh := oldRefresh
	if refreshJTI != "" {
		if err := s.ledger.Revoke(ctx, exec, oldRefresh, &session.ID, model.ReasonRotation, model.TokenRefresh, nil); err != nil {
			return err
		}
		newRefresh = refreshJTI
	}

	now := s.clock.Now().UTC()
	if err := s.repo.UpdateTokens(ctx, exec, session.ID, oldRefresh, accessJTI, newRefresh, now); err != nil {
		return fmt.Errorf("[SessionService] %w", err)
	}

	session.AccessTokenJTI = accessJTI
	session.RefreshTokenJTI = newRefresh
	session.LastActivity = now
	return nil
}

// RevokeSession : отзывает оба jti и деактивирует сессию. Повторный вызов ничего не делает
func (s *SessionService) RevokeSession(ctx context.Context, exec sqlx.ExtContext, session *model.Session, actorID *string, reason string) error {
	if session == nil || !session.IsActive {
		return nil
	}

	if err := s.ledger.Revoke(ctx, exec, session.AccessTokenJTI, &session.ID, reason, model.TokenAccess, actorID); err != nil {
		return err
	}
	if err := s.ledger.Revoke(ctx, exec, session.RefreshTokenJTI, &session.ID, reason, model.TokenRefresh, actorID); err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	changed, err := s.repo.Deactivate(ctx, exec, session.ID, reason, now)
	if err != nil {
		return fmt.Errorf("[SessionService] %w", err)
	}

	session.IsActive = false
	session.ExpiredAt = &now
	session.DeactivationReason = &reason

	if changed {
		s.metrics.SessionRevoked(reason)
	}
	return nil
}

// RevokeAllForUser : отзывает все активные сессии пользователя кроме keepSessionID
func (s *SessionService) RevokeAllForUser(
	ctx context.Context,
	exec sqlx.ExtContext,
	userID string,
	actorID *string,
	reason, keepSessionID string,
) (int, error) {
	active, err := s.repo.ListActiveByUserForUpdate(ctx, exec, userID)
	if err != nil {
		return 0, fmt.Errorf("[SessionService] %w", err)
	}

	revoked := 0
	for i := range active {
		if active[i].ID == keepSessionID {
			continue
		}
		if err := s.RevokeSession(ctx, exec, &active[i], actorID, reason); err != nil {
			return revoked, err
		}
		revoked++
	}
	return revoked, nil
}

// DeactivateIdle : отзывает активные сессии без активности с момента before
func (s *SessionService) DeactivateIdle(ctx context.Context, exec sqlx.ExtContext, before time.Time) (int, error) {
	stale, err := s.repo.ListIdleSince(ctx, exec, before)
	if err != nil {
		return 0, fmt.Errorf("[SessionService] %w", err)
	}

	for i := range stale {
		if err := s.RevokeSession(ctx, exec, &stale[i], nil, model.ReasonInactivity); err != nil {
			return i, err
		}
	}
	return len(stale), nil
}

func (s *SessionService) ActiveCount(ctx context.Context, exec sqlx.ExtContext, userID string) (int, error) {
	return s.repo.CountActiveByUser(ctx, exec, userID)
}

// ActiveSessions : последние по активности первыми
func (s *SessionService) ActiveSessions(ctx context.Context, exec sqlx.ExtContext, userID string) ([]model.Session, error) {
	return s.repo.ListActiveByUser(ctx, exec, userID)
}

func (s *SessionService) SessionByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.Session, error) {
	return s.repo.FindByID(ctx, exec, id)
}

func (s *SessionService) SessionByAccessJTI(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error) {
	return s.repo.FindByAccessJTI(ctx, exec, jti)
}

func (s *SessionService) SessionByRefreshJTIForUpdate(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error) {
	return s.repo.FindByRefreshJTIForUpdate(ctx, exec, jti)
}
