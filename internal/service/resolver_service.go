package service

import (
	"context"
	"errors"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/ports"
	"factory-server/internal/security"
	"factory-server/internal/util"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ResolverService : разбирает пару cookie запроса в пользователя и сессию.
// Пока access токену осталось больше refresh_threshold, он принимается как есть,
// иначе по refresh токену выпускается новый access (и новый refresh, если старый близок к истечению).
type ResolverService struct {
	tx       ports.Transactor
	users    ports.UserRepository
	sessions ports.SessionManager
	ledger   ports.RevocationLedger
	codec    ports.TokenCodec
	policy   config.SessionConfig
	clock    clockwork.Clock
	metrics  ports.AuthMetrics
	logger   *zap.Logger
}

func NewResolverService(
	tx ports.Transactor,
	users ports.UserRepository,
	sessions ports.SessionManager,
	ledger ports.RevocationLedger,
	codec ports.TokenCodec,
	policy config.SessionConfig,
	clock clockwork.Clock,
	metrics ports.AuthMetrics,
	logger *zap.Logger,
) *ResolverService {
	return &ResolverService{
		tx:       tx,
		users:    users,
		sessions: sessions,
		ledger:   ledger,
		codec:    codec,
		policy:   policy,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Resolve : ошибки аутентификации оборачивают model.ErrUnauthenticated.
// model.ErrUserNotFound возвращается отдельно, когда токен валиден, а пользователя нет или он отключен.
func (s *ResolverService) Resolve(ctx context.Context, accessToken, refreshToken string, client model.ClientInfo) (*model.Resolution, error) {
	if accessToken == "" {
		return nil, model.ErrUnauthenticated
	}

	claims, err := s.codec.Decode(accessToken, false)
	if err != nil {
		return nil, model.Unauthenticated(err)
	}
	if claims.Type != model.TokenAccess {
		return nil, model.Unauthenticated(model.ErrMalformedToken)
	}

	if err := s.checkClientIP(claims, client); err != nil {
		return nil, err
	}

	if claims.Remaining(s.clock.Now()) >= s.policy.RefreshThreshold {
		resolution, err := s.accept(ctx, claims)
		// access токен вытеснен параллельным обновлением, сессию подтверждает refresh токен
		if err == nil || !errors.Is(err, model.ErrSessionNotFound) || refreshToken == "" {
			return resolution, err
		}
		s.logger.Debug("access токен вытеснен, обновление по refresh токену", zap.String("user", claims.Subject))
	}

	resolution, err := s.refresh(ctx, claims, refreshToken, client)
	if err != nil {
		s.metrics.TokenRefresh("failure")
		return nil, err
	}
	s.metrics.TokenRefresh("success")
	return resolution, nil
}

func (s *ResolverService) checkClientIP(claims *security.Claims, client model.ClientInfo) error {
	if claims.IP == "" || claims.IP == client.IP {
		return nil
	}

	s.logger.Warn("ip клиента отличается от ip токена",
		zap.String("user", claims.Subject), zap.String("token_ip", claims.IP), zap.String("client_ip", client.IP))
	if s.policy.StrictIPBinding {
		return model.Unauthenticated(model.ErrInvalidClientIP)
	}
	return nil
}

func (s *ResolverService) accept(ctx context.Context, claims *security.Claims) (*model.Resolution, error) {
	exec, commit, rollback, err := s.tx.BeginTX(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Resolver] %w", err)
	}
	defer rollback()

	revoked, err := s.ledger.IsRevoked(ctx, exec, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("[Resolver] %w", err)
	}
	if revoked {
		return nil, model.Unauthenticated(model.ErrTokenRevoked)
	}

	session, err := s.sessions.SessionByAccessJTI(ctx, exec, claims.ID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.Unauthenticated(err)
		}
		return nil, fmt.Errorf("[Resolver] %w", err)
	}
	if !session.IsActive {
		return nil, model.Unauthenticated(model.ErrSessionInactive)
	}

	user, err := s.resolveUser(ctx, exec, claims.Subject, session)
	if err != nil {
		return nil, err
	}

	alive, err := s.sessions.Touch(ctx, exec, session)
	if err != nil {
		return nil, fmt.Errorf("[Resolver] %w", err)
	}
	if err := commit(); err != nil {
		return nil, util.LogError("[Resolver] не удалось сохранить активность сессии", err)
	}
	if !alive {
		return nil, model.Unauthenticated(model.ErrSessionInactive)
	}

	return &model.Resolution{User: user, Session: session}, nil
}

func (s *ResolverService) refresh(ctx context.Context, access *security.Claims, refreshToken string, client model.ClientInfo) (*model.Resolution, error) {
	if refreshToken == "" {
		return nil, model.Unauthenticated(model.ErrExpiredToken)
	}

	refresh, err := s.codec.Decode(refreshToken, true)
	if err != nil {
		return nil, model.Unauthenticated(err)
	}
	if refresh.Type != model.TokenRefresh || refresh.Subject != access.Subject {
		return nil, model.Unauthenticated(model.ErrMalformedToken)
	}

	exec, commit, rollback, err := s.tx.BeginTX(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Resolver] %w", err)
	}
	defer rollback()

	for _, jti := range []string{access.ID, refresh.ID} {
		revoked, err := s.ledger.IsRevoked(ctx, exec, jti)
		if err != nil {
			return nil, fmt.Errorf("[Resolver] %w", err)
		}
		if revoked {
			return nil, model.Unauthenticated(model.ErrTokenRevoked)
		}
	}

	session, err := s.sessions.SessionByRefreshJTIForUpdate(ctx, exec, refresh.ID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.Unauthenticated(err)
		}
		return nil, fmt.Errorf("[Resolver] %w", err)
	}
	if !session.IsActive {
		return nil, model.Unauthenticated(model.ErrSessionInactive)
	}

	if session.UserAgent != "" && session.UserAgent != client.UserAgent {
		s.logger.Warn("user agent не совпадает с сессией, сессия отозвана",
			zap.String("user", refresh.Subject), zap.String("session", session.ID))
		if err := s.sessions.RevokeSession(ctx, exec, session, nil, model.ReasonUserAgentMismatch); err != nil {
			return nil, fmt.Errorf("[Resolver] %w", err)
		}
		if err := commit(); err != nil {
			return nil, util.LogError("[Resolver] не удалось отозвать сессию", err)
		}
		return nil, model.Unauthenticated(model.ErrSessionInactive)
	}

	user, err := s.resolveUser(ctx, exec, refresh.Subject, session)
	if err != nil {
		return nil, err
	}

	alive, err := s.sessions.Touch(ctx, exec, session)
	if err != nil {
		return nil, fmt.Errorf("[Resolver] %w", err)
	}
	if !alive {
		if err := commit(); err != nil {
			return nil, util.LogError("[Resolver] не удалось завершить сессию", err)
		}
		return nil, model.Unauthenticated(model.ErrSessionInactive)
	}

	rotated := &model.RotatedTokens{}
	rotated.Access, err = s.codec.Issue(model.TokenAccess, user.Username, client)
	if err != nil {
		return nil, fmt.Errorf("[Resolver] ошибка генерации токенов: %w", err)
	}

	newRefreshJTI := ""
	if refresh.Remaining(s.clock.Now()) < s.policy.RefreshRotationThreshold {
		rotated.Refresh, err = s.codec.Issue(model.TokenRefresh, user.Username, client)
		if err != nil {
			return nil, fmt.Errorf("[Resolver] ошибка генерации токенов: %w", err)
		}
		newRefreshJTI = rotated.Refresh.JTI
	}

	if err := s.sessions.Rotate(ctx, exec, session, rotated.Access.JTI, newRefreshJTI); err != nil {
		if errors.Is(err, model.ErrSessionConflict) || errors.Is(err, model.ErrSessionInactive) {
			return nil, model.Unauthenticated(model.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("[Resolver] %w", err)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[Resolver] не удалось сохранить новые токены", err)
	}

	s.logger.Debug("токены обновлены",
		zap.String("user", user.Username), zap.String("session", session.ID), zap.Bool("refresh_rotated", rotated.Refresh != nil))

	return &model.Resolution{User: user, Session: session, Rotated: rotated}, nil
}

func (s *ResolverService) resolveUser(ctx context.Context, exec sqlx.ExtContext, username string, session *model.Session) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, exec, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("[Resolver] %w", err)
	}
	if !user.IsActive {
		return nil, model.ErrUserNotFound
	}
	if user.ID != session.UserID {
		return nil, model.Unauthenticated(model.ErrSessionNotFound)
	}
	return user, nil
}
