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
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const maxReasonLength = 255

type AuthenticationService struct {
	tx       ports.Transactor
	users    ports.UserRepository
	sessions ports.SessionManager
	ledger   ports.RevocationLedger
	codec    ports.TokenCodec
	hasher   ports.PasswordHasher
	lockout  config.LockoutConfig
	clock    clockwork.Clock
	metrics  ports.AuthMetrics
	logger   *zap.Logger

	// dummyHash : сверяется вместо хеша пользователя, если тот не найден или отключен
	dummyHash string
}

func NewAuthenticationService(
	tx ports.Transactor,
	users ports.UserRepository,
	sessions ports.SessionManager,
	ledger ports.RevocationLedger,
	codec ports.TokenCodec,
	hasher ports.PasswordHasher,
	lockout config.LockoutConfig,
	clock clockwork.Clock,
	metrics ports.AuthMetrics,
	logger *zap.Logger,
) *AuthenticationService {
	dummyHash, err := hasher.Hash("factory-server-placeholder")
	if err != nil {
		logger.Warn("не удалось подготовить фиктивный хеш пароля", zap.Error(err))
	}

	return &AuthenticationService{
		tx:        tx,
		users:     users,
		sessions:  sessions,
		ledger:    ledger,
		codec:     codec,
		hasher:    hasher,
		lockout:   lockout,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
		dummyHash: dummyHash,
	}
}

// Login проверяет пароль и создает сессию с парой токенов.
//
// Блокировка: после lockout.max_failed_attempts неудачных попыток подряд вход
// запрещен до истечения lockout.window с момента последней неудачи, даже с верным паролем.
// Неудачная попытка фиксируется в БД до возврата ошибки.
//
// Возвращает:
//   - model.LoginResult с пользователем, сессией и токенами
//   - model.ErrInvalidCredentials, model.AccountLockedError, model.ErrInvalidClientIP
func (s *AuthenticationService) Login(ctx context.Context, username, password string, client model.ClientInfo) (*model.LoginResult, error) {
	exec, commit, rollback, err := s.tx.BeginTX(ctx)
	if err != nil {
		return nil, fmt.Errorf("[AuthService] %w", err)
	}
	defer rollback()

	user, err := s.users.FindByUsernameForUpdate(ctx, exec, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.metrics.LoginAttempt("invalid_credentials")
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("[AuthService] %w", err)
	}
	if !user.IsActive {
		s.hasher.Verify(password, s.dummyHash)
		s.metrics.LoginAttempt("invalid_credentials")
		return nil, model.ErrInvalidCredentials
	}

	now := s.clock.Now().UTC()
	attempts := user.FailedLoginAttempts
	if user.LastFailedLogin != nil {
		unlockAt := user.LastFailedLogin.Add(s.lockout.Window)
		if !now.Before(unlockAt) {
			attempts = 0
		} else if attempts >= s.lockout.MaxFailedAttempts {
			s.metrics.LoginAttempt("locked")
			s.logger.Warn("вход заблокирован", zap.String("user", username), zap.Int("attempts", attempts))
			return nil, model.AccountLockedError{RetryAfter: unlockAt.Sub(now)}
		}
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		attempts++
		if err := s.users.RecordFailedLogin(ctx, exec, user.ID, attempts, now); err != nil {
			return nil, fmt.Errorf("[AuthService] %w", err)
		}
		if err := commit(); err != nil {
			return nil, util.LogError("[AuthService] не удалось сохранить неудачную попытку", err)
		}
		s.metrics.LoginAttempt("invalid_credentials")
		return nil, model.ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LastFailedLogin != nil {
		if err := s.users.ResetFailedLogins(ctx, exec, user.ID); err != nil {
			return nil, fmt.Errorf("[AuthService] %w", err)
		}
		user.FailedLoginAttempts = 0
		user.LastFailedLogin = nil
	}

	access, err := s.codec.Issue(model.TokenAccess, user.Username, client)
	if err != nil {
		return nil, fmt.Errorf("[AuthService] ошибка генерации токенов: %w", err)
	}
	refresh, err := s.codec.Issue(model.TokenRefresh, user.Username, client)
	if err != nil {
		return nil, fmt.Errorf("[AuthService] ошибка генерации токенов: %w", err)
	}

	session, err := s.sessions.CreateSession(ctx, exec, user, client, access.JTI, refresh.JTI)
	if err != nil {
		if errors.Is(err, model.ErrInvalidClientIP) {
			s.metrics.LoginAttempt("invalid_client")
			return nil, err
		}
		return nil, fmt.Errorf("[AuthService] %w", err)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[AuthService] не удалось завершить вход", err)
	}

	s.metrics.LoginAttempt("success")
	s.logger.Info("успешный вход", zap.String("user", user.Username), zap.String("session", session.ID))

	return &model.LoginResult{
		User:    user,
		Session: session,
		Access:  access,
		Refresh: refresh,
	}, nil
}

// Logout : завершает сессию. Отсутствующая или уже завершенная сессия не считается ошибкой
func (s *AuthenticationService) Logout(ctx context.Context, sessionID, actorID string) error {
	return runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		session, err := s.sessions.SessionByID(ctx, exec, sessionID)
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("[AuthService] %w", err)
		}
		return s.sessions.RevokeSession(ctx, exec, session, optional(actorID), model.ReasonLogout)
	})
}

func (s *AuthenticationService) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	var sessions []model.Session
	err := runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		var err error
		sessions, err = s.sessions.ActiveSessions(ctx, exec, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("[AuthService] %w", err)
	}
	return sessions, nil
}

// RevokeSession : пользователь завершает свою сессию, администратор любую.
// Чужая сессия для не-администратора выглядит как несуществующая.
func (s *AuthenticationService) RevokeSession(ctx context.Context, actor *model.User, sessionID string) error {
	return runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		session, err := s.sessions.SessionByID(ctx, exec, sessionID)
		if err != nil {
			return err
		}

		reason := model.ReasonUserRevoked
		if session.UserID != actor.ID {
			if _, err := security.RequireRole(actor, model.RoleAdmin); err != nil {
				return model.ErrSessionNotFound
			}
			reason = model.ReasonAdminRevoked
		}

		return s.sessions.RevokeSession(ctx, exec, session, &actor.ID, reason)
	})
}

func (s *AuthenticationService) RevokeOtherSessions(ctx context.Context, actor *model.User, keepSessionID string) (int, error) {
	var revoked int
	err := runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		var err error
		revoked, err = s.sessions.RevokeAllForUser(ctx, exec, actor.ID, &actor.ID, model.ReasonUserRevoked, keepSessionID)
		return err
	})
	return revoked, err
}

func (s *AuthenticationService) RevokeAllForUser(ctx context.Context, actor *model.User, userID string) (int, error) {
	if _, err := security.RequireRole(actor, model.RoleAdmin); err != nil {
		return 0, err
	}

	var revoked int
	err := runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		var err error
		revoked, err = s.sessions.RevokeAllForUser(ctx, exec, userID, &actor.ID, model.ReasonAdminRevoked, "")
		return err
	})
	if err == nil {
		s.logger.Info("администратор завершил сессии пользователя",
			zap.String("admin", actor.Username), zap.String("user_id", userID), zap.Int("revoked", revoked))
	}
	return revoked, err
}

// RevokeToken : принудительный отзыв одного jti администратором
func (s *AuthenticationService) RevokeToken(ctx context.Context, actor *model.User, jti string, kind model.TokenKind, reason string) error {
	if _, err := security.RequireRole(actor, model.RoleAdmin); err != nil {
		return err
	}
	if jti == "" || !kind.Valid() {
		return fmt.Errorf("%w: jti и token_type обязательны", model.ErrInvalidInput)
	}
	if _, err := uuid.Parse(jti); err != nil {
		return fmt.Errorf("%w: jti должен быть UUID", model.ErrInvalidInput)
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return fmt.Errorf("%w: причина длиннее %d символов", model.ErrInvalidInput, maxReasonLength)
	}
	if reason == "" {
		reason = model.ReasonAdminRevoked
	}

	return runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		return s.ledger.Revoke(ctx, exec, jti, nil, reason, kind, &actor.ID)
	})
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
