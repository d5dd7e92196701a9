package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/ports"
	"fmt"
	"math/big"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	recoveryCodeDigits = 6

	scopeRequest = "request"
	scopeVerify  = "verify"
)

// RecoveryService : сброс забытого пароля по одноразовому коду из письма
type RecoveryService struct {
	tx       ports.Transactor
	users    ports.UserRepository
	sessions ports.SessionManager
	codes    ports.RecoveryCodeStore
	mailer   ports.Mailer
	hasher   ports.PasswordHasher
	cfg      config.RecoveryConfig
	logger   *zap.Logger
}

func NewRecoveryService(
	tx ports.Transactor,
	users ports.UserRepository,
	sessions ports.SessionManager,
	codes ports.RecoveryCodeStore,
	mailer ports.Mailer,
	hasher ports.PasswordHasher,
	cfg config.RecoveryConfig,
	logger *zap.Logger,
) *RecoveryService {
	return &RecoveryService{
		tx:       tx,
		users:    users,
		sessions: sessions,
		codes:    codes,
		mailer:   mailer,
		hasher:   hasher,
		cfg:      cfg,
		logger:   logger,
	}
}

// RequestReset отправляет код на почту пользователя.
//
// Для неизвестного или отключенного адреса ответ тот же, что для существующего:
// код не создается, ошибка не возвращается. Ошибка SMTP только логируется.
//
// Возвращает:
//   - model.ErrInvalidInput для пустого или некорректного email
//   - model.ErrTooManyRequests после recovery.request_limit запросов за окно
func (s *RecoveryService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return fmt.Errorf("[RecoveryService] %w: некорректный email", model.ErrInvalidInput)
	}

	allowed, err := s.codes.Allow(ctx, scopeRequest, email, s.cfg.RequestLimit, s.cfg.RequestWindow)
	if err != nil {
		return fmt.Errorf("[RecoveryService] %w", err)
	}
	if !allowed {
		return model.ErrTooManyRequests
	}

	var user *model.User
	err = runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		var err error
		user, err = s.users.FindByEmail(ctx, exec, email)
		return err
	})
	if errors.Is(err, model.ErrUserNotFound) {
		s.logger.Info("запрос сброса пароля для неизвестного email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("[RecoveryService] %w", err)
	}
	if !user.IsActive {
		s.logger.Info("запрос сброса пароля для отключенного пользователя", zap.String("user", user.Username))
		return nil
	}

	code, err := generateCode(recoveryCodeDigits)
	if err != nil {
		return fmt.Errorf("[RecoveryService] не удалось создать код: %w", err)
	}
	if err := s.codes.SaveCode(ctx, email, code, s.cfg.CodeTTL); err != nil {
		return fmt.Errorf("[RecoveryService] %w", err)
	}

	if err := s.mailer.SendRecoveryCode(ctx, user.Email, code, s.cfg.CodeTTL); err != nil {
		s.logger.Error("не удалось отправить код восстановления", zap.String("user", user.Username), zap.Error(err))
		return nil
	}

	s.logger.Info("код восстановления отправлен", zap.String("user", user.Username))
	return nil
}

// ResetPassword : проверяет код, меняет пароль и завершает все сессии пользователя в одной транзакции
func (s *RecoveryService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return fmt.Errorf("[RecoveryService] %w: email и код обязательны", model.ErrInvalidInput)
	}
	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("[RecoveryService] %w: %w", model.ErrWeakPassword, err)
	}

	allowed, err := s.codes.Allow(ctx, scopeVerify, email, s.cfg.MaxAttempts, s.cfg.CodeTTL)
	if err != nil {
		return fmt.Errorf("[RecoveryService] %w", err)
	}
	if !allowed {
		return model.ErrTooManyRequests
	}

	stored, err := s.codes.Code(ctx, email)
	if err != nil {
		return fmt.Errorf("[RecoveryService] %w", err)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return model.ErrInvalidResetCode
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("[RecoveryService] не удалось создать хэш пароля: %w", err)
	}

	var (
		user    *model.User
		revoked int
	)
	err = runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		var err error
		user, err = s.users.FindByEmail(ctx, exec, email)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return model.ErrUserNotFound
		}
		if err := s.users.UpdatePassword(ctx, exec, user.ID, hash); err != nil {
			return err
		}
		revoked, err = s.sessions.RevokeAllForUser(ctx, exec, user.ID, nil, model.ReasonPasswordReset, "")
		return err
	})
	if errors.Is(err, model.ErrUserNotFound) {
		return model.ErrInvalidResetCode
	}
	if err != nil {
		return fmt.Errorf("[RecoveryService] не удалось сменить пароль: %w", err)
	}

	if err := s.codes.DeleteCode(ctx, email); err != nil {
		s.logger.Warn("не удалось удалить использованный код", zap.String("user", user.Username), zap.Error(err))
	}

	s.logger.Info("пароль сброшен по коду", zap.String("user", user.Username), zap.Int("revoked_sessions", revoked))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode : n случайных цифр
func generateCode(n int) (string, error) {
	var sb strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
