package service

import (
	"context"
	"errors"
	"factory-server/internal/model"
	"factory-server/internal/ports"
	"factory-server/internal/security"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type UserService struct {
	tx     ports.Transactor
	users  ports.UserRepository
	hasher ports.PasswordHasher
	logger *zap.Logger
}

func NewUserService(tx ports.Transactor, users ports.UserRepository, hasher ports.PasswordHasher, logger *zap.Logger) *UserService {
	return &UserService{
		tx:     tx,
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Register : создает пользователя с ролью worker
func (s *UserService) Register(ctx context.Context, username, email, fullName, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateUsername(username); err != nil {
		return nil, fmt.Errorf("[UserService] %w: %w", model.ErrInvalidInput, err)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("[UserService] %w: некорректный email", model.ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("[UserService] %w: %w", model.ErrWeakPassword, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
		Role:         model.RoleWorker,
		IsActive:     true,
	}

	var created *model.User
	err = runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		var err error
		created, err = s.users.Create(ctx, exec, user)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	s.logger.Info("зарегистрирован пользователь", zap.String("user", created.Username))
	return created, nil
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 64 {
		return fmt.Errorf("логин должен быть от 3 до 64 символов")
	}
	for _, c := range username {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && !strings.ContainsRune("._-", c) {
			return fmt.Errorf("логин может содержать только буквы, цифры и символы . _ -")
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("пароль должен содержать минимум 8 символов")
	}

	var upperCount, lowerCount, digitCount int
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upperCount++
		case unicode.IsLower(c):
			lowerCount++
		case unicode.IsDigit(c):
			digitCount++
		}
	}

	if upperCount == 0 || lowerCount == 0 {
		return fmt.Errorf("пароль должен содержать буквы в разных регистрах")
	}
	if digitCount == 0 {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user *model.User
	err := runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		var err error
		user, err = s.users.FindByID(ctx, exec, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRole : смена роли доступна только администратору
func (s *UserService) UpdateRole(ctx context.Context, actor *model.User, userID string, role model.Role) (*model.User, error) {
	if _, err := security.RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("[UserService] %w: %s", model.ErrInvalidRole, role)
	}

	var user *model.User
	err := runInTx(ctx, s.tx, func(exec sqlx.ExtContext) error {
		if err := s.users.UpdateRole(ctx, exec, userID, role); err != nil {
			return err
		}
		var err error
		user, err = s.users.FindByID(ctx, exec, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("роль пользователя изменена",
		zap.String("admin", actor.Username), zap.String("user", user.Username), zap.String("role", string(role)))
	return user, nil
}
