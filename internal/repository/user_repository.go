package repository

import (
	"context"
	"database/sql"
	"errors"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/util"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, email, full_name, password_hash, role, is_active,
	failed_login_attempts, last_failed_login, created_at`

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// Create : сохраняет нового пользователя
func (r *UserRepository) Create(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (id, username, email, full_name, password_hash, role, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + userColumns

	created := &model.User{}
	err := sqlx.GetContext(ctx, exec, created, query,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash, user.Role, user.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrUserExists
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return created, nil
}

// FindByID : ищет пользователя по id
func (r *UserRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error) {
	return r.findOne(ctx, exec, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUsername : ищет пользователя по имени
func (r *UserRepository) FindByUsername(ctx context.Context, exec sqlx.ExtContext, username string) (*model.User, error) {
	return r.findOne(ctx, exec, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByUsernameForUpdate : то же, с блокировкой строки до конца транзакции
func (r *UserRepository) FindByUsernameForUpdate(ctx context.Context, exec sqlx.ExtContext, username string) (*model.User, error) {
	return r.findOne(ctx, exec, `SELECT `+userColumns+` FROM users WHERE username = $1 FOR UPDATE`, username)
}

// FindByEmail : ищет пользователя по email без учета регистра
func (r *UserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	return r.findOne(ctx, exec, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) findOne(ctx context.Context, exec sqlx.ExtContext, query string, arg string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// RecordFailedLogin : сохраняет счетчик неудачных попыток
func (r *UserRepository) RecordFailedLogin(ctx context.Context, exec sqlx.ExtContext, id string, attempts int, at time.Time) error {
	query := `UPDATE users SET failed_login_attempts = $2, last_failed_login = $3 WHERE id = $1`
	if _, err := exec.ExecContext(ctx, query, id, attempts, at); err != nil {
		return util.LogError("[UserRepo] не удалось сохранить неудачную попытку входа", err)
	}
	return nil
}

func (r *UserRepository) ResetFailedLogins(ctx context.Context, exec sqlx.ExtContext, id string) error {
	query := `UPDATE users SET failed_login_attempts = 0, last_failed_login = NULL WHERE id = $1`
	if _, err := exec.ExecContext(ctx, query, id); err != nil {
		return util.LogError("[UserRepo] не удалось сбросить счетчик попыток входа", err)
	}
	return nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, exec sqlx.ExtContext, id string, role model.Role) error {
	result, err := exec.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return util.LogError("[UserRepo] не удалось обновить роль", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[UserRepo] не удалось проверить обновление роли", err)
	}
	if rows == 0 {
		return fmt.Errorf("[UserRepo] %w", model.ErrUserNotFound)
	}
	return nil
}

// UpdatePassword : новый хэш пароля, счетчик неудачных входов сбрасывается
func (r *UserRepository) UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, failed_login_attempts = 0, last_failed_login = NULL WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return util.LogError("[UserRepo] не удалось обновить пароль", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[UserRepo] не удалось проверить обновление пароля", err)
	}
	if rows == 0 {
		return fmt.Errorf("[UserRepo] %w", model.ErrUserNotFound)
	}
	return nil
}
