package repository

import (
	"context"
	"database/sql"
	"errors"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/util"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const sessionColumns = `id, user_id, ip_address, user_agent, created_at, last_activity, is_active,
	access_token_jti, refresh_token_jti, expired_at, deactivation_reason`

type SessionRepository struct {
	*config.Database
}

func NewSessionRepository(database *config.Database) *SessionRepository {
	return &SessionRepository{database}
}

// Create : сохраняет новую сессию. Повтор jti дает ErrSessionConflict
func (r *SessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, s *model.Session) error {
	query := `
	INSERT INTO user_sessions (id, user_id, ip_address, user_agent, created_at, last_activity, is_active,
		access_token_jti, refresh_token_jti)
	VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8)`

	_, err := exec.ExecContext(ctx, query,
		s.ID, s.UserID, s.IPAddress, s.UserAgent, s.CreatedAt, s.LastActivity, s.AccessTokenJTI, s.RefreshTokenJTI)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSessionConflict
		}
		return util.LogError("[SessionRepo] ошибка вставки сессии", err)
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.Session, error) {
	return r.findOne(ctx, exec, `SELECT `+sessionColumns+` FROM user_sessions WHERE id = $1`, id)
}

func (r *SessionRepository) FindByAccessJTI(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error) {
	return r.findOne(ctx, exec, `SELECT `+sessionColumns+` FROM user_sessions WHERE access_token_jti = $1`, jti)
}

// FindByRefreshJTIForUpdate : блокирует строку сессии на время обновления токенов
func (r *SessionRepository) FindByRefreshJTIForUpdate(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error) {
	return r.findOne(ctx, exec, `SELECT `+sessionColumns+` FROM user_sessions WHERE refresh_token_jti = $1 FOR UPDATE`, jti)
}

func (r *SessionRepository) findOne(ctx context.Context, exec sqlx.ExtContext, query, arg string) (*model.Session, error) {
	var s model.Session
	if err := sqlx.GetContext(ctx, exec, &s, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, util.LogError("[SessionRepo] не удалось получить сессию", err)
	}
	return &s, nil
}

// ListActiveByUser : активные сессии, последние по активности первыми
func (r *SessionRepository) ListActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string) ([]model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE user_id = $1 AND is_active
		ORDER BY last_activity DESC`
	return r.list(ctx, exec, query, userID)
}

// ListActiveByUserForUpdate : активные сессии от самой старой по созданию, строки блокируются
func (r *SessionRepository) ListActiveByUserForUpdate(ctx context.Context, exec sqlx.ExtContext, userID string) ([]model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE user_id = $1 AND is_active
		ORDER BY created_at ASC
		FOR UPDATE`
	return r.list(ctx, exec, query, userID)
}

func (r *SessionRepository) CountActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_sessions WHERE user_id = $1 AND is_active`
	if err := sqlx.GetContext(ctx, exec, &count, query, userID); err != nil {
		return 0, util.LogError("[SessionRepo] не удалось посчитать активные сессии", err)
	}
	return count, nil
}

// Deactivate : переводит сессию в неактивное состояние, false если она уже была неактивна
func (r *SessionRepository) Deactivate(ctx context.Context, exec sqlx.ExtContext, id, reason string, at time.Time) (bool, error) {
	query := `
	UPDATE user_sessions
	SET is_active = FALSE, expired_at = $3, deactivation_reason = $2
	WHERE id = $1 AND is_active`

	result, err := exec.ExecContext(ctx, query, id, reason, at)
	if err != nil {
		return false, util.LogError("[SessionRepo] не удалось деактивировать сессию", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[SessionRepo] не удалось проверить деактивацию", err)
	}
	return rows > 0, nil
}

// UpdateTokens : заменяет jti, только если refresh jti не поменялся с момента чтения
func (r *SessionRepository) UpdateTokens(ctx context.Context, exec sqlx.ExtContext, id, oldRefreshJTI, accessJTI, refreshJTI string, at time.Time) error {
	query := `
	UPDATE user_sessions
	SET access_token_jti = $3, refresh_token_jti = $4, last_activity = $5
	WHERE id = $1 AND refresh_token_jti = $2 AND is_active`

	result, err := exec.ExecContext(ctx, query, id, oldRefreshJTI, accessJTI, refreshJTI, at)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSessionConflict
		}
		return util.LogError("[SessionRepo] не удалось обновить токены сессии", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[SessionRepo] не удалось проверить обновление токенов", err)
	}
	if rows == 0 {
		return model.ErrSessionConflict
	}
	return nil
}

func (r *SessionRepository) Touch(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error {
	query := `UPDATE user_sessions SET last_activity = $2 WHERE id = $1 AND is_active`
	if _, err := exec.ExecContext(ctx, query, id, at); err != nil {
		return util.LogError("[SessionRepo] не удалось обновить активность", err)
	}
	return nil
}

// ListIdleSince : активные сессии без активности с момента before
func (r *SessionRepository) ListIdleSince(ctx context.Context, exec sqlx.ExtContext, before time.Time) ([]model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE is_active AND last_activity < $1
		ORDER BY last_activity ASC
		FOR UPDATE SKIP LOCKED`
	return r.list(ctx, exec, query, before)
}

// ListLastActiveBefore : сессии в любом состоянии, вышедшие за срок хранения
func (r *SessionRepository) ListLastActiveBefore(ctx context.Context, exec sqlx.ExtContext, before time.Time) ([]model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions
		WHERE last_activity < $1
		ORDER BY last_activity ASC`
	return r.list(ctx, exec, query, before)
}

func (r *SessionRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := exec.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, util.LogError("[SessionRepo] не удалось удалить сессии", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("[SessionRepo] не удалось проверить удаление сессий", err)
	}
	return rows, nil
}

func (r *SessionRepository) list(ctx context.Context, exec sqlx.ExtContext, query string, arg interface{}) ([]model.Session, error) {
	sessions := []model.Session{}
	if err := sqlx.SelectContext(ctx, exec, &sessions, query, arg); err != nil {
		return nil, util.LogError("[SessionRepo] не удалось получить список сессий", err)
	}
	return sessions, nil
}
