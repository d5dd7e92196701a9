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
)

type RevokedTokenRepository struct {
	*config.Database
}

func NewRevokedTokenRepository(database *config.Database) *RevokedTokenRepository {
	return &RevokedTokenRepository{database}
}

// Insert : добавляет запись в журнал отзыва. false, если jti уже был отозван
func (r *RevokedTokenRepository) Insert(ctx context.Context, exec sqlx.ExtContext, token *model.RevokedToken) (bool, error) {
	query := `
	INSERT INTO revoked_tokens (jti, session_id, revoked_at, expires_at, revoked_by_user_id, reason, token_type)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (jti) DO NOTHING`

	result, err := exec.ExecContext(ctx, query,
		token.JTI, token.SessionID, token.RevokedAt, token.ExpiresAt, token.RevokedByUserID, token.Reason, token.TokenType)
	if err != nil {
		return false, util.LogError("[RevokedTokenRepo] не удалось сохранить отозванный токен", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[RevokedTokenRepo] не удалось проверить вставку", err)
	}
	return rows > 0, nil
}

// FindExpiry : срок хранения записи или nil, если jti не отзывался
func (r *RevokedTokenRepository) FindExpiry(ctx context.Context, exec sqlx.ExtContext, jti string) (*time.Time, error) {
	var expiresAt time.Time
	err := sqlx.GetContext(ctx, exec, &expiresAt, `SELECT expires_at FROM revoked_tokens WHERE jti = $1`, jti)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, util.LogError("[RevokedTokenRepo] ошибка проверки отзыва токена", err)
	}
	return &expiresAt, nil
}

func (r *RevokedTokenRepository) DeleteExpired(ctx context.Context, exec sqlx.ExtContext, now time.Time) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, util.LogError("[RevokedTokenRepo] не удалось удалить просроченные записи", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("[RevokedTokenRepo] не удалось проверить удаление", err)
	}
	return rows, nil
}
