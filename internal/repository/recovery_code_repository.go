package repository

import (
	"context"
	"errors"
	"factory-server/config"
	"factory-server/internal/util"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RecoveryCodeRepository : коды восстановления пароля в Redis, живут code_ttl
type RecoveryCodeRepository struct {
	client *config.RedisClient
}

func NewRecoveryCodeRepository(rdb *config.RedisClient) *RecoveryCodeRepository {
	return &RecoveryCodeRepository{rdb}
}

// SaveCode : новый код заменяет прежний и обнуляет счетчик неверных попыток
func (r *RecoveryCodeRepository) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := r.client.Client.Set(ctx, codeKey(email), code, ttl).Err(); err != nil {
		return util.LogError("[RecoveryRepo] ошибка сохранения кода в Redis", err)
	}
	if err := r.client.Client.Del(ctx, limitKey("verify", email)).Err(); err != nil {
		return util.LogError("[RecoveryRepo] ошибка сброса счетчика попыток", err)
	}
	return nil
}

func (r *RecoveryCodeRepository) Code(ctx context.Context, email string) (string, error) {
	code, err := r.client.Client.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", util.LogError("[RecoveryRepo] ошибка чтения кода из Redis", err)
	}
	return code, nil
}

func (r *RecoveryCodeRepository) DeleteCode(ctx context.Context, email string) error {
	if err := r.client.Client.Del(ctx, codeKey(email), limitKey("verify", email)).Err(); err != nil {
		return util.LogError("[RecoveryRepo] ошибка удаления кода из Redis", err)
	}
	return nil
}

// Allow : счетчик с фиксированным окном, окно начинается с первого обращения
func (r *RecoveryCodeRepository) Allow(ctx context.Context, scope, email string, limit int, window time.Duration) (bool, error) {
	key := limitKey(scope, email)
	n, err := r.client.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, util.LogError("[RecoveryRepo] ошибка счетчика запросов", err)
	}
	if n == 1 {
		if err := r.client.Client.Expire(ctx, key, window).Err(); err != nil {
			return false, util.LogError("[RecoveryRepo] ошибка установки окна счетчика", err)
		}
	}
	return n <= int64(limit), nil
}

func codeKey(email string) string {
	return fmt.Sprintf("recovery:code:%s", email)
}

func limitKey(scope, email string) string {
	return fmt.Sprintf("recovery:limit:%s:%s", scope, email)
}
