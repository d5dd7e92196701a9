package repository

import (
	"context"
	"factory-server/config"
	"factory-server/internal/util"
	"fmt"
	"time"
)

// RevocationCacheRepository : Redis копия подтвержденных отзывов, ключ живет до истечения записи журнала
type RevocationCacheRepository struct {
	client *config.RedisClient
}

func NewRevocationCacheRepository(rdb *config.RedisClient) *RevocationCacheRepository {
	return &RevocationCacheRepository{rdb}
}

func (r *RevocationCacheRepository) MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	cmd := r.client.Client.Set(ctx, r.key(jti), "1", ttl)
	if err := cmd.Err(); err != nil {
		return util.LogError("ошибка сохранения отзыва в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}
	return nil
}

func (r *RevocationCacheRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, util.LogError("ошибка чтения отзыва из Redis", err)
	}
	return n > 0, nil
}

func (r *RevocationCacheRepository) key(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}
