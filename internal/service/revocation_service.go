package service

import (
	"context"
	"factory-server/internal/model"
	"factory-server/internal/ports"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// RevocationService : журнал отозванных jti. Redis используется только как копия
// подтвержденных записей, отсутствие ключа в кэше всегда перепроверяется в БД.
type RevocationService struct {
	repo   ports.RevokedTokenRepository
	cache  ports.RevocationCache
	ttl    func(kind model.TokenKind) time.Duration
	clock  clockwork.Clock
	logger *zap.Logger
}

func NewRevocationService(
	repo ports.RevokedTokenRepository,
	cache ports.RevocationCache,
	codec ports.TokenCodec,
	clock clockwork.Clock,
	logger *zap.Logger,
) *RevocationService {
	return &RevocationService{
		repo:   repo,
		cache:  cache,
		ttl:    codec.TTL,
		clock:  clock,
		logger: logger,
	}
}

// Revoke : запись хранится не меньше естественного срока жизни токена
func (s *RevocationService) Revoke(
	ctx context.Context,
	exec sqlx.ExtContext,
	jti string,
	sessionID *string,
	reason string,
	kind model.TokenKind,
	revokedBy *string,
) error {
	if jti == "" {
		return nil
	}

	now := s.clock.Now().UTC()
	_, err := s.repo.Insert(ctx, exec, &model.RevokedToken{
		JTI:             jti,
		SessionID:       sessionID,
		RevokedAt:       now,
		ExpiresAt:       now.Add(s.ttl(kind)),
		RevokedByUserID: revokedBy,
		Reason:          reason,
		TokenType:       kind,
	})
	if err != nil {
		return fmt.Errorf("[RevocationService] не удалось отозвать токен: %w", err)
	}
	return nil
}

func (s *RevocationService) IsRevoked(ctx context.Context, exec sqlx.ExtContext, jti string) (bool, error) {
	if s.cache != nil {
		revoked, err := s.cache.IsRevoked(ctx, jti)
		if err != nil {
			s.logger.Warn("кэш отзыва недоступен, проверка по БД", zap.Error(err))
		} else if revoked {
			return true, nil
		}
	}

	expiresAt, err := s.repo.FindExpiry(ctx, exec, jti)
	if err != nil {
		return false, fmt.Errorf("[RevocationService] %w", err)
	}
	if expiresAt == nil {
		return false, nil
	}

	if s.cache != nil {
		if err := s.cache.MarkRevoked(ctx, jti, expiresAt.Sub(s.clock.Now())); err != nil {
			s.logger.Warn("не удалось сохранить отзыв в кэш", zap.Error(err))
		}
	}
	return true, nil
}

func (s *RevocationService) PurgeExpired(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, exec, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("[RevocationService] %w", err)
	}
	return n, nil
}
