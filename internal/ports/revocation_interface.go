package ports

import (
	"context"
	"factory-server/internal/model"
	"time"

	"github.com/jmoiron/sqlx"
)

type RevokedTokenRepository interface {
	Insert(ctx context.Context, exec sqlx.ExtContext, token *model.RevokedToken) (bool, error)
	FindExpiry(ctx context.Context, exec sqlx.ExtContext, jti string) (*time.Time, error)
	DeleteExpired(ctx context.Context, exec sqlx.ExtContext, now time.Time) (int64, error)
}

// RevocationCache : Redis слой, хранит только подтвержденные отзывы
type RevocationCache interface {
	MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RevocationLedger interface {
	Revoke(ctx context.Context, exec sqlx.ExtContext, jti string, sessionID *string, reason string, kind model.TokenKind, revokedBy *string) error
	IsRevoked(ctx context.Context, exec sqlx.ExtContext, jti string) (bool, error)
	PurgeExpired(ctx context.Context, exec sqlx.ExtContext) (int64, error)
}
