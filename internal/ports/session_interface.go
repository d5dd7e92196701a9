package ports

import (
	"context"
	"factory-server/internal/model"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionRepository : SQL слой user_sessions
type SessionRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, session *model.Session) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.Session, error)
	FindByAccessJTI(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error)
	FindByRefreshJTIForUpdate(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error)
	ListActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string) ([]model.Session, error)
	ListActiveByUserForUpdate(ctx context.Context, exec sqlx.ExtContext, userID string) ([]model.Session, error)
	CountActiveByUser(ctx context.Context, exec sqlx.ExtContext, userID string) (int, error)
	Deactivate(ctx context.Context, exec sqlx.ExtContext, id, reason string, at time.Time) (bool, error)
	UpdateTokens(ctx context.Context, exec sqlx.ExtContext, id, oldRefreshJTI, accessJTI, refreshJTI string, at time.Time) error
	Touch(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error
	ListIdleSince(ctx context.Context, exec sqlx.ExtContext, before time.Time) ([]model.Session, error)
	ListLastActiveBefore(ctx context.Context, exec sqlx.ExtContext, before time.Time) ([]model.Session, error)
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error)
}

// SessionManager : жизненный цикл сессий, все изменения в переданной единице работы
type SessionManager interface {
	CreateSession(ctx context.Context, exec sqlx.ExtContext, user *model.User, client model.ClientInfo, accessJTI, refreshJTI string) (*model.Session, error)
	Touch(ctx context.Context, exec sqlx.ExtContext, session *model.Session) (bool, error)
	Rotate(ctx context.Context, exec sqlx.ExtContext, session *model.Session, accessJTI, refreshJTI string) error
	RevokeSession(ctx context.Context, exec sqlx.ExtContext, session *model.Session, actorID *string, reason string) error
	RevokeAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string, actorID *string, reason, keepSessionID string) (int, error)
	ActiveCount(ctx context.Context, exec sqlx.ExtContext, userID string) (int, error)
	ActiveSessions(ctx context.Context, exec sqlx.ExtContext, userID string) ([]model.Session, error)
	SessionByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.Session, error)
	SessionByAccessJTI(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error)
	SessionByRefreshJTIForUpdate(ctx context.Context, exec sqlx.ExtContext, jti string) (*model.Session, error)
	DeactivateIdle(ctx context.Context, exec sqlx.ExtContext, before time.Time) (int, error)
}
