package ports

import (
	"context"
	"factory-server/internal/model"
)

type AuthenticationService interface {
	Login(ctx context.Context, username, password string, client model.ClientInfo) (*model.LoginResult, error)
	Logout(ctx context.Context, sessionID, actorID string) error
	ListSessions(ctx context.Context, userID string) ([]model.Session, error)
	RevokeSession(ctx context.Context, actor *model.User, sessionID string) error
	RevokeOtherSessions(ctx context.Context, actor *model.User, keepSessionID string) (int, error)
	RevokeAllForUser(ctx context.Context, actor *model.User, userID string) (int, error)
	RevokeToken(ctx context.Context, actor *model.User, jti string, kind model.TokenKind, reason string) error
}

// Resolver : определяет пользователя по cookie запроса и при необходимости тихо обновляет токены
type Resolver interface {
	Resolve(ctx context.Context, accessToken, refreshToken string, client model.ClientInfo) (*model.Resolution, error)
}
