package ports

import (
	"context"
	"factory-server/internal/model"
	"time"

	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*model.User, error)
	FindByUsername(ctx context.Context, exec sqlx.ExtContext, username string) (*model.User, error)
	FindByUsernameForUpdate(ctx context.Context, exec sqlx.ExtContext, username string) (*model.User, error)
	FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error)
	RecordFailedLogin(ctx context.Context, exec sqlx.ExtContext, id string, attempts int, at time.Time) error
	ResetFailedLogins(ctx context.Context, exec sqlx.ExtContext, id string) error
	UpdateRole(ctx context.Context, exec sqlx.ExtContext, id string, role model.Role) error
	UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id, passwordHash string) error
}

type UserService interface {
	Register(ctx context.Context, username, email, fullName, password string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateRole(ctx context.Context, actor *model.User, userID string, role model.Role) (*model.User, error)
}
