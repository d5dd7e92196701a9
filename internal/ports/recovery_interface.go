package ports

import (
	"context"
	"time"
)

// RecoveryCodeStore : одноразовые коды сброса пароля и счетчики запросов, ключ по email
type RecoveryCodeStore interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	// Code : пустая строка, если кода нет или он истек
	Code(ctx context.Context, email string) (string, error)
	DeleteCode(ctx context.Context, email string) error
	Allow(ctx context.Context, scope, email string, limit int, window time.Duration) (bool, error)
}

type Mailer interface {
	SendRecoveryCode(ctx context.Context, to, code string, ttl time.Duration) error
}

type RecoveryService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}
