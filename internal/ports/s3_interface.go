package ports

import (
	"context"
	"factory-server/internal/model"
)

// SessionArchiver : выгрузка сессий в S3 перед физическим удалением
type SessionArchiver interface {
	ArchiveSessions(ctx context.Context, sessions []model.Session) error
}
