package ports

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Transactor : единица работы. rollback после commit безопасен
type Transactor interface {
	BeginTX(ctx context.Context) (exec sqlx.ExtContext, commit func() error, rollback func() error, err error)
}
