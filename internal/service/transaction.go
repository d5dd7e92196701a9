package service

import (
	"context"
	"factory-server/internal/ports"

	"github.com/jmoiron/sqlx"
)

// runInTx : выполняет fn в транзакции, при ошибке откатывает
func runInTx(ctx context.Context, tx ports.Transactor, fn func(exec sqlx.ExtContext) error) error {
	exec, commit, rollback, err := tx.BeginTX(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	if err := fn(exec); err != nil {
		return err
	}
	return commit()
}
