package repository

import (
	"context"
	"database/sql"
	"errors"
	"factory-server/config"
	"factory-server/internal/util"

	"github.com/jmoiron/sqlx"
)

type Transactor struct {
	*config.Database
}

func NewTransactor(database *config.Database) *Transactor {
	return &Transactor{database}
}

// BeginTX : открывает транзакцию. rollback после commit ничего не делает
func (r *Transactor) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, util.LogError("[Transactor] не удалось открыть транзакцию", err)
	}

	commit := func() error {
		return tx.Commit()
	}
	rollback := func() error {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return err
		}
		return nil
	}

	return tx, commit, rollback, nil
}
