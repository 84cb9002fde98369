package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

// Ensure TxRunner implements collections.UnitOfWorkFactory.
var _ collections.UnitOfWorkFactory = (*TxRunner)(nil)

// TxRunner abre transacciones PostgreSQL con repos atados a la tx.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Begin inicia una transacción READ COMMITTED; la línea se bloquea luego con FOR UPDATE.
func (r *TxRunner) Begin(ctx context.Context) (collections.UnitOfWork, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txUnit{tx: tx}, nil
}

type txUnit struct {
	tx pgx.Tx
}

func (u *txUnit) Lines() repository.ServiceLineRepository  { return NewServiceLineRepository(u.tx) }
func (u *txUnit) Charges() repository.ChargeRepository     { return NewChargeRepository(u.tx) }
func (u *txUnit) Logs() repository.CollectionLogRepository { return NewCollectionLogRepository(u.tx) }

func (u *txUnit) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback tras un Commit exitoso devuelve pgx.ErrTxClosed; se ignora.
func (u *txUnit) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
