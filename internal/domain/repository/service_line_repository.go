package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
)

// ServiceLineRepository puerto de persistencia para ServiceLine.
type ServiceLineRepository interface {
	Create(ctx context.Context, line *entity.ServiceLine) error
	GetByID(ctx context.Context, id string) (*entity.ServiceLine, error)
	List(ctx context.Context, filter ServiceLineFilter) ([]*entity.ServiceLine, int, error)
	// Update escribe los campos editables; nunca toca overdue_balance.
	Update(ctx context.Context, line *entity.ServiceLine) error
	Deactivate(ctx context.Context, id string, now time.Time) error

	// ListManageable líneas activas cuyo estado no está en UnmanageableLineStatuses.
	ListManageable(ctx context.Context) ([]*entity.ServiceLine, error)
	// LockForCollection relee la línea bloqueándola hasta el fin de la transacción (nil si no existe).
	LockForCollection(ctx context.Context, id string) (*entity.ServiceLine, error)
	// UpdateCollectionState actualiza sólo estado, saldo vencido y updated_at.
	UpdateCollectionState(ctx context.Context, id string, status entity.LineStatus, balance decimal.Decimal, now time.Time) error
}
