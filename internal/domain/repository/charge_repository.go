package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
)

// ChargeRepository puerto de persistencia para Charge (rubros).
type ChargeRepository interface {
	Create(ctx context.Context, charge *entity.Charge) error
	GetByID(ctx context.Context, id string) (*entity.Charge, error)
	List(ctx context.Context, filter ChargeFilter) ([]*entity.Charge, int, error)
	Update(ctx context.Context, charge *entity.Charge) error
	Delete(ctx context.Context, id string) error

	// ListOverdueUnpaid rubros UNPAID de la línea con due_date estrictamente anterior a before.
	ListOverdueUnpaid(ctx context.Context, lineID string, before time.Time) ([]*entity.Charge, error)
	// CountOverdueUnpaid igual que ListOverdueUnpaid pero sólo cuenta.
	CountOverdueUnpaid(ctx context.Context, lineID string, before time.Time) (int, error)
}
