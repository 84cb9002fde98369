package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
// GetBy* devuelven (nil, nil) cuando no existe el registro.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	GetByIdentification(ctx context.Context, identification string) (*entity.Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]*entity.Customer, int, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Deactivate(ctx context.Context, id string, now time.Time) error
}
