package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranza-api/internal/application/dto"
	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

// ServiceLineUseCase casos de uso para líneas de servicio.
// El saldo vencido nunca se acepta del usuario: sólo lo escribe la cobranza.
type ServiceLineUseCase struct {
	lines     repository.ServiceLineRepository
	customers repository.CustomerRepository
	clock     func() time.Time
}

// NewServiceLineUseCase construye el caso de uso.
func NewServiceLineUseCase(lines repository.ServiceLineRepository, customers repository.CustomerRepository) *ServiceLineUseCase {
	return &ServiceLineUseCase{lines: lines, customers: customers, clock: time.Now}
}

// Create crea una línea para un cliente activo. Sin estado explícito queda NOT_INSTALLED.
func (uc *ServiceLineUseCase) Create(ctx context.Context, in dto.CreateServiceLineRequest) (*dto.ServiceLineResponse, error) {
	status := entity.LineStatusNotInstalled
	if in.Status != "" {
		st, ok := entity.ParseLineStatus(in.Status)
		if !ok {
			return nil, domain.Invalid("status", "estado de línea desconocido")
		}
		status = st
	}
	customer, err := uc.customer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, domain.ErrInactiveCustomer
	}
	now := uc.clock()
	line := &entity.ServiceLine{
		ID:             uuid.New().String(),
		CustomerID:     customer.ID,
		CustomerName:   customer.LegalName,
		LineNumber:     in.LineNumber,
		Status:         status,
		InstalledAt:    in.InstalledAt,
		OverdueBalance: decimal.Zero,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	if err := uc.lines.Create(ctx, line); err != nil {
		return nil, err
	}
	return toServiceLineResponse(line), nil
}

// Get obtiene una línea con la razón social del cliente.
func (uc *ServiceLineUseCase) Get(ctx context.Context, id string) (*dto.ServiceLineResponse, error) {
	line, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toServiceLineResponse(line), nil
}

// List filtra por cliente, estado y activo.
func (uc *ServiceLineUseCase) List(ctx context.Context, q dto.ServiceLineQuery) (*dto.ServiceLineListResponse, error) {
	q.DefaultPage()
	filter := repository.ServiceLineFilter{
		CustomerID: q.CustomerID,
		IsActive:   q.IsActive,
		Page:       repository.Page{Limit: q.Limit, Offset: q.Offset},
	}
	if q.Status != "" {
		st, ok := entity.ParseLineStatus(q.Status)
		if !ok {
			return nil, domain.Invalid("status", "estado de línea desconocido")
		}
		filter.Status = st
	}
	list, total, err := uc.lines.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ServiceLineResponse, 0, len(list))
	for _, l := range list {
		out = append(out, toServiceLineResponse(l))
	}
	return &dto.ServiceLineListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

// Update actualización parcial. Una línea no puede quedar ACTIVE con un cliente inactivo.
func (uc *ServiceLineUseCase) Update(ctx context.Context, id string, in dto.UpdateServiceLineRequest) (*dto.ServiceLineResponse, error) {
	line, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CustomerID != nil && *in.CustomerID != line.CustomerID {
		c, err := uc.customer(ctx, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		if !c.IsActive {
			return nil, domain.ErrInactiveCustomer
		}
		line.CustomerID, line.CustomerName = c.ID, c.LegalName
	}
	if in.LineNumber != nil {
		line.LineNumber = *in.LineNumber
	}
	if in.Status != nil {
		st, ok := entity.ParseLineStatus(*in.Status)
		if !ok {
			return nil, domain.Invalid("status", "estado de línea desconocido")
		}
		line.Status = st
	}
	if in.InstalledAt != nil {
		line.InstalledAt = in.InstalledAt
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	if line.Status == entity.LineStatusActive {
		c, err := uc.customer(ctx, line.CustomerID)
		if err != nil {
			return nil, err
		}
		if !c.IsActive {
			return nil, domain.Invalid("status", "no se puede activar una línea de un cliente inactivo")
		}
	}
	line.UpdatedAt = uc.clock()
	if err := uc.lines.Update(ctx, line); err != nil {
		return nil, err
	}
	return uc.Get(ctx, id)
}

// Deactivate eliminación lógica. Devuelve ErrAlreadyInactive si ya estaba inactiva.
func (uc *ServiceLineUseCase) Deactivate(ctx context.Context, id string) error {
	line, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if !line.IsActive {
		return domain.ErrAlreadyInactive
	}
	return uc.lines.Deactivate(ctx, id, uc.clock())
}

func (uc *ServiceLineUseCase) load(ctx context.Context, id string) (*entity.ServiceLine, error) {
	line, err := uc.lines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domain.ErrNotFound
	}
	return line, nil
}

func (uc *ServiceLineUseCase) customer(ctx context.Context, id string) (*entity.Customer, error) {
	if id == "" {
		return nil, domain.Invalid("customer_id", "el cliente es requerido")
	}
	c, err := uc.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.Invalid("customer_id", "el cliente no existe")
	}
	return c, nil
}

func toServiceLineResponse(l *entity.ServiceLine) *dto.ServiceLineResponse {
	return &dto.ServiceLineResponse{
		ID:             l.ID,
		CustomerID:     l.CustomerID,
		CustomerName:   l.CustomerName,
		LineNumber:     l.LineNumber,
		Status:         string(l.Status),
		InstalledAt:    l.InstalledAt,
		OverdueBalance: l.OverdueBalance,
		IsActive:       l.IsActive,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}
