package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Cobranza-api/internal/application/dto"
	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

// ChargeUseCase casos de uso para rubros.
type ChargeUseCase struct {
	charges repository.ChargeRepository
	lines   repository.ServiceLineRepository
	clock   func() time.Time
}

// NewChargeUseCase construye el caso de uso.
func NewChargeUseCase(charges repository.ChargeRepository, lines repository.ServiceLineRepository) *ChargeUseCase {
	return &ChargeUseCase{charges: charges, lines: lines, clock: time.Now}
}

// Create registra un rubro; sin estado explícito queda UNPAID.
func (uc *ChargeUseCase) Create(ctx context.Context, in dto.CreateChargeRequest) (*dto.ChargeResponse, error) {
	status := entity.ChargeStatusUnpaid
	if in.Status != "" {
		st, ok := entity.ParseChargeStatus(in.Status)
		if !ok {
			return nil, domain.Invalid("status", "estado de rubro desconocido")
		}
		status = st
	}
	line, err := uc.lines.GetByID(ctx, in.ServiceLineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domain.Invalid("service_line_id", "la línea no existe")
	}
	now := uc.clock()
	charge := &entity.Charge{
		ID:            uuid.New().String(),
		ServiceLineID: line.ID,
		Amount:        in.Amount.Round(2),
		Status:        status,
		IssuedAt:      in.IssuedAt,
		DueDate:       in.DueDate,
		PaidAt:        in.PaidAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := charge.Validate(); err != nil {
		return nil, err
	}
	if err := uc.charges.Create(ctx, charge); err != nil {
		return nil, err
	}
	return toChargeResponse(charge), nil
}

// Get obtiene un rubro.
func (uc *ChargeUseCase) Get(ctx context.Context, id string) (*dto.ChargeResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toChargeResponse(c), nil
}

// List rubros del más reciente vencimiento al más antiguo.
func (uc *ChargeUseCase) List(ctx context.Context, q dto.ChargeQuery) (*dto.ChargeListResponse, error) {
	q.DefaultPage()
	filter := repository.ChargeFilter{
		ServiceLineID: q.ServiceLineID,
		Page:          repository.Page{Limit: q.Limit, Offset: q.Offset},
	}
	if q.Status != "" {
		st, ok := entity.ParseChargeStatus(q.Status)
		if !ok {
			return nil, domain.Invalid("status", "estado de rubro desconocido")
		}
		filter.Status = st
	}
	list, total, err := uc.charges.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ChargeResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toChargeResponse(c))
	}
	return &dto.ChargeListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

// Update actualización parcial; las fechas se validan juntas tras aplicar el cambio.
func (uc *ChargeUseCase) Update(ctx context.Context, id string, in dto.UpdateChargeRequest) (*dto.ChargeResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Amount != nil {
		c.Amount = in.Amount.Round(2)
	}
	if in.Status != nil {
		st, ok := entity.ParseChargeStatus(*in.Status)
		if !ok {
			return nil, domain.Invalid("status", "estado de rubro desconocido")
		}
		c.Status = st
	}
	if in.IssuedAt != nil {
		c.IssuedAt = *in.IssuedAt
	}
	if in.DueDate != nil {
		c.DueDate = *in.DueDate
	}
	if in.PaidAt != nil {
		c.PaidAt = in.PaidAt
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = uc.clock()
	if err := uc.charges.Update(ctx, c); err != nil {
		return nil, err
	}
	return toChargeResponse(c), nil
}

// Delete borrado físico del rubro.
func (uc *ChargeUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.load(ctx, id); err != nil {
		return err
	}
	return uc.charges.Delete(ctx, id)
}

func (uc *ChargeUseCase) load(ctx context.Context, id string) (*entity.Charge, error) {
	c, err := uc.charges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func toChargeResponse(c *entity.Charge) *dto.ChargeResponse {
	return &dto.ChargeResponse{
		ID:            c.ID,
		ServiceLineID: c.ServiceLineID,
		Amount:        c.Amount,
		Status:        string(c.Status),
		IssuedAt:      c.IssuedAt,
		DueDate:       c.DueDate,
		PaidAt:        c.PaidAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
