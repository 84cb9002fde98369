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

// CustomerUseCase casos de uso para clientes.
type CustomerUseCase struct {
	repo  repository.CustomerRepository
	clock func() time.Time
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, clock: time.Now}
}

// Create crea un nuevo cliente activo. La identificación es única.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	now := uc.clock()
	customer := &entity.Customer{
		ID:             uuid.New().String(),
		Identification: in.Identification,
		LegalName:      in.LegalName,
		Email:          in.Email,
		Phone:          in.Phone,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	customer.Normalize()
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if err := uc.ensureUniqueIdentification(ctx, customer); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// Get obtiene un cliente por ID (activo o no).
func (uc *CustomerUseCase) Get(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// List lista clientes ordenados por razón social.
func (uc *CustomerUseCase) List(ctx context.Context, q dto.CustomerQuery) (*dto.CustomerListResponse, error) {
	q.DefaultPage()
	list, total, err := uc.repo.List(ctx, repository.CustomerFilter{
		Identification: q.Identification,
		LegalName:      q.LegalName,
		IsActive:       q.IsActive,
		Page:           repository.Page{Limit: q.Limit, Offset: q.Offset},
	})
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return &dto.CustomerListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

// Update actualización parcial; sólo se tocan los campos presentes.
func (uc *CustomerUseCase) Update(ctx context.Context, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Identification != nil {
		c.Identification = *in.Identification
	}
	if in.LegalName != nil {
		c.LegalName = *in.LegalName
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := uc.ensureUniqueIdentification(ctx, c); err != nil {
		return nil, err
	}
	c.UpdatedAt = uc.clock()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// Deactivate eliminación lógica. Devuelve ErrAlreadyInactive si ya estaba inactivo.
func (uc *CustomerUseCase) Deactivate(ctx context.Context, id string) error {
	c, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if !c.IsActive {
		return domain.ErrAlreadyInactive
	}
	return uc.repo.Deactivate(ctx, id, uc.clock())
}

func (uc *CustomerUseCase) load(ctx context.Context, id string) (*entity.Customer, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (uc *CustomerUseCase) ensureUniqueIdentification(ctx context.Context, c *entity.Customer) error {
	existing, err := uc.repo.GetByIdentification(ctx, c.Identification)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != c.ID {
		return domain.Invalid("identification", "ya existe un cliente con esa identificación")
	}
	return nil
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:             c.ID,
		Identification: c.Identification,
		LegalName:      c.LegalName,
		Email:          c.Email,
		Phone:          c.Phone,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
