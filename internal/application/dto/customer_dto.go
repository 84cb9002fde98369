package dto

import "time"

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Identification string `json:"identification" validate:"required"`
	LegalName      string `json:"legal_name" validate:"required,max=200"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,max=15"`
}

// UpdateCustomerRequest body para PATCH /api/customers/:id (actualización parcial).
type UpdateCustomerRequest struct {
	Identification *string `json:"identification,omitempty"`
	LegalName      *string `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=15"`
}

// CustomerQuery filtros de GET /api/customers.
type CustomerQuery struct {
	Identification string `query:"identification"`
	LegalName      string `query:"legal_name"`
	IsActive       *bool  `query:"is_active"`
	PageRequest
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID             string    `json:"id"`
	Identification string    `json:"identification"`
	LegalName      string    `json:"legal_name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CustomerListResponse página de clientes.
type CustomerListResponse struct {
	Items []*CustomerResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}
