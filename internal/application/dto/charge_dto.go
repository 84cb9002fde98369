package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateChargeRequest body para POST /api/charges.
type CreateChargeRequest struct {
	ServiceLineID string          `json:"service_line_id" validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status,omitempty" validate:"omitempty,oneof=UNPAID PAID OVERDUE VOID"`
	IssuedAt      time.Time       `json:"issued_at" validate:"required"`
	DueDate       time.Time       `json:"due_date" validate:"required"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

// UpdateChargeRequest body para PATCH /api/charges/:id.
type UpdateChargeRequest struct {
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Status   *string          `json:"status,omitempty" validate:"omitempty,oneof=UNPAID PAID OVERDUE VOID"`
	IssuedAt *time.Time       `json:"issued_at,omitempty"`
	DueDate  *time.Time       `json:"due_date,omitempty"`
	PaidAt   *time.Time       `json:"paid_at,omitempty"`
}

// ChargeQuery filtros de GET /api/charges.
type ChargeQuery struct {
	ServiceLineID string `query:"service_line_id"`
	Status        string `query:"status"`
	PageRequest
}

// ChargeResponse rubro en respuestas.
type ChargeResponse struct {
	ID            string          `json:"id"`
	ServiceLineID string          `json:"service_line_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	IssuedAt      time.Time       `json:"issued_at"`
	DueDate       time.Time       `json:"due_date"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ChargeListResponse página de rubros.
type ChargeListResponse struct {
	Items []*ChargeResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
