package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateServiceLineRequest body para POST /api/service-lines.
// overdue_balance no se acepta: lo calcula el proceso de cobranza.
type CreateServiceLineRequest struct {
	CustomerID  string     `json:"customer_id" validate:"required,uuid"`
	LineNumber  int        `json:"line_number" validate:"required,min=1"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=NOT_INSTALLED ACTIVE SUSPENDED CANCELLED"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
}

// UpdateServiceLineRequest body para PATCH /api/service-lines/:id.
type UpdateServiceLineRequest struct {
	CustomerID  *string    `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	LineNumber  *int       `json:"line_number,omitempty" validate:"omitempty,min=1"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=NOT_INSTALLED ACTIVE SUSPENDED CANCELLED"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
}

// ServiceLineQuery filtros de GET /api/service-lines.
type ServiceLineQuery struct {
	CustomerID string `query:"customer_id"`
	Status     string `query:"status"`
	IsActive   *bool  `query:"is_active"`
	PageRequest
}

// ServiceLineResponse línea en respuestas.
type ServiceLineResponse struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_legal_name,omitempty"`
	LineNumber     int             `json:"line_number"`
	Status         string          `json:"status"`
	InstalledAt    *time.Time      `json:"installed_at,omitempty"`
	OverdueBalance decimal.Decimal `json:"overdue_balance"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ServiceLineListResponse página de líneas.
type ServiceLineListResponse struct {
	Items []*ServiceLineResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
