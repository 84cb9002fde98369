package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranza-api/internal/domain"
)

// ChargeStatus estado de un rubro.
type ChargeStatus string

// Estados de rubro. La cobranza sólo lee los UNPAID.
const (
	ChargeStatusUnpaid  ChargeStatus = "UNPAID"
	ChargeStatusPaid    ChargeStatus = "PAID"
	ChargeStatusOverdue ChargeStatus = "OVERDUE"
	ChargeStatusVoid    ChargeStatus = "VOID"
)

// ParseChargeStatus acepta el estado sin distinguir mayúsculas.
func ParseChargeStatus(s string) (ChargeStatus, bool) {
	st := ChargeStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Valid informa si el estado es uno de los conocidos.
func (s ChargeStatus) Valid() bool {
	switch s {
	case ChargeStatusUnpaid, ChargeStatusPaid, ChargeStatusOverdue, ChargeStatusVoid:
		return true
	}
	return false
}

// Charge rubro facturable de una línea de servicio.
type Charge struct {
	ID            string
	ServiceLineID string
	Amount        decimal.Decimal // > 0, dos decimales
	Status        ChargeStatus
	IssuedAt      time.Time
	DueDate       time.Time
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate reglas de escritura del rubro.
func (c *Charge) Validate() error {
	if c.ServiceLineID == "" {
		return domain.Invalid("service_line_id", "la línea de servicio es requerida")
	}
	if !c.Amount.IsPositive() {
		return domain.Invalid("amount", "el valor del rubro debe ser mayor a 0")
	}
	if !c.Status.Valid() {
		return domain.Invalid("status", "estado de rubro desconocido")
	}
	if c.IssuedAt.IsZero() || c.DueDate.IsZero() {
		return domain.Invalid("due_date", "fecha de emisión y de vencimiento son requeridas")
	}
	if !c.DueDate.After(c.IssuedAt) {
		return domain.Invalid("due_date", "la fecha de vencimiento debe ser posterior a la emisión")
	}
	return nil
}

// OverdueAt informa si el rubro cuenta como vencido en el instante now.
func (c *Charge) OverdueAt(now time.Time) bool {
	return c.Status == ChargeStatusUnpaid && c.DueDate.Before(now)
}
