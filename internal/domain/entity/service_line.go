package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranza-api/internal/domain"
)

// LineStatus estado operativo de una línea de servicio.
type LineStatus string

// Estados de línea. NOT_INSTALLED y CANCELLED no son gestionables por la cobranza.
const (
	LineStatusNotInstalled LineStatus = "NOT_INSTALLED"
	LineStatusActive       LineStatus = "ACTIVE"
	LineStatusSuspended    LineStatus = "SUSPENDED"
	LineStatusCancelled    LineStatus = "CANCELLED"
)

// ParseLineStatus acepta el estado sin distinguir mayúsculas.
func ParseLineStatus(s string) (LineStatus, bool) {
	st := LineStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Valid informa si el estado es uno de los conocidos.
func (s LineStatus) Valid() bool {
	switch s {
	case LineStatusNotInstalled, LineStatusActive, LineStatusSuspended, LineStatusCancelled:
		return true
	}
	return false
}

// Manageable informa si la cobranza puede suspender o reactivar una línea en este estado.
func (s LineStatus) Manageable() bool {
	return s == LineStatusActive || s == LineStatusSuspended
}

// UnmanageableLineStatuses estados que el proceso de cobranza nunca toca.
var UnmanageableLineStatuses = []LineStatus{LineStatusNotInstalled, LineStatusCancelled}

// ServiceLine línea de servicio de un cliente; unidad que se suspende o reactiva.
// OverdueBalance sólo lo escribe el proceso de cobranza.
type ServiceLine struct {
	ID             string
	CustomerID     string
	CustomerName   string // razón social del cliente (sólo lectura, join)
	LineNumber     int    // >= 1, único por cliente
	Status         LineStatus
	InstalledAt    *time.Time
	OverdueBalance decimal.Decimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate reglas propias de la línea. La regla "cliente activo" se valida en el caso de uso.
func (l *ServiceLine) Validate() error {
	if l.CustomerID == "" {
		return domain.Invalid("customer_id", "el cliente es requerido")
	}
	if l.LineNumber < 1 {
		return domain.Invalid("line_number", "el número de línea debe ser >= 1")
	}
	if !l.Status.Valid() {
		return domain.Invalid("status", "estado de línea desconocido")
	}
	if l.OverdueBalance.IsNegative() {
		return domain.Invalid("overdue_balance", "el saldo vencido no puede ser negativo")
	}
	return nil
}
