// Package collections contiene la regla de morosidad: dado el estado de una línea y sus
// rubros vencidos, decide el estado destino, el saldo y la acción a registrar.
package collections

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
)

// Decision resultado de evaluar una línea.
type Decision struct {
	OverdueCount   int
	OverdueBalance decimal.Decimal
	TargetStatus   entity.LineStatus
	Action         entity.CollectionAction
}

// Evaluate aplica la regla de morosidad (servicio de dominio puro).
// overdue debe contener sólo rubros UNPAID con vencimiento anterior al instante de la corrida;
// el filtrado lo hace el repositorio. El saldo se recalcula siempre, haya o no acción.
func Evaluate(current entity.LineStatus, overdue []*entity.Charge) Decision {
	balance := decimal.Zero
	for _, c := range overdue {
		balance = balance.Add(c.Amount)
	}
	d := Decision{
		OverdueCount:   len(overdue),
		OverdueBalance: balance.Round(2),
		Action:         entity.ActionNone,
	}
	if d.OverdueCount > 0 {
		d.TargetStatus = entity.LineStatusSuspended
		if current != entity.LineStatusSuspended {
			d.Action = entity.ActionSuspend
		}
		return d
	}
	d.TargetStatus = entity.LineStatusActive
	if current == entity.LineStatusSuspended {
		d.Action = entity.ActionUnsuspend
	}
	return d
}

// Changes informa si la decisión difiere de lo persistido en la línea.
func (d Decision) Changes(line *entity.ServiceLine) bool {
	return d.TargetStatus != line.Status || !d.OverdueBalance.Equal(line.OverdueBalance)
}
