package entity

import "time"

// LogStatus resultado del procesamiento de una línea en una corrida.
type LogStatus string

const (
	LogStatusSuccess LogStatus = "SUCCESS"
	LogStatusFailed  LogStatus = "FAILED"
)

// CollectionAction acción aplicada a la línea en una corrida.
type CollectionAction string

const (
	ActionNone      CollectionAction = "NONE"
	ActionSuspend   CollectionAction = "SUSPEND"
	ActionUnsuspend CollectionAction = "UNSUSPEND"
)

// Valid informa si la acción es una de las conocidas.
func (a CollectionAction) Valid() bool {
	return a == ActionNone || a == ActionSuspend || a == ActionUnsuspend
}

// Valid informa si el resultado es uno de los conocidos.
func (s LogStatus) Valid() bool {
	return s == LogStatusSuccess || s == LogStatusFailed
}

// CollectionLog registro inmutable de una línea en una corrida de cobranza.
// Se arma en memoria al iniciar la línea y se inserta una sola vez, ya finalizado.
type CollectionLog struct {
	ID            string
	ServiceLineID string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        LogStatus
	UnpaidCount   int
	ActionTaken   CollectionAction
	ErrorMessage  string
}

// NewCollectionLog abre el registro de una línea con resultado SUCCESS por defecto.
func NewCollectionLog(id, lineID string, startedAt time.Time) *CollectionLog {
	return &CollectionLog{
		ID:            id,
		ServiceLineID: lineID,
		StartedAt:     startedAt,
		Status:        LogStatusSuccess,
		ActionTaken:   ActionNone,
	}
}

// Succeed cierra el registro como exitoso.
func (l *CollectionLog) Succeed(action CollectionAction, unpaid int, at time.Time) {
	l.Status = LogStatusSuccess
	l.ActionTaken = action
	l.UnpaidCount = unpaid
	l.ErrorMessage = ""
	l.FinishedAt = &at
}

// Fail cierra el registro como fallido. La acción vuelve a NONE: nada quedó aplicado.
func (l *CollectionLog) Fail(err error, at time.Time) {
	l.Status = LogStatusFailed
	l.ActionTaken = ActionNone
	l.ErrorMessage = err.Error()
	if l.ErrorMessage == "" {
		l.ErrorMessage = "error desconocido"
	}
	l.FinishedAt = &at
}
