package collections

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

// UnitOfWork transacción que envuelve el procesamiento de una sola línea.
// Los repositorios que expone escriben dentro de la transacción; Commit o Rollback la cierran.
type UnitOfWork interface {
	Lines() repository.ServiceLineRepository
	Charges() repository.ChargeRepository
	Logs() repository.CollectionLogRepository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory abre unidades de trabajo (implementación: postgres.TxRunner; en tests, memorytest.Ledger).
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Recorder recibe las métricas del proceso. Implementación: metrics.Collector.
type Recorder interface {
	LineProcessed(status entity.LogStatus, action entity.CollectionAction)
	RunFinished(outcome TaskStatus, duration time.Duration, runAt time.Time)
}

type nopRecorder struct{}

func (nopRecorder) LineProcessed(entity.LogStatus, entity.CollectionAction) {}
func (nopRecorder) RunFinished(TaskStatus, time.Duration, time.Time)        {}

func newUUID() string { return uuid.New().String() }
