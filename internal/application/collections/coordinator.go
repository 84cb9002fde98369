package collections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	domaincollections "github.com/jhoicas/Cobranza-api/internal/domain/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

// RunSummary resultado de una corrida completa.
type RunSummary struct {
	RunAt       time.Time
	Processed   int // líneas intentadas, sin importar el resultado
	Succeeded   int
	Failed      int
	Suspended   int
	Reactivated int
}

// Coordinator ejecuta el proceso de control de morosidad sobre todas las líneas gestionables.
// Cada línea se procesa en su propia unidad de trabajo: el fallo de una no afecta a las demás.
type Coordinator struct {
	lines repository.ServiceLineRepository   // selección de líneas, fuera de transacción
	logs  repository.CollectionLogRepository // logs FAILED, fuera de la transacción revertida
	uow   UnitOfWorkFactory
	clock func() time.Time
	newID func() string
	rec   Recorder
	log   zerolog.Logger
}

// Option configura el Coordinator.
type Option func(*Coordinator)

// WithClock reemplaza el reloj usado para finished_at.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithIDGenerator reemplaza el generador de IDs de log.
func WithIDGenerator(gen func() string) Option {
	return func(c *Coordinator) { c.newID = gen }
}

// WithRecorder conecta las métricas.
func WithRecorder(rec Recorder) Option {
	return func(c *Coordinator) { c.rec = rec }
}

// WithLogger inyecta el logger estructurado.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// NewCoordinator construye el coordinador.
func NewCoordinator(
	lines repository.ServiceLineRepository,
	logs repository.CollectionLogRepository,
	uow UnitOfWorkFactory,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		lines: lines,
		logs:  logs,
		uow:   uow,
		clock: time.Now,
		newID: newUUID,
		rec:   nopRecorder{},
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunOnce procesa una vez cada línea gestionable usando now como instante de evaluación.
// Sólo devuelve error si no se pudo obtener la lista de líneas o si ctx se cancela a mitad de corrida;
// los errores por línea quedan en su log FAILED.
func (c *Coordinator) RunOnce(ctx context.Context, now time.Time) (RunSummary, error) {
	summary := RunSummary{RunAt: now}
	c.log.Info().Time("run_at", now).Msg("inicio de corrida de cobranza")

	lines, err := c.lines.ListManageable(ctx)
	if err != nil {
		c.log.Error().Err(err).Time("run_at", now).Msg("no se pudieron listar las líneas gestionables")
		return summary, fmt.Errorf("listar líneas gestionables: %w", err)
	}
	c.log.Info().Int("lines", len(lines)).Msg("líneas a procesar")

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			c.log.Warn().Err(err).Int("processed", summary.Processed).Msg("corrida interrumpida")
			return summary, fmt.Errorf("corrida interrumpida tras %d líneas: %w", summary.Processed, err)
		}
		entry := c.processLine(ctx, line, now)
		summary.Processed++
		if entry.Status == entity.LogStatusFailed {
			summary.Failed++
		} else {
			summary.Succeeded++
			switch entry.ActionTaken {
			case entity.ActionSuspend:
				summary.Suspended++
			case entity.ActionUnsuspend:
				summary.Reactivated++
			}
		}
		c.rec.LineProcessed(entry.Status, entry.ActionTaken)
	}

	c.log.Info().
		Time("run_at", now).
		Int("processed", summary.Processed).
		Int("failed", summary.Failed).
		Int("suspended", summary.Suspended).
		Int("reactivated", summary.Reactivated).
		Msg("corrida de cobranza finalizada")
	return summary, nil
}

// processLine nunca falla: cualquier error queda registrado en el log de la línea.
func (c *Coordinator) processLine(ctx context.Context, line *entity.ServiceLine, now time.Time) *entity.CollectionLog {
	entry := entity.NewCollectionLog(c.newID(), line.ID, now)

	err := c.applyLine(ctx, line.ID, now, entry)
	if err == nil {
		return entry
	}

	entry.Fail(err, c.clock())
	c.log.Error().Err(err).Str("line_id", line.ID).Msg("error procesando línea")
	// La unidad de trabajo ya se revirtió; el log FAILED se escribe aparte.
	if perr := c.logs.Create(context.WithoutCancel(ctx), entry); perr != nil {
		c.log.Error().Err(perr).Str("line_id", line.ID).Msg("no se pudo registrar el log FAILED")
	}
	return entry
}

func (c *Coordinator) applyLine(ctx context.Context, lineID string, now time.Time, entry *entity.CollectionLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic procesando línea: %v", r)
		}
	}()

	uow, err := c.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("iniciar unidad de trabajo: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := uow.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			c.log.Warn().Err(rbErr).Str("line_id", lineID).Msg("rollback de la línea")
		}
	}()

	line, err := uow.Lines().LockForCollection(ctx, lineID)
	if err != nil {
		return fmt.Errorf("bloquear línea: %w", err)
	}
	if line == nil {
		return errors.New("la línea ya no existe")
	}

	action := entity.ActionNone
	unpaid := 0
	// Un cambio externo entre la selección y el bloqueo pudo dejarla fuera de gestión.
	if line.IsActive && line.Status.Manageable() {
		overdue, err := uow.Charges().ListOverdueUnpaid(ctx, line.ID, now)
		if err != nil {
			return fmt.Errorf("consultar rubros vencidos: %w", err)
		}

		decision := domaincollections.Evaluate(line.Status, overdue)
		if decision.Changes(line) {
			if err := uow.Lines().UpdateCollectionState(ctx, line.ID, decision.TargetStatus, decision.OverdueBalance, now); err != nil {
				return fmt.Errorf("actualizar estado de línea: %w", err)
			}
		}
		action, unpaid = decision.Action, decision.OverdueCount
		c.logDecision(line, decision)
	}

	entry.Succeed(action, unpaid, c.clock())
	if err := uow.Logs().Create(ctx, entry); err != nil {
		return fmt.Errorf("registrar log de cobranza: %w", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("confirmar unidad de trabajo: %w", err)
	}
	committed = true
	return nil
}

func (c *Coordinator) logDecision(line *entity.ServiceLine, d domaincollections.Decision) {
	switch d.Action {
	case entity.ActionSuspend:
		c.log.Info().Str("line_id", line.ID).Int("unpaid", d.OverdueCount).
			Str("balance", d.OverdueBalance.StringFixed(2)).Msg("línea suspendida")
	case entity.ActionUnsuspend:
		c.log.Info().Str("line_id", line.ID).Msg("línea reactivada, sin deuda pendiente")
	default:
		c.log.Debug().Str("line_id", line.ID).Str("status", string(line.Status)).
			Str("balance", d.OverdueBalance.StringFixed(2)).Msg("línea sin cambio de estado")
	}
}
