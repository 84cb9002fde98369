// Package scheduler dispara la corrida periódica de cobranza con robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
)

// ScheduledRunner lo que el cron invoca en cada disparo (collections.Dispatcher).
type ScheduledRunner interface {
	RunScheduled(ctx context.Context) *collections.RunTask
}

// Scheduler envuelve un cron con una sola entrada.
type Scheduler struct {
	cron     *cron.Cron
	runner   ScheduledRunner
	schedule string
	log      zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New registra runner bajo schedule (formato estándar de cron o descriptores como "@every 5m").
// Un disparo que llega mientras el anterior sigue corriendo se descarta.
func New(schedule string, runner ScheduledRunner, log zerolog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:   runner,
		schedule: schedule,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	cl := cronLogger{log: log}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("programar corrida %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	task := s.runner.RunScheduled(s.ctx)
	s.log.Debug().Str("task_id", task.ID).Str("status", string(task.Status)).Msg("disparo periódico atendido")
}

// Start arranca el cron en segundo plano.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("scheduler de cobranza iniciado")
}

// Next próxima ejecución programada (cero si el cron no arrancó).
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop detiene nuevos disparos y espera la corrida en curso hasta que ctx venza.
// Si ctx vence primero se cancela el contexto de la corrida.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// cronLogger adapta zerolog a cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
