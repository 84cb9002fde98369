package collections

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Cobranza-api/internal/application/dto"
	"github.com/jhoicas/Cobranza-api/internal/domain"
)

// TaskSource origen de una corrida.
type TaskSource string

const (
	SourceManual   TaskSource = "manual"
	SourceSchedule TaskSource = "schedule"
)

// TaskStatus ciclo de vida de una corrida encolada.
type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskRunning TaskStatus = "RUNNING"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailed  TaskStatus = "FAILED"
	TaskSkipped TaskStatus = "SKIPPED" // otra corrida tenía el lock
)

// RunTask una corrida solicitada (manual o periódica).
type RunTask struct {
	ID         string     `json:"id"`
	Source     TaskSource `json:"source"`
	Status     TaskStatus `json:"status"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	RunAt      *time.Time `json:"run_at,omitempty"`
	Processed  int        `json:"processed"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty"`
}

// RunQueue cola de corridas manuales. Dequeue bloquea hasta que haya una tarea o ctx termine.
type RunQueue interface {
	Enqueue(ctx context.Context, task *RunTask) error
	Dequeue(ctx context.Context) (*RunTask, error)
}

// TaskStore guarda el estado de cada tarea. Get devuelve (nil, nil) si no existe o expiró.
type TaskStore interface {
	Save(ctx context.Context, task *RunTask) error
	Get(ctx context.Context, id string) (*RunTask, error)
}

// RunLock exclusión mutua entre corridas, también entre instancias.
// TryAcquire devuelve domain.ErrRunInProgress si el lock está tomado.
type RunLock interface {
	TryAcquire(ctx context.Context) (release func(context.Context) error, err error)
}

// Runner ejecuta una corrida completa (Coordinator).
type Runner interface {
	RunOnce(ctx context.Context, now time.Time) (RunSummary, error)
}

// DispatcherDeps dependencias del Dispatcher. Recorder, Logger y Clock son opcionales.
type DispatcherDeps struct {
	Runner   Runner
	Queue    RunQueue
	Store    TaskStore
	Lock     RunLock
	Recorder Recorder
	Logger   zerolog.Logger
	Clock    func() time.Time
	NewID    func() string
}

// Dispatcher encola corridas manuales y ejecuta corridas bajo lock.
type Dispatcher struct {
	runner Runner
	queue  RunQueue
	store  TaskStore
	lock   RunLock
	rec    Recorder
	log    zerolog.Logger
	clock  func() time.Time
	newID  func() string
}

// NewDispatcher construye el dispatcher.
func NewDispatcher(d DispatcherDeps) *Dispatcher {
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewID == nil {
		d.NewID = newUUID
	}
	return &Dispatcher{
		runner: d.Runner,
		queue:  d.Queue,
		store:  d.Store,
		lock:   d.Lock,
		rec:    d.Recorder,
		log:    d.Logger,
		clock:  d.Clock,
		newID:  d.NewID,
	}
}

// Enqueue registra una corrida PENDING y la deja en la cola; no espera su ejecución.
func (d *Dispatcher) Enqueue(ctx context.Context, source TaskSource) (*RunTask, error) {
	task := &RunTask{
		ID:         d.newID(),
		Source:     source,
		Status:     TaskPending,
		EnqueuedAt: d.clock(),
	}
	if err := d.store.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("guardar tarea: %w", err)
	}
	if err := d.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("encolar tarea: %w", err)
	}
	d.log.Info().Str("task_id", task.ID).Str("source", string(source)).Msg("corrida encolada")
	return task, nil
}

// RunScheduled ejecuta en línea una corrida periódica (la invoca el cron).
func (d *Dispatcher) RunScheduled(ctx context.Context) *RunTask {
	task := &RunTask{
		ID:         d.newID(),
		Source:     SourceSchedule,
		Status:     TaskPending,
		EnqueuedAt: d.clock(),
	}
	d.save(ctx, task)
	d.Execute(ctx, task)
	return task
}

// Execute corre la tarea bajo el lock global y persiste su estado final.
// Si otra corrida tiene el lock la tarea termina SKIPPED sin procesar líneas.
func (d *Dispatcher) Execute(ctx context.Context, task *RunTask) {
	release, err := d.lock.TryAcquire(ctx)
	if err != nil {
		status := skippedOrFailed(err)
		d.rec.RunFinished(status, 0, d.clock())
		d.finish(ctx, task, status, err)
		return
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			d.log.Warn().Err(rerr).Str("task_id", task.ID).Msg("no se pudo liberar el lock de corrida")
		}
	}()

	started := d.clock()
	task.Status = TaskRunning
	task.StartedAt = &started
	task.RunAt = &started
	d.save(ctx, task)

	summary, runErr := d.runner.RunOnce(ctx, started)
	task.Processed = summary.Processed
	task.Failed = summary.Failed

	status := TaskSuccess
	if runErr != nil {
		status = TaskFailed
	}
	d.rec.RunFinished(status, d.clock().Sub(started), started)
	d.finish(ctx, task, status, runErr)
}

// Task devuelve el estado de una tarea o domain.ErrNotFound.
func (d *Dispatcher) Task(ctx context.Context, id string) (*RunTask, error) {
	task, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

// Serve consume la cola con n workers hasta que ctx termine.
func (d *Dispatcher) Serve(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			d.work(ctx, worker)
		}(i)
	}
	wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	for {
		task, err := d.queue.Dequeue(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.log.Error().Err(err).Int("worker", worker).Msg("error leyendo la cola de corridas")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if task == nil {
			continue
		}
		d.log.Info().Str("task_id", task.ID).Int("worker", worker).Msg("ejecutando corrida encolada")
		d.Execute(ctx, task)
	}
}

func (d *Dispatcher) finish(ctx context.Context, task *RunTask, status TaskStatus, err error) {
	finished := d.clock()
	task.Status = status
	task.FinishedAt = &finished
	if err != nil {
		task.Error = err.Error()
	}
	d.save(ctx, task)

	ev := d.log.Info()
	if status == TaskFailed {
		ev = d.log.Error().Err(err)
	}
	ev.Str("task_id", task.ID).
		Str("source", string(task.Source)).
		Str("status", string(status)).
		Int("processed", task.Processed).
		Int("failed", task.Failed).
		Msg("corrida terminada")
}

func (d *Dispatcher) save(ctx context.Context, task *RunTask) {
	if err := d.store.Save(context.WithoutCancel(ctx), task); err != nil {
		d.log.Warn().Err(err).Str("task_id", task.ID).Msg("no se pudo guardar el estado de la tarea")
	}
}

func skippedOrFailed(err error) TaskStatus {
	if errors.Is(err, domain.ErrRunInProgress) {
		return TaskSkipped
	}
	return TaskFailed
}

// ToTaskResponse convierte una tarea a DTO.
func ToTaskResponse(t *RunTask) *dto.RunTaskResponse {
	return &dto.RunTaskResponse{
		TaskID:     t.ID,
		Source:     string(t.Source),
		Status:     string(t.Status),
		EnqueuedAt: t.EnqueuedAt,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
		RunAt:      t.RunAt,
		Processed:  t.Processed,
		Failed:     t.Failed,
		Error:      t.Error,
	}
}
