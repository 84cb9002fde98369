// Package memory implementa la cola, el estado de tareas y el lock de corrida en proceso.
// Reemplaza a Redis cuando REDIS_ADDR está vacío; sólo vale con una única instancia.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain"
)

var (
	_ collections.RunQueue  = (*Queue)(nil)
	_ collections.TaskStore = (*TaskStore)(nil)
	_ collections.RunLock   = (*Lock)(nil)
)

// Queue cola de corridas en proceso, con capacidad fija.
type Queue struct {
	ch chan *collections.RunTask
}

// NewQueue crea la cola. size <= 0 usa 16.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 16
	}
	return &Queue{ch: make(chan *collections.RunTask, size)}
}

// Enqueue bloquea si la cola está llena, hasta que ctx termine.
func (q *Queue) Enqueue(ctx context.Context, task *collections.RunTask) error {
	t := *task
	select {
	case q.ch <- &t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Dequeue(ctx context.Context) (*collections.RunTask, error) {
	select {
	case t := <-q.ch:
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// maxTasks tope de tareas retenidas; con el tope alcanzado se descarta la menos usada.
const maxTasks = 1024

// TaskStore estado de tareas en un LRU con vencimiento. Cada Save renueva la vida de la
// entrada, igual que el SET con TTL de Redis.
type TaskStore struct {
	tasks *expirable.LRU[string, collections.RunTask]
}

// NewTaskStore construye el store. ttl <= 0 usa 24h.
func NewTaskStore(ttl time.Duration) *TaskStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TaskStore{tasks: expirable.NewLRU[string, collections.RunTask](maxTasks, nil, ttl)}
}

func (s *TaskStore) Save(_ context.Context, task *collections.RunTask) error {
	s.tasks.Add(task.ID, *task)
	return nil
}

func (s *TaskStore) Get(_ context.Context, id string) (*collections.RunTask, error) {
	t, ok := s.tasks.Get(id)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// Lock exclusión mutua dentro del proceso.
type Lock struct {
	mu sync.Mutex
}

func NewLock() *Lock { return &Lock{} }

func (l *Lock) TryAcquire(context.Context) (func(context.Context) error, error) {
	if !l.mu.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, nil
}
