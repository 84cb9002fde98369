package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
)

var _ collections.TaskStore = (*TaskStore)(nil)

// TaskStore guarda cada tarea como JSON con TTL en keyPrefix+id.
type TaskStore struct {
	client    *goredis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewTaskStore construye el store. ttl <= 0 usa 24h.
func NewTaskStore(client *goredis.Client, keyPrefix string, ttl time.Duration) *TaskStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TaskStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *TaskStore) Save(ctx context.Context, task *collections.RunTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("serializar tarea: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+task.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("guardar tarea: %w", err)
	}
	return nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (*collections.RunTask, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer tarea: %w", err)
	}
	var task collections.RunTask
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("tarea ilegible: %w", err)
	}
	return &task, nil
}
