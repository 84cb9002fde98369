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

var _ collections.RunQueue = (*Queue)(nil)

// Queue lista Redis: LPUSH para encolar y BRPOP para consumir (FIFO).
type Queue struct {
	client *goredis.Client
	key    string
	wait   time.Duration
}

// NewQueue construye la cola sobre key. BRPOP espera como máximo 5s por vuelta para revisar ctx.
func NewQueue(client *goredis.Client, key string) *Queue {
	return &Queue{client: client, key: key, wait: 5 * time.Second}
}

func (q *Queue) Enqueue(ctx context.Context, task *collections.RunTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("serializar tarea: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("encolar tarea: %w", err)
	}
	return nil
}

// Dequeue devuelve (nil, nil) si venció la espera sin tareas.
func (q *Queue) Dequeue(ctx context.Context) (*collections.RunTask, error) {
	res, err := q.client.BRPop(ctx, q.wait, q.key).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("leer cola: %w", err)
	}
	// res = [key, payload]
	if len(res) != 2 {
		return nil, fmt.Errorf("respuesta BRPOP inesperada: %d elementos", len(res))
	}
	var task collections.RunTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("tarea ilegible en la cola: %w", err)
	}
	return &task, nil
}
