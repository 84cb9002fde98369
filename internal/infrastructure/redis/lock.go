package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain"
)

var _ collections.RunLock = (*Lock)(nil)

// releaseScript borra la clave sólo si sigue siendo nuestra.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// refreshScript renueva el TTL sólo si la clave sigue siendo nuestra.
var refreshScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Lock exclusión mutua entre instancias con SET NX + TTL.
// Mientras está tomado se renueva cada ttl/3, así una corrida más larga que el TTL
// no deja entrar a otra instancia. El TTL acota cuánto queda tomado si el proceso muere.
type Lock struct {
	client *goredis.Client
	key    string
	ttl    time.Duration
	log    zerolog.Logger
}

// NewLock construye el lock sobre key.
func NewLock(client *goredis.Client, key string, ttl time.Duration, log zerolog.Logger) *Lock {
	return &Lock{client: client, key: key, ttl: ttl, log: log}
}

func (l *Lock) TryAcquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("tomar lock de corrida: %w", err)
	}
	if !ok {
		return nil, domain.ErrRunInProgress
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(token, stop, done)

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
		})
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("liberar lock de corrida: %w", err)
		}
		return nil
	}, nil
}

func (l *Lock) keepAlive(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := max(l.ttl/3, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			n, err := refreshScript.Run(ctx, l.client, []string{l.key}, token, max(l.ttl.Milliseconds(), 1)).Int()
			cancel()
			if err != nil {
				l.log.Warn().Err(err).Str("key", l.key).Msg("no se pudo renovar el lock de corrida")
				continue
			}
			if n == 0 {
				l.log.Error().Str("key", l.key).Msg("lock de corrida perdido")
				return
			}
		}
	}
}
