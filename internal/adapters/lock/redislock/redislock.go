package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pet-clinic-appointments/internal/platform/logger"
	"pet-clinic-appointments/internal/ports/lock"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	DefaultTTL   = 5 * time.Second
	retryBackoff = 25 * time.Millisecond
	keyPrefix    = "pet-clinic:lock:"
)

var ErrNotAcquired = errors.New("redislock: lock not acquired")

// release solo borra la clave si el token sigue siendo el nuestro.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker usa SET NX PX por clave. Sirve para varias instancias del API
// compartiendo el mismo store. TTL acota cuánto puede quedar tomada una clave
// si el proceso muere con el lock.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    logger.Logger
}

// log nil => sin logs. Un release fallido no se propaga: la clave expira por TTL.
func New(client redis.UniversalClient, ttl time.Duration, log logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Locker{client: client, ttl: ttl, log: log}
}

// Open parsea REDIS_URL y verifica conexión.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redislock: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redislock: ping: %w", err)
	}
	return client, nil
}

func (l *Locker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = lock.NormalizeKeys(keys)
	token := uuid.NewString()

	held := make([]string, 0, len(keys))
	for _, k := range keys {
		key := keyPrefix + k
		if err := l.acquireOne(ctx, key, token); err != nil {
			l.releaser(held, token)()
			return nil, err
		}
		held = append(held, key)
	}

	return l.releaser(held, token), nil
}

// releaser libera las claves en orden inverso, una sola vez.
func (l *Locker) releaser(held []string, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// contexto propio: liberar aunque el request ya se haya cancelado
			rctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			for i := len(held) - 1; i >= 0; i-- {
				if err := releaseScript.Run(rctx, l.client, []string{held[i]}, token).Err(); err != nil {
					l.log.Warn("redis lock release failed", map[string]any{
						"key":   held[i],
						"ttl":   l.ttl.String(),
						"error": err,
					})
				}
			}
		})
	}
}

func (l *Locker) acquireOne(ctx context.Context, key, token string) error {
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("redislock: set %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-time.After(retryBackoff):
		}
	}
}
