package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("stylist lock not acquired")
)

// Locker serializes bookings per stylist so two concurrent requests cannot both
// pass the overlap check and insert overlapping appointments.
type Locker interface {
	WithStylistLock(ctx context.Context, stylistID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisStylistLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStylistLocker creates a locker that uses a per stylist Redis key
func NewRedisStylistLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisStylistLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisStylistLocker) WithStylistLock(ctx context.Context, stylistID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:stylist:%s", stylistID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire stylist lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisStylistLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release stylist lock: %w", err)
	}
	return nil
}
