package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"tourbook/internal/logger"
)

const keyPrefix = "checkout_lock:"

// CheckoutLock keeps two checkout requests for one order from each creating
// a gateway session. Acquire returns a token that must be handed to Release.
type CheckoutLock interface {
	Acquire(ctx context.Context, orderID string) (token string, ok bool, err error)
	Release(ctx context.Context, orderID, token string) error
}

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{Client: client, TTL: ttl, Logger: log}
}

// New connects to addr and returns a Redis-backed lock, or an in-process
// lock when addr is empty or unreachable.
func New(ctx context.Context, addr string, ttl time.Duration, log *logger.Logger) CheckoutLock {
	if addr == "" {
		log.Info("REDIS", "REDIS_ADDR not set, using in-process checkout lock")
		return NewLocal(ttl)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis at %s unreachable (%v), using in-process checkout lock", addr, err))
		client.Close()
		return NewLocal(ttl)
	}
	log.Info("REDIS", fmt.Sprintf("Checkout lock backed by Redis at %s", addr))
	return NewRedis(client, ttl, log)
}

func (r *Redis) Acquire(ctx context.Context, orderID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, keyPrefix+orderID, token, r.TTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the key only while it still holds token, so an expired
// lock re-taken by another request is left alone.
func (r *Redis) Release(ctx context.Context, orderID, token string) error {
	key := keyPrefix + orderID
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return fmt.Errorf("read checkout lock: %w", err)
	}
	if val != token {
		return nil
	}
	return r.Client.Del(ctx, key).Err()
}

type localEntry struct {
	token   string
	expires time.Time
}

// Local is the single-process fallback used when Redis is not configured.
type Local struct {
	mu    sync.Mutex
	ttl   time.Duration
	held  map[string]localEntry
	clock func() time.Time
}

func NewLocal(ttl time.Duration) *Local {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Local{ttl: ttl, held: make(map[string]localEntry), clock: time.Now}
}

func (l *Local) Acquire(_ context.Context, orderID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if e, ok := l.held[orderID]; ok && now.Before(e.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[orderID] = localEntry{token: token, expires: now.Add(l.ttl)}
	return token, true, nil
}

func (l *Local) Release(_ context.Context, orderID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.held[orderID]; ok && e.token == token {
		delete(l.held, orderID)
	}
	return nil
}
