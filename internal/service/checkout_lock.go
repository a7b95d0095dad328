package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kedai-next/internal/cache"
	"github.com/kedai-next/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const checkoutLockTTL = 30 * time.Second

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// checkoutLocks 同一购物车会话同时只允许一个结账；Redis 可用时跨实例生效
type checkoutLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newCheckoutLocks() *checkoutLocks {
	return &checkoutLocks{held: make(map[string]struct{})}
}

// acquire 获取会话锁，已被持有时返回 ErrCheckoutInProgress
func (l *checkoutLocks) acquire(ctx context.Context, sessionID string) (func(), error) {
	if cache.Enabled() {
		return acquireRedisLock(ctx, "checkout:lock:"+sessionID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[sessionID]; ok {
		return nil, ErrCheckoutInProgress
	}
	l.held[sessionID] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.held, sessionID)
		l.mu.Unlock()
	}, nil
}

func acquireRedisLock(ctx context.Context, key string) (func(), error) {
	client := cache.Client()
	fullKey := cache.BuildKey(key)
	token := uuid.NewString()
	ok, err := client.SetNX(ctx, fullKey, token, checkoutLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	if !ok {
		return nil, ErrCheckoutInProgress
	}
	return func() {
		if err := releaseLockScript.Run(context.Background(), client, []string{fullKey}, token).Err(); err != nil {
			logger.Warnw("checkout_lock_release_failed", "key", fullKey, "error", err)
		}
	}, nil
}
