package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const maxKeyFieldBody = 16 << 10

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// Limiter 判断 key 在规则窗口内是否仍可放行；拒绝时返回建议等待秒数
type Limiter interface {
	Allow(ctx context.Context, key string, rule RateLimitRule) (allowed bool, retryAfter int, err error)
}

// NewLimiter Redis 可用时跨实例计数，否则退化为进程内令牌桶
func NewLimiter(client *redis.Client) Limiter {
	if client != nil {
		return &redisLimiter{client: client}
	}
	return newLocalLimiter()
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

type redisLimiter struct {
	client *redis.Client
}

func (l *redisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, int, error) {
	values, err := fixedWindowScript.Run(ctx, l.client, []string{key}, rule.WindowSeconds).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, errors.New("unexpected rate limit script result")
	}
	if values[0] <= int64(rule.MaxRequests) {
		return true, 0, nil
	}
	return false, int(values[1]), nil
}

// localLimiter 每个 key 一个令牌桶：容量 MaxRequests，按窗口匀速回填
type localLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*localBucket
	lastScan time.Time
	now      func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{buckets: make(map[string]*localBucket), now: time.Now}
}

func (l *localLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, int, error) {
	_ = ctx
	window := time.Duration(rule.WindowSeconds) * time.Second
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictIdle(now, window)
	bucket, ok := l.buckets[key]
	if !ok {
		every := rate.Every(window / time.Duration(rule.MaxRequests))
		bucket = &localBucket{limiter: rate.NewLimiter(every, rule.MaxRequests)}
		l.buckets[key] = bucket
	}
	bucket.lastSeen = now
	reservation := bucket.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, rule.WindowSeconds, nil
	}
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return true, 0, nil
	}
	reservation.CancelAt(now)
	return false, int(math.Ceil(delay.Seconds())), nil
}

// evictIdle 清理超过一个窗口未访问的 key，最多每个窗口扫描一次
func (l *localLimiter) evictIdle(now time.Time, window time.Duration) {
	if now.Sub(l.lastScan) < window {
		return
	}
	l.lastScan = now
	for key, bucket := range l.buckets {
		if now.Sub(bucket.lastSeen) > window {
			delete(l.buckets, key)
		}
	}
}

// RateLimitMiddleware 频率限制中间件
func RateLimitMiddleware(limiter Limiter, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || !rule.enabled() {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key, rule)
		if err != nil {
			msg := i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable")
			response.Error(c, response.CodeServiceUnavailable, msg)
			c.Abort()
			return
		}
		if !allowed {
			if retryAfter < 1 {
				retryAfter = rule.WindowSeconds
			}
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.rate_limited"
			}
			msg := i18n.Sprintf(i18n.ResolveLocale(c), msgKey, retryAfter)
			response.ErrorWithData(c, response.CodeTooManyRequests, msg, gin.H{"retry_after": retryAfter})
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 JSON 字段 + IP 作为限流 key，字段缺失时只用 IP
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(peekJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// peekJSONField 读取请求体中的字符串字段，并把请求体原样放回
func peekJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxKeyFieldBody))
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
