package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kedai-next/internal/logger"

	"github.com/redis/go-redis/v9"
)

const publishTimeout = 3 * time.Second

// Publisher 事件发布接口
type Publisher interface {
	Publish(evt Event)
}

// Subscriber 订阅端
type Subscriber interface {
	Subscribe(scope Scope) (*Subscription, error)
}

// RedisBridge 通过 Redis Pub/Sub 在多实例间转发事件
// 发布写入 Redis 频道，订阅循环将频道消息投递到本地 Hub。
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub

	mu     sync.Mutex
	pubsub *redis.PubSub
}

// NewRedisBridge 创建 Redis 桥接
func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "kd:realtime:orders"
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		hub:     hub,
	}
}

// Publish 发布到 Redis；失败时退化为本地投递
func (b *RedisBridge) Publish(evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	if b.client == nil {
		b.hub.Publish(evt)
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		logger.Warnw("realtime_event_marshal_failed", "type", evt.Type, "order_no", evt.OrderNo, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, body).Err(); err != nil {
		logger.Warnw("realtime_redis_publish_failed",
			"channel", b.channel,
			"type", evt.Type,
			"order_no", evt.OrderNo,
			"error", err,
		)
		b.hub.Publish(evt)
	}
}

// Name 服务名称
func (b *RedisBridge) Name() string {
	return "realtime"
}

// Start 订阅频道并持续投递，直到 ctx 结束或 Stop
func (b *RedisBridge) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("realtime bridge redis client is nil")
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	b.mu.Lock()
	b.pubsub = pubsub
	b.mu.Unlock()
	logger.Infow("realtime_bridge_subscribed", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				logger.Warnw("realtime_bridge_decode_failed", "channel", b.channel, "error", err)
				continue
			}
			b.hub.Publish(evt)
		}
	}
}

// Stop 关闭订阅
func (b *RedisBridge) Stop(ctx context.Context) error {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub == nil {
		return nil
	}
	err := b.pubsub.Close()
	b.pubsub = nil
	return err
}
