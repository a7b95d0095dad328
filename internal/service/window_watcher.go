package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/realtime"
	"github.com/kedai-next/internal/storehours"
)

const defaultWindowCheckInterval = 60 * time.Second

// WindowWatcher 定时检查营业状态，开关变化时向所有订阅者推送 store.window
type WindowWatcher struct {
	storeConfig *StoreConfigService
	publisher   realtime.Publisher
	interval    time.Duration
	now         func() time.Time

	lastKnown *bool
}

// NewWindowWatcher 创建营业状态监视器
func NewWindowWatcher(storeConfig *StoreConfigService, publisher realtime.Publisher, interval time.Duration) *WindowWatcher {
	if interval <= 0 {
		interval = defaultWindowCheckInterval
	}
	return &WindowWatcher{
		storeConfig: storeConfig,
		publisher:   publisher,
		interval:    interval,
		now:         time.Now,
	}
}

// Name 服务名称
func (w *WindowWatcher) Name() string {
	return "window_watcher"
}

// Start 启动检查循环，阻塞直到 ctx 结束
func (w *WindowWatcher) Start(ctx context.Context) error {
	w.Check(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Stop 停止服务
func (w *WindowWatcher) Stop(ctx context.Context) error {
	_ = ctx
	return nil
}

// Check 检查一次；状态变化时推送并返回 true
func (w *WindowWatcher) Check(ctx context.Context) bool {
	status, err := w.storeConfig.GateStatus(ctx, w.now().UTC())
	if err != nil {
		logger.Warnw("window_watcher_status_failed", "error", err)
		return false
	}
	if w.lastKnown != nil && *w.lastKnown == status.Open {
		return false
	}
	first := w.lastKnown == nil
	open := status.Open
	w.lastKnown = &open
	if first {
		return false
	}
	logger.Infow("store_window_changed", "open", status.Open, "timezone", status.Timezone)
	w.publish(status)
	return true
}

func (w *WindowWatcher) publish(status storehours.Status) {
	if w.publisher == nil {
		return
	}
	payload, err := json.Marshal(status)
	if err != nil {
		logger.Warnw("window_watcher_encode_failed", "error", err)
		return
	}
	state := "closed"
	if status.Open {
		state = "open"
	}
	w.publisher.Publish(realtime.Event{
		Type:       realtime.EventStoreWindow,
		Status:     state,
		Payload:    payload,
		OccurredAt: w.now().UTC(),
	})
}
