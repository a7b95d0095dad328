package realtime

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrScopeInvalid = errors.New("subscription scope invalid")
	ErrHubClosed    = errors.New("realtime hub closed")
)

// 事件类型
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventStoreWindow  = "store.window"
)

const defaultBufferSize = 16

// Event 推送事件
type Event struct {
	Type       string          `json:"type"`
	OrderNo    string          `json:"order_no,omitempty"`
	Status     string          `json:"status,omitempty"`
	Attention  bool            `json:"attention,omitempty"` // 员工端需提示音与弹窗
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Scope 订阅范围：单个订单或全部订单，二者只能取其一
type Scope struct {
	OrderNo   string
	AllOrders bool
}

// ForOrder 顾客订阅单个订单
func ForOrder(orderNo string) Scope {
	return Scope{OrderNo: strings.TrimSpace(orderNo)}
}

// ForAllOrders 员工订阅全部订单
func ForAllOrders() Scope {
	return Scope{AllOrders: true}
}

func (s Scope) validate() error {
	hasOrder := strings.TrimSpace(s.OrderNo) != ""
	if hasOrder == s.AllOrders {
		return ErrScopeInvalid
	}
	return nil
}

func (s Scope) matches(evt Event) bool {
	if evt.Type == EventStoreWindow {
		return true
	}
	if s.AllOrders {
		return true
	}
	return evt.OrderNo != "" && evt.OrderNo == s.OrderNo
}

// Subscription 订阅句柄，使用完毕必须 Close
type Subscription struct {
	hub    *Hub
	scope  Scope
	ch     chan Event
	lagged atomic.Bool
	once   sync.Once
}

// Events 事件通道，订阅关闭后通道关闭
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Scope 订阅范围
func (s *Subscription) Scope() Scope {
	return s.scope
}

// Lagged 返回并重置丢弃标记；为 true 时客户端应重新拉取
func (s *Subscription) Lagged() bool {
	return s.lagged.Swap(false)
}

// Close 释放订阅，可重复调用
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub 进程内订阅中心
type Hub struct {
	mu         sync.RWMutex
	subs       map[*Subscription]struct{}
	bufferSize int
	closed     bool
}

// NewHub 创建订阅中心
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		subs:       make(map[*Subscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscribe 按范围订阅
func (h *Hub) Subscribe(scope Scope) (*Subscription, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	scope.OrderNo = strings.TrimSpace(scope.OrderNo)
	sub := &Subscription{
		hub:   h,
		scope: scope,
		ch:    make(chan Event, h.bufferSize),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	h.subs[sub] = struct{}{}
	return sub, nil
}

// Publish 向匹配的订阅者投递事件；缓冲区已满时丢弃并标记 lagged
func (h *Hub) Publish(evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for sub := range h.subs {
		if !sub.scope.matches(evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			sub.lagged.Store(true)
		}
	}
}

// Count 当前订阅数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close 关闭订阅中心并释放全部订阅
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}
