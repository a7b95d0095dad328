package shared

import (
	"net/http"
	"time"

	"github.com/kedai-next/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// 推送帧类型
const (
	FrameSnapshot = "snapshot"
	FrameResync   = "resync"
)

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Frame 非事件类推送帧
type Frame struct {
	Type  string      `json:"type"`
	Order interface{} `json:"order,omitempty"`
}

// StreamOptions websocket 推送参数
type StreamOptions struct {
	Snapshot     interface{}
	PingInterval time.Duration
}

// StreamSubscription 升级为 websocket，先写 snapshot 帧再持续转发订阅事件。
// 订阅由调用方创建，连接结束时在此处释放。
func StreamSubscription(c *gin.Context, sub *realtime.Subscription, opts StreamOptions) {
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		RequestLog(c).Warnw("realtime_upgrade_failed", "error", err)
		return
	}
	defer conn.Close()

	pingInterval := opts.PingInterval
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	log := RequestLog(c)

	if err := writeJSON(conn, Frame{Type: FrameSnapshot, Order: opts.Snapshot}); err != nil {
		log.Debugw("realtime_snapshot_write_failed", "error", err)
		return
	}

	done := make(chan struct{})
	go readUntilClosed(conn, pingInterval, done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case evt, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			if sub.Lagged() {
				if err := writeJSON(conn, Frame{Type: FrameResync}); err != nil {
					return
				}
			}
			if err := writeJSON(conn, evt); err != nil {
				log.Debugw("realtime_event_write_failed", "type", evt.Type, "error", err)
				return
			}
		case <-ticker.C:
			if sub.Lagged() {
				if err := writeJSON(conn, Frame{Type: FrameResync}); err != nil {
					return
				}
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// readUntilClosed 客户端只读不写，读循环用于感知断开并处理 pong
func readUntilClosed(conn *websocket.Conn, pingInterval time.Duration, done chan<- struct{}) {
	defer close(done)
	readWait := pingInterval*2 + writeWait
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
