package shared

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kedai-next/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestStreamSubscriptionSnapshotThenEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub(4)

	r := gin.New()
	r.GET("/ws/:order_no", func(c *gin.Context) {
		sub, err := hub.Subscribe(realtime.ForOrder(c.Param("order_no")))
		if err != nil {
			t.Errorf("subscribe failed: %v", err)
			return
		}
		StreamSubscription(c, sub, StreamOptions{
			Snapshot:     gin.H{"order_no": c.Param("order_no"), "status": "pending"},
			PingInterval: time.Minute,
		})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/ORD-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var snapshot struct {
		Type  string            `json:"type"`
		Order map[string]string `json:"order"`
	}
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot failed: %v", err)
	}
	if snapshot.Type != FrameSnapshot || snapshot.Order["status"] != "pending" {
		t.Fatalf("unexpected snapshot frame: %+v", snapshot)
	}

	hub.Publish(realtime.Event{Type: realtime.EventOrderUpdated, OrderNo: "ORD-2", Status: "paid"})
	hub.Publish(realtime.Event{Type: realtime.EventOrderUpdated, OrderNo: "ORD-1", Status: "paid"})

	var evt realtime.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event failed: %v", err)
	}
	if evt.OrderNo != "ORD-1" || evt.Status != "paid" {
		t.Fatalf("expected only own order event, got %+v", evt)
	}
}
