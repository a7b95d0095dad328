package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":" Kasir01 "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("username")(c)
	if key != "kasir01|1.2.3.4" {
		t.Fatalf("key want kasir01|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Kasir01") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":42}`))
	c.Request.RemoteAddr = "5.6.7.8:1000"
	if key := KeyByIPAndJSONField("username")(c); key != "5.6.7.8" {
		t.Fatalf("non-string field should fall back to ip, got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("expected handler response body, got %s", w.Body.String())
		}
	}
}

func TestLocalLimiterBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	rule := RateLimitRule{Prefix: "kedai:rate:checkout", WindowSeconds: 60, MaxRequests: 2, MessageKey: "error.checkout_rate_limited"}
	r.Use(RateLimitMiddleware(NewLimiter(nil), rule, KeyByIP))
	r.POST("/checkout", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		r.ServeHTTP(w, req)
		var body struct {
			StatusCode int                    `json:"status_code"`
			Data       map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		codes = append(codes, body.StatusCode)
		if i == 2 {
			retry, _ := body.Data["retry_after"].(float64)
			if retry < 1 || retry > 60 {
				t.Fatalf("unexpected retry_after: %v", body.Data["retry_after"])
			}
		}
	}
	if codes[0] != 0 || codes[1] != 0 || codes[2] != 429 {
		t.Fatalf("unexpected codes: %v", codes)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.RemoteAddr = "8.8.8.8:1234"
	r.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"status_code":0`) {
		t.Fatalf("other client should not be limited: %s", w.Body.String())
	}
}

func TestLocalLimiterRefillsAndEvicts(t *testing.T) {
	l := newLocalLimiter()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	rule := RateLimitRule{WindowSeconds: 10, MaxRequests: 1}

	if ok, _, _ := l.Allow(context.Background(), "a", rule); !ok {
		t.Fatalf("first request should pass")
	}
	ok, retry, _ := l.Allow(context.Background(), "a", rule)
	if ok || retry != 10 {
		t.Fatalf("second request should wait 10s, got ok=%v retry=%d", ok, retry)
	}
	now = now.Add(11 * time.Second)
	if ok, _, _ := l.Allow(context.Background(), "a", rule); !ok {
		t.Fatalf("bucket should refill after window")
	}
	now = now.Add(time.Minute)
	l.Allow(context.Background(), "b", rule)
	if _, exists := l.buckets["a"]; exists {
		t.Fatalf("idle key should be evicted")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, int, error) {
	return false, 0, errors.New("redis down")
}

func TestRateLimitMiddlewareLimiterError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(failingLimiter{}, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if !strings.Contains(w.Body.String(), `"status_code":503`) {
		t.Fatalf("expected 503 envelope, got %s", w.Body.String())
	}
}
