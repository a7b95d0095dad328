package public

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/kedai-next/internal/geocode"
	"github.com/kedai-next/internal/http/response"
	"github.com/kedai-next/internal/service"
)

// gatedSearcher 阻塞到 release 关闭或 ctx 取消
type gatedSearcher struct {
	entered chan string
	release chan struct{}
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{entered: make(chan string, 4), release: make(chan struct{})}
}

func (s *gatedSearcher) Search(ctx context.Context, query string) ([]geocode.Place, error) {
	s.entered <- query
	select {
	case <-s.release:
		return []geocode.Place{{Label: query, Lat: -6.2, Lng: 106.816666}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *gatedSearcher) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-s.entered:
	case <-time.After(time.Second):
		t.Fatalf("search was not started")
	}
}

func (f *publicFixture) geocode(query, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/geocode?q="+url.QueryEscape(query), nil)
	if sessionID != "" {
		req.Header.Set(geocodeSessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestSearchGeocodeWithoutSessionDoesNotCancelOthers(t *testing.T) {
	f := setupPublicFixture(t)
	searcher := newGatedSearcher()
	f.container.GeocodeService = service.NewGeocodeService(searcher, 0)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- f.geocode("jalan merdeka", "") }()
	searcher.waitEntered(t)
	second := make(chan *httptest.ResponseRecorder, 1)
	go func() { second <- f.geocode("jalan sudirman", "") }()
	searcher.waitEntered(t)
	close(searcher.release)

	issued := map[string]bool{}
	for _, ch := range []chan *httptest.ResponseRecorder{first, second} {
		w := <-ch
		if resp := decodeEnvelope(t, w); resp.StatusCode != 0 {
			t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
		}
		id := w.Header().Get(geocodeSessionHeader)
		if id == "" {
			t.Fatalf("expected an issued %s header", geocodeSessionHeader)
		}
		issued[id] = true
	}
	if len(issued) != 2 {
		t.Fatalf("expected distinct sessions, got %v", issued)
	}
}

func TestSearchGeocodeSameSessionKeepsLatest(t *testing.T) {
	f := setupPublicFixture(t)
	searcher := newGatedSearcher()
	f.container.GeocodeService = service.NewGeocodeService(searcher, 0)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- f.geocode("jalan merdeka", "geo-session-1") }()
	searcher.waitEntered(t)
	second := make(chan *httptest.ResponseRecorder, 1)
	go func() { second <- f.geocode("jalan merdeka barat", "geo-session-1") }()
	searcher.waitEntered(t)

	w := <-first
	if resp := decodeEnvelope(t, w); resp.StatusCode != response.CodeConflict {
		t.Fatalf("superseded search want %d got %d", response.CodeConflict, resp.StatusCode)
	}
	if got := w.Header().Get(geocodeSessionHeader); got != "" {
		t.Fatalf("client session must not be replaced, got %q", got)
	}
	close(searcher.release)
	if resp := decodeEnvelope(t, <-second); resp.StatusCode != 0 {
		t.Fatalf("latest search want 0 got %d", resp.StatusCode)
	}
}
