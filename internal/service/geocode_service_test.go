package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kedai-next/internal/geocode"
)

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	blockOn string
	started chan struct{}
}

func (s *fakeSearcher) Search(ctx context.Context, query string) ([]geocode.Place, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()
	if query == s.blockOn {
		close(s.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []geocode.Place{{Label: query, Lat: -6.2, Lng: 106.8}}, nil
}

func TestGeocodeServiceSearch(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewGeocodeService(searcher, time.Minute)

	places, err := svc.Search(context.Background(), "sess-1", "  Jalan   Sudirman ")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(places) != 1 || places[0].Label != "Jalan Sudirman" {
		t.Fatalf("unexpected places: %+v", places)
	}
	if _, err := svc.Search(context.Background(), "sess-1", "a"); !errors.Is(err, geocode.ErrQueryInvalid) {
		t.Fatalf("expected invalid query, got %v", err)
	}
}

func TestGeocodeServiceLastQueryWins(t *testing.T) {
	searcher := &fakeSearcher{blockOn: "Jalan Tha", started: make(chan struct{})}
	svc := NewGeocodeService(searcher, 0)

	stale := make(chan error, 1)
	go func() {
		_, err := svc.Search(context.Background(), "sess-2", "Jalan Tha")
		stale <- err
	}()
	<-searcher.started

	places, err := svc.Search(context.Background(), "sess-2", "Jalan Thamrin")
	if err != nil || len(places) != 1 {
		t.Fatalf("latest query failed: %v", err)
	}
	select {
	case err := <-stale:
		if !errors.Is(err, geocode.ErrSuperseded) {
			t.Fatalf("expected superseded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("stale query was not cancelled")
	}
	if svc.sequencer.Pending() != 0 {
		t.Fatalf("expected no pending lookups, got %d", svc.sequencer.Pending())
	}
}
