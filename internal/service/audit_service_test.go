package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/queue"
	"github.com/kedai-next/internal/repository"
)

func TestAuditServiceRecordWritesWithoutQueue(t *testing.T) {
	f := setupServiceFixture(t)
	audit := NewAuditService(repository.NewAuditEventRepository(f.db), nil)
	audit.now = f.clock.Now

	audit.Record(context.Background(), AuditInput{
		Actor:    "kasir",
		Action:   constants.AuditActionOrderStatusChange,
		OrderNo:  "ORD-1",
		Detail:   map[string]interface{}{"from": "pending", "to": "paid"},
		ClientIP: "10.0.0.1",
	})
	audit.Record(context.Background(), AuditInput{Actor: "kasir", Action: " "})
	audit.Flush()

	events, total, err := audit.ListForAdmin(repository.AuditEventListFilter{OrderNo: "ORD-1", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 event, got %d", total)
	}
	if events[0].Actor != "kasir" || events[0].Detail["to"] != "paid" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if !events[0].CreatedAt.Equal(testOpenTime) {
		t.Fatalf("expected occurred time kept, got %s", events[0].CreatedAt)
	}
}

func TestAuditServicePersistDefaults(t *testing.T) {
	f := setupServiceFixture(t)
	audit := NewAuditService(repository.NewAuditEventRepository(f.db), nil)

	if err := audit.Persist(queue.AuditRecordPayload{}); !errors.Is(err, ErrAuditPayloadRequired) {
		t.Fatalf("expected payload error, got %v", err)
	}
	if err := audit.Persist(queue.AuditRecordPayload{Action: constants.AuditActionPaymentOutcome}); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	events, _, err := audit.ListForAdmin(repository.AuditEventListFilter{Page: 1, PageSize: 10})
	if err != nil || len(events) != 1 {
		t.Fatalf("expected 1 event, err=%v", err)
	}
	if events[0].Actor != "system" {
		t.Fatalf("expected system actor, got %s", events[0].Actor)
	}
}

func TestAuditServiceNilSafe(t *testing.T) {
	var audit *AuditService
	audit.Record(context.Background(), AuditInput{Action: "x"})
	audit.Flush()
	events, total, err := audit.ListForAdmin(repository.AuditEventListFilter{})
	if err != nil || total != 0 || len(events) != 0 {
		t.Fatalf("nil service must be a no-op")
	}
}
