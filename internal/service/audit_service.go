package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/queue"
	"github.com/kedai-next/internal/repository"
)

// AuditInput 审计记录输入
type AuditInput struct {
	Actor     string
	Action    string
	OrderNo   string
	Detail    map[string]interface{}
	ClientIP  string
	RequestID string
}

// AuditService 审计服务：入队异步落库，队列关闭时后台直接写入
type AuditService struct {
	repo        repository.AuditEventRepository
	queueClient *queue.Client
	now         func() time.Time
	pending     sync.WaitGroup
}

// NewAuditService 创建审计服务
func NewAuditService(repo repository.AuditEventRepository, queueClient *queue.Client) *AuditService {
	return &AuditService{
		repo:        repo,
		queueClient: queueClient,
		now:         time.Now,
	}
}

// Record 记录审计事件，失败只写日志
func (s *AuditService) Record(ctx context.Context, input AuditInput) {
	if s == nil || s.repo == nil {
		return
	}
	_ = ctx
	payload := queue.AuditRecordPayload{
		Actor:      strings.TrimSpace(input.Actor),
		Action:     strings.TrimSpace(input.Action),
		OrderNo:    strings.TrimSpace(input.OrderNo),
		Detail:     input.Detail,
		ClientIP:   strings.TrimSpace(input.ClientIP),
		RequestID:  strings.TrimSpace(input.RequestID),
		OccurredAt: s.now(),
	}
	if payload.Action == "" {
		logger.Warnw("audit_record_skip_empty_action", "actor", payload.Actor)
		return
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueAuditRecord(payload)
		if err == nil {
			return
		}
		logger.Warnw("audit_record_enqueue_failed", "action", payload.Action, "order_no", payload.OrderNo, "error", err)
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.Persist(payload); err != nil {
			logger.Warnw("audit_record_write_failed", "action", payload.Action, "order_no", payload.OrderNo, "error", err)
		}
	}()
}

// Persist 写入审计事件（消费者与本地回退共用）
func (s *AuditService) Persist(payload queue.AuditRecordPayload) error {
	if s == nil || s.repo == nil {
		return nil
	}
	if strings.TrimSpace(payload.Action) == "" {
		return ErrAuditPayloadRequired
	}
	actor := strings.TrimSpace(payload.Actor)
	if actor == "" {
		actor = "system"
	}
	createdAt := payload.OccurredAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	event := &models.AuditEvent{
		Actor:     actor,
		Action:    strings.TrimSpace(payload.Action),
		OrderNo:   strings.TrimSpace(payload.OrderNo),
		Detail:    models.JSON(payload.Detail),
		ClientIP:  payload.ClientIP,
		RequestID: payload.RequestID,
		CreatedAt: createdAt,
	}
	return s.repo.Create(event)
}

// Flush 等待后台写入完成
func (s *AuditService) Flush() {
	if s == nil {
		return
	}
	s.pending.Wait()
}

// ListForAdmin 管理端查询审计事件
func (s *AuditService) ListForAdmin(filter repository.AuditEventListFilter) ([]models.AuditEvent, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuditEvent{}, 0, nil
	}
	return s.repo.List(filter)
}
