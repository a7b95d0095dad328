package worker

import (
	"context"
	"errors"

	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/provider"
	"github.com/kedai-next/internal/queue"
	"github.com/kedai-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAuditRecord, c.handleAuditRecord)
}

func (c *Consumer) handleAuditRecord(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_audit_record_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseAuditRecordPayload(task)
	if err != nil {
		logger.Warnw("worker_audit_record_unmarshal_failed", "error", err)
		return err
	}
	if c.Container == nil || c.AuditService == nil {
		logger.Warnw("worker_audit_record_skip_service_nil", "action", payload.Action)
		return nil
	}
	if err := c.AuditService.Persist(payload); err != nil {
		if errors.Is(err, service.ErrAuditPayloadRequired) {
			logger.Debugw("worker_audit_record_skip_invalid_payload", "actor", payload.Actor)
			return nil
		}
		logger.Warnw("worker_audit_record_write_failed",
			"action", payload.Action,
			"order_no", payload.OrderNo,
			"error", err,
		)
		return err
	}
	return nil
}
