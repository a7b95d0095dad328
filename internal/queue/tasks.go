package queue

import (
	"encoding/json"
	"time"

	"github.com/kedai-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAuditRecord 审计事件落库任务
	TaskAuditRecord = constants.TaskAuditRecord
)

// AuditRecordPayload 审计任务载荷
type AuditRecordPayload struct {
	Actor      string                 `json:"actor"`
	Action     string                 `json:"action"`
	OrderNo    string                 `json:"order_no,omitempty"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
	ClientIP   string                 `json:"client_ip,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewAuditRecordTask 创建审计任务
func NewAuditRecordTask(payload AuditRecordPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, body), nil
}

// ParseAuditRecordPayload 解析审计任务载荷
func ParseAuditRecordPayload(task *asynq.Task) (AuditRecordPayload, error) {
	var payload AuditRecordPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
