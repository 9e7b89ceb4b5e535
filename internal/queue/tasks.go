package queue

import (
	"encoding/json"

	"github.com/roomnest-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSecurityAuditAppend 安全审计事件落库任务
	TaskSecurityAuditAppend = constants.TaskSecurityAuditAppend
	// TaskModerationNotify 审核待办通知任务
	TaskModerationNotify = constants.TaskModerationNotify
	// TaskAuthRetentionSweep 认证数据清理任务
	TaskAuthRetentionSweep = constants.TaskAuthRetentionSweep
)

// SecurityAuditPayload 安全审计任务载荷
type SecurityAuditPayload struct {
	EventType string `json:"event_type"`
	Outcome   string `json:"outcome"`
	EmailNorm string `json:"email_norm"`
	IPKey     string `json:"ip_key"`
	SubnetKey string `json:"subnet_key"`
	ActorID   *uint  `json:"actor_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	At        int64  `json:"at"`
}

// ModerationNotifyPayload 审核通知任务载荷
type ModerationNotifyPayload struct {
	Kind        string `json:"kind"` // review / contact_edit
	SubjectLine string `json:"subject_line"`
}

// RetentionSweepPayload 清理任务载荷
type RetentionSweepPayload struct {
	RequestedAt int64 `json:"requested_at"`
}

// NewSecurityAuditTask 创建安全审计任务
func NewSecurityAuditTask(payload SecurityAuditPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSecurityAuditAppend, body), nil
}

// NewModerationNotifyTask 创建审核通知任务
func NewModerationNotifyTask(payload ModerationNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskModerationNotify, body), nil
}

// NewRetentionSweepTask 创建清理任务
func NewRetentionSweepTask(payload RetentionSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuthRetentionSweep, body), nil
}
