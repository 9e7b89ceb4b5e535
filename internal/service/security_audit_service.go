package service

import (
	"time"

	"github.com/roomnest-next/internal/logger"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/queue"
	"github.com/roomnest-next/internal/repository"
)

// AuditEventInput 审计事件输入
type AuditEventInput struct {
	EventType string
	Outcome   string
	EmailNorm string
	IPKey     string
	SubnetKey string
	ActorID   *uint
	Detail    string
}

// SecurityAuditService 安全审计服务
// 写入是 fire-and-forget：审计失败绝不能影响认证主流程，
// 且记录的永远是真实结果，与对外伪装的响应无关。
type SecurityAuditService struct {
	repo  repository.SecurityAuditRepository
	queue *queue.Client
}

// NewSecurityAuditService 创建安全审计服务
func NewSecurityAuditService(repo repository.SecurityAuditRepository, queueClient *queue.Client) *SecurityAuditService {
	return &SecurityAuditService{repo: repo, queue: queueClient}
}

// Record 记录审计事件
// 优先走异步队列，队列不可用时回退为后台直写。
func (s *SecurityAuditService) Record(input AuditEventInput) {
	if s == nil {
		return
	}
	now := time.Now().UTC()

	if s.queue.Enabled() {
		err := s.queue.EnqueueSecurityAudit(queue.SecurityAuditPayload{
			EventType: input.EventType,
			Outcome:   input.Outcome,
			EmailNorm: input.EmailNorm,
			IPKey:     input.IPKey,
			SubnetKey: input.SubnetKey,
			ActorID:   input.ActorID,
			Detail:    input.Detail,
			At:        now.Unix(),
		})
		if err == nil {
			return
		}
		logger.Warnw("security_audit_enqueue_failed",
			"event_type", input.EventType,
			"error", err,
		)
	}

	go s.appendDirect(input, now)
}

func (s *SecurityAuditService) appendDirect(input AuditEventInput, at time.Time) {
	if s.repo == nil {
		return
	}
	event := &models.SecurityAuditEvent{
		EventType: input.EventType,
		Outcome:   input.Outcome,
		EmailNorm: input.EmailNorm,
		IPKey:     input.IPKey,
		SubnetKey: input.SubnetKey,
		ActorID:   input.ActorID,
		Detail:    input.Detail,
		CreatedAt: at,
	}
	if err := s.repo.Append(event); err != nil {
		logger.Errorw("security_audit_append_failed",
			"event_type", input.EventType,
			"outcome", input.Outcome,
			"error", err,
		)
	}
}

// Append 同步落库（队列 worker 消费任务时调用）
func (s *SecurityAuditService) Append(event *models.SecurityAuditEvent) error {
	if s == nil || s.repo == nil {
		return ErrDBUnavailable
	}
	return s.repo.Append(event)
}

// List 查询审计事件列表
func (s *SecurityAuditService) List(filter repository.AuditEventListFilter) ([]models.SecurityAuditEvent, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrDBUnavailable
	}
	return s.repo.List(filter)
}
