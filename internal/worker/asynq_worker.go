package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/roomnest-next/internal/logger"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/provider"
	"github.com/roomnest-next/internal/queue"

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
	mux.HandleFunc(queue.TaskSecurityAuditAppend, c.handleSecurityAuditAppend)
	mux.HandleFunc(queue.TaskModerationNotify, c.handleModerationNotify)
	mux.HandleFunc(queue.TaskAuthRetentionSweep, c.handleRetentionSweep)
}

// handleSecurityAuditAppend 审计事件落库
// 事件时间取载荷里的 At，保证入队与消费之间的延迟不影响窗口统计。
func (c *Consumer) handleSecurityAuditAppend(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.SecurityAuditPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_security_audit_unmarshal_failed", "error", err)
		return err
	}
	if payload.EventType == "" || payload.Outcome == "" {
		logger.Debugw("worker_security_audit_skip_invalid_payload",
			"event_type", payload.EventType, "outcome", payload.Outcome)
		return nil
	}
	at := time.Unix(payload.At, 0).UTC()
	if payload.At == 0 {
		at = time.Now().UTC()
	}
	event := &models.SecurityAuditEvent{
		EventType: payload.EventType,
		Outcome:   payload.Outcome,
		EmailNorm: payload.EmailNorm,
		IPKey:     payload.IPKey,
		SubnetKey: payload.SubnetKey,
		ActorID:   payload.ActorID,
		Detail:    payload.Detail,
		CreatedAt: at,
	}
	if err := c.AuditService.Append(event); err != nil {
		logger.Warnw("worker_security_audit_append_failed",
			"event_type", payload.EventType, "error", err)
		return err
	}
	return nil
}

// handleModerationNotify 审核待办通知管理员
func (c *Consumer) handleModerationNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.ModerationNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_moderation_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.SubjectLine == "" {
		logger.Debugw("worker_moderation_notify_skip_empty_subject", "kind", payload.Kind)
		return nil
	}
	if c.EmailService == nil || c.Config == nil {
		logger.Warnw("worker_moderation_notify_skip_email_service_nil", "kind", payload.Kind)
		return nil
	}
	adminEmail := c.Config.Admin.Email
	if adminEmail == "" {
		logger.Debugw("worker_moderation_notify_skip_no_admin_email", "kind", payload.Kind)
		return nil
	}
	if err := c.EmailService.SendModerationNotice(adminEmail, payload.Kind, payload.SubjectLine, ""); err != nil {
		logger.Warnw("worker_moderation_notify_send_failed",
			"kind", payload.Kind, "error", err)
		return err
	}
	return nil
}

// handleRetentionSweep 清理过期认证数据
// 审计事件与限流桶按配置天数保留，过期验证码记录一并清掉。
func (c *Consumer) handleRetentionSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.RetentionSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_retention_sweep_unmarshal_failed", "error", err)
		return err
	}
	now := time.Now().UTC()
	retention := c.Config.Retention

	if days := retention.OtpRecordDays; days > 0 {
		cutoff := now.AddDate(0, 0, -days)
		deleted, err := c.OtpRecordRepo.DeleteCreatedBefore(cutoff)
		if err != nil {
			logger.Warnw("worker_retention_otp_sweep_failed", "error", err)
			return err
		}
		if deleted > 0 {
			logger.Infow("worker_retention_otp_swept", "deleted", deleted, "cutoff", cutoff)
		}
	}

	if days := retention.RateBucketDays; days > 0 {
		cutoff := now.AddDate(0, 0, -days)
		deleted, err := c.RateLimitRepo.DeleteWindowsBefore(cutoff)
		if err != nil {
			logger.Warnw("worker_retention_rate_sweep_failed", "error", err)
			return err
		}
		if deleted > 0 {
			logger.Infow("worker_retention_rate_swept", "deleted", deleted, "cutoff", cutoff)
		}
	}

	if days := retention.AuditEventDays; days > 0 {
		cutoff := now.AddDate(0, 0, -days)
		deleted, err := c.SecurityAuditRepo.DeleteBefore(cutoff)
		if err != nil {
			logger.Warnw("worker_retention_audit_sweep_failed", "error", err)
			return err
		}
		if deleted > 0 {
			logger.Infow("worker_retention_audit_swept", "deleted", deleted, "cutoff", cutoff)
		}
	}

	return nil
}
