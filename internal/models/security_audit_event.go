package models

import (
	"time"
)

// SecurityAuditEvent 安全审计事件表
// 记录真实结果：对外响应可以为防枚举而伪装，审计永远写真实 outcome。
type SecurityAuditEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`               // 主键
	EventType string    `gorm:"index;not null" json:"event_type"`   // 事件类型（auth.otp.request 等）
	Outcome   string    `gorm:"index;not null" json:"outcome"`      // 真实结果
	EmailNorm string    `gorm:"index;default:''" json:"email_norm"` // 归一化邮箱（可为空）
	IPKey     string    `gorm:"index;default:''" json:"ip_key"`     // IP 维度键
	SubnetKey string    `gorm:"index;default:''" json:"subnet_key"` // 子网维度键
	ActorID   *uint     `gorm:"index" json:"actor_id"`              // 操作人（已登录场景）
	Detail    string    `gorm:"type:text" json:"detail"`            // 附加信息（JSON）
	CreatedAt time.Time `gorm:"index" json:"created_at"`            // 发生时间
}

// TableName 指定表名
func (SecurityAuditEvent) TableName() string {
	return "security_audit_events"
}
