package models

import (
	"time"
)

// OtpRecord 邮箱登录验证码记录
// 只存 HMAC 哈希，明文验证码从不落库。每个邮箱同一时刻只有一条有效记录，
// 新记录在同一事务内作废旧记录。
type OtpRecord struct {
	ID             uint       `gorm:"primarykey" json:"id"`                 // 主键
	EmailNorm      string     `gorm:"index;not null" json:"email_norm"`     // 归一化邮箱
	CodeHash       string     `gorm:"not null" json:"-"`                    // HMAC(secret, email|code)
	MagicLinkState string     `gorm:"not null" json:"-"`                    // 魔法链接绑定状态值
	Attempts       int        `gorm:"not null;default:0" json:"attempts"`   // 已失败次数
	MaxAttempts    int        `gorm:"not null;default:5" json:"max_attempts"` // 最大尝试次数
	ExpiresAt      time.Time  `gorm:"index;not null" json:"expires_at"`     // 过期时间
	ConsumedAt     *time.Time `gorm:"index" json:"consumed_at"`             // 消费时间（成功登录）
	SupersededAt   *time.Time `gorm:"index" json:"superseded_at"`           // 作废时间（被新码替换）
	RequestIPKey   string     `gorm:"default:''" json:"request_ip_key"`     // 请求方 IP 维度键
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`              // 创建时间
}

// TableName 指定表名
func (OtpRecord) TableName() string {
	return "otp_records"
}

// Active 判断记录当前是否可用于验证
func (r *OtpRecord) Active(now time.Time) bool {
	if r == nil {
		return false
	}
	if r.ConsumedAt != nil || r.SupersededAt != nil {
		return false
	}
	return now.Before(r.ExpiresAt)
}

// Exhausted 判断尝试次数是否已用尽
func (r *OtpRecord) Exhausted() bool {
	if r == nil {
		return true
	}
	return r.Attempts >= r.MaxAttempts
}
