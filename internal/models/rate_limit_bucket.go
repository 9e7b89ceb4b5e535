package models

import (
	"time"
)

// RateLimitBucket 限流计数桶
// (scope, key, window_start) 唯一，命中时由仓储层做原子 upsert 自增，
// 多实例部署下计数不会丢失。
type RateLimitBucket struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                            // 主键
	Scope       string    `gorm:"uniqueIndex:uniq_bucket_scope_key_window;not null" json:"scope"`  // 作用域（动作+维度）
	Key         string    `gorm:"uniqueIndex:uniq_bucket_scope_key_window;not null" json:"key"`    // 维度键（邮箱哈希/IP/子网）
	WindowStart time.Time `gorm:"uniqueIndex:uniq_bucket_scope_key_window;not null" json:"window_start"` // 窗口起点
	Hits        int64     `gorm:"not null;default:0" json:"hits"`                                  // 命中次数
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (RateLimitBucket) TableName() string {
	return "rate_limit_buckets"
}
