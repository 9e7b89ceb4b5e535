package models

import (
	"time"

	"gorm.io/gorm"
)

// ContactEditRequest 房源联系方式修改申请表
type ContactEditRequest struct {
	ID          uint           `gorm:"primarykey" json:"id"`                      // 主键
	ListingID   uint           `gorm:"index;not null" json:"listing_id"`          // 房源ID
	UserID      uint           `gorm:"index;not null" json:"user_id"`             // 申请人
	Field       string         `gorm:"not null" json:"field"`                     // 字段（contact_email/contact_phone）
	OldValue    string         `gorm:"default:''" json:"old_value"`               // 原值（提交时快照）
	NewValue    string         `gorm:"not null" json:"new_value"`                 // 新值
	Reason      string         `gorm:"type:text" json:"reason"`                   // 申请理由
	Status      string         `gorm:"index;not null;default:'pending'" json:"status"` // 状态（pending/approved/rejected）
	ModeratedBy *uint          `gorm:"index" json:"moderated_by"`                 // 审核人
	ModeratedAt *time.Time     `json:"moderated_at"`                              // 审核时间
	RejectNote  string         `gorm:"default:''" json:"reject_note"`             // 驳回说明
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (ContactEditRequest) TableName() string {
	return "contact_edit_requests"
}
