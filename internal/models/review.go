package models

import (
	"time"

	"gorm.io/gorm"
)

// Review 房源点评表
// 每个用户对同一房源最多一条有效点评。
type Review struct {
	ID          uint           `gorm:"primarykey" json:"id"`                      // 主键
	ListingID   uint           `gorm:"uniqueIndex:uniq_review_listing_user;not null" json:"listing_id"` // 房源ID
	UserID      uint           `gorm:"uniqueIndex:uniq_review_listing_user;not null" json:"user_id"`    // 作者ID
	Rating      int            `gorm:"not null" json:"rating"`                    // 评分（1-5）
	Title       string         `gorm:"default:''" json:"title"`                   // 标题
	Body        string         `gorm:"type:text" json:"body"`                     // 正文
	TenancyFrom *time.Time     `json:"tenancy_from"`                              // 租期开始
	TenancyTo   *time.Time     `json:"tenancy_to"`                                // 租期结束
	Status      string         `gorm:"index;not null;default:'pending'" json:"status"` // 状态（pending/approved/rejected）
	ModeratedBy *uint          `gorm:"index" json:"moderated_by"`                 // 审核人
	ModeratedAt *time.Time     `json:"moderated_at"`                              // 审核时间
	RejectNote  string         `gorm:"default:''" json:"reject_note"`             // 驳回说明
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Review) TableName() string {
	return "reviews"
}
