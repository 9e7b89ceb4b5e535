package models

import (
	"time"
)

// ListingImage 房源图片表
type ListingImage struct {
	ID        uint      `gorm:"primarykey" json:"id"`          // 主键
	ListingID uint      `gorm:"index;not null" json:"listing_id"` // 房源ID
	URL       string    `gorm:"not null" json:"url"`           // 图片地址
	SortOrder int       `gorm:"default:0" json:"sort_order"`   // 排序
	CreatedAt time.Time `json:"created_at"`                    // 创建时间
}

// TableName 指定表名
func (ListingImage) TableName() string {
	return "listing_images"
}
