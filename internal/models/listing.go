package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Listing 房源表
type Listing struct {
	ID            uint            `gorm:"primarykey" json:"id"`                      // 主键
	Title         string          `gorm:"not null" json:"title"`                     // 标题
	AddressLine   string          `gorm:"not null" json:"address_line"`              // 地址
	City          string          `gorm:"index;not null" json:"city"`                // 城市
	District      string          `gorm:"index;default:''" json:"district"`          // 区域
	Description   string          `gorm:"type:text" json:"description"`              // 描述
	RentAmount    Money           `gorm:"type:decimal(10,2);not null" json:"rent_amount"` // 月租金额
	RentCurrency  string          `gorm:"size:3;not null;default:'EUR'" json:"rent_currency"` // 币种
	RoomCount     int             `gorm:"default:1" json:"room_count"`               // 房间数
	ContactEmail  string          `gorm:"default:''" json:"contact_email"`           // 联系邮箱
	ContactPhone  string          `gorm:"default:''" json:"contact_phone"`           // 联系电话
	Status        string          `gorm:"index;not null;default:'published'" json:"status"` // 状态（published/hidden）
	OwnerUserID   *uint           `gorm:"index" json:"owner_user_id"`                // 录入人
	ReviewCount   int             `gorm:"default:0" json:"review_count"`             // 已通过点评数（冗余计数）
	RatingAverage decimal.Decimal `gorm:"type:decimal(3,2);default:0" json:"rating_average"` // 平均评分（冗余）
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt     time.Time       `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`                            // 软删除时间

	Images []ListingImage `gorm:"foreignKey:ListingID" json:"images,omitempty"` // 图片
}

// TableName 指定表名
func (Listing) TableName() string {
	return "listings"
}
