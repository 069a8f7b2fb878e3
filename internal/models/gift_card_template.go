package models

import (
	"time"

	"gorm.io/gorm"
)

// GiftCardTemplate 礼品卡模板（外观信息，不参与金额逻辑）
type GiftCardTemplate struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	ShopID    uint           `gorm:"index;not null" json:"shop_id"`          // 所属店铺ID
	Name      string         `gorm:"type:varchar(120);not null" json:"name"` // 模板名称
	ImageURL  string         `gorm:"type:text" json:"image_url"`             // 模板图片地址
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"` // 是否可售
	CreatedAt time.Time      `json:"created_at"`                             // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                             // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (GiftCardTemplate) TableName() string {
	return "gift_card_templates"
}
