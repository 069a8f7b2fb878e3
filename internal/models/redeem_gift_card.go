package models

import (
	"time"

	"gorm.io/gorm"
)

// RedeemGiftCard 兑换事件表（不可变，创建后只允许软删除）
type RedeemGiftCard struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                 // 主键
	GiftCardID     uint           `gorm:"index;not null" json:"gift_card_id"`                   // 礼品卡ID
	Amount         Money          `gorm:"type:decimal(20,2);not null" json:"amount"`            // 兑换金额
	Fees           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"fees"`    // 兑换手续费（仅平台卡跨店兑换时计费）
	RedeemedShopID uint           `gorm:"index;not null" json:"redeemed_shop_id"`               // 实际兑换店铺ID
	IssuerShopID   uint           `gorm:"index;not null" json:"issuer_shop_id"`                 // 发卡店铺ID
	RedeemedDate   time.Time      `gorm:"index;not null" json:"redeemed_date"`                  // 兑换时间
	CreatedAt      time.Time      `json:"created_at"`                                           // 创建时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间

	GiftCard     *GiftCard `gorm:"foreignKey:GiftCardID" json:"gift_card,omitempty"`     // 礼品卡
	RedeemedShop *Shop     `gorm:"foreignKey:RedeemedShopID" json:"redeemed_shop,omitempty"` // 兑换店铺
	IssuerShop   *Shop     `gorm:"foreignKey:IssuerShopID" json:"issuer_shop,omitempty"` // 发卡店铺
}

// TableName 指定表名
func (RedeemGiftCard) TableName() string {
	return "redeem_gift_cards"
}
