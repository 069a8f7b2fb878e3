package models

import (
	"time"

	"gorm.io/gorm"
)

// TaxType 税类表；Standard 为含税标准税类，退款时仅标准税类拆税
type TaxType struct {
	ID        uint           `gorm:"primarykey" json:"id"`                             // 主键
	Name      string         `gorm:"type:varchar(80);not null" json:"name"`            // 税类名称
	Percent   Money          `gorm:"type:decimal(6,2);not null;default:0" json:"percent"` // 含税税率（百分比）
	Standard  bool           `gorm:"not null;default:false" json:"standard"`           // 是否标准税类（非免税）
	CreatedAt time.Time      `json:"created_at"`                                       // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                       // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (TaxType) TableName() string {
	return "tax_types"
}
