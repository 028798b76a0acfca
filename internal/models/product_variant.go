package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品规格表（库存台账维度）
//
// 不变量：quantity >= 0 且 reserved >= 0，由仓储层条件 UPDATE 保证；
// 可售量 = quantity - reserved。
type ProductVariant struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                                                             // 主键
	ProductID      uint           `gorm:"not null;index;uniqueIndex:idx_variant_sku_code" json:"product_id"`                                // 商品ID
	SKUCode        string         `gorm:"column:sku_code;type:varchar(64);not null;uniqueIndex:idx_variant_sku_code" json:"sku_code"`       // 规格编码（同商品内唯一）
	SpecValuesJSON JSON           `gorm:"type:json" json:"spec_values"`                                                                     // 规格值（如颜色/尺码）
	PriceAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`                                        // 售价
	CostPrice      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"cost_price"`                                          // 成本价
	Quantity       int            `gorm:"not null;default:0" json:"quantity"`                                                               // 在库数量
	Reserved       int            `gorm:"not null;default:0" json:"reserved"`                                                               // 预占数量
	IsActive       bool           `gorm:"default:true;index" json:"is_active"`                                                              // 是否启用
	SortOrder      int            `gorm:"default:0;index" json:"sort_order"`                                                                // 排序权重
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                                                          // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                                                          // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                                                   // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// Available 当前可售量
func (v *ProductVariant) Available() int {
	if v == nil {
		return 0
	}
	available := v.Quantity - v.Reserved
	if available < 0 {
		return 0
	}
	return available
}
