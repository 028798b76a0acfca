package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
type OrderItem struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                        // 主键
	OrderID           uint           `gorm:"index;not null" json:"order_id"`                              // 订单ID
	ProductID         uint           `gorm:"index;not null" json:"product_id"`                            // 商品ID
	VariantID         uint           `gorm:"index;not null" json:"variant_id"`                            // 规格ID
	TitleSnapshot     string         `gorm:"type:varchar(300)" json:"title_snapshot,omitempty"`           // 商品标题快照
	Quantity          int            `gorm:"not null" json:"quantity"`                                    // 数量
	UnitPrice         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`     // 单价
	CostPrice         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"cost_price"`     // 成本单价快照
	ItemDirection     string         `gorm:"index;not null;default:outgoing" json:"item_direction"`       // 流向（outgoing 出库 / incoming 入库）
	ItemStatus        string         `gorm:"index;not null;default:reserved" json:"item_status"`          // 交付子状态
	QuantityDelivered int            `gorm:"not null;default:0" json:"quantity_delivered"`                // 已交付数量
	QuantityReturned  int            `gorm:"not null;default:0" json:"quantity_returned"`                 // 已退回数量
	ReservedAt        *time.Time     `json:"reserved_at,omitempty"`                                      // 预占生效时间
	DeliveredAt       *time.Time     `json:"delivered_at,omitempty"`                                     // 交付时间
	ReturnedAt        *time.Time     `json:"returned_at,omitempty"`                                      // 退回时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
