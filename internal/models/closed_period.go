package models

import (
	"time"
)

// ClosedPeriod 账期快照表
type ClosedPeriod struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                          // 主键
	Name            string    `gorm:"uniqueIndex;not null" json:"name"`                              // 账期名称
	StartsAt        time.Time `gorm:"index;not null" json:"starts_at"`                               // 起始时间
	EndsAt          time.Time `gorm:"index;not null" json:"ends_at"`                                 // 截止时间
	RevenueSnapshot Money     `gorm:"type:decimal(20,2);not null;default:0" json:"revenue_snapshot"` // 营收快照
	CogsSnapshot    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"cogs_snapshot"`    // 成本快照
	DeliveryFees    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fees"`    // 运费合计
	OrdersSettled   int       `gorm:"not null;default:0" json:"orders_settled"`                      // 覆盖的已结算订单数
	ClosedAt        time.Time `gorm:"index" json:"closed_at"`                                        // 关账时间
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
}

// TableName 指定表名
func (ClosedPeriod) TableName() string {
	return "closed_periods"
}
