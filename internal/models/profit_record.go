package models

import (
	"time"

	"gorm.io/gorm"
)

// ProfitRecord 订单利润记录表
//
// CostBasis 在下单时快照，之后价格漂移只重算营收侧，成本基数不再重推。
type ProfitRecord struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                            // 主键
	OrderID         uint           `gorm:"uniqueIndex;not null" json:"order_id"`                            // 订单ID
	EmployeeID      uint           `gorm:"index" json:"employee_id,omitempty"`                              // 经办员工ID
	Revenue         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"revenue"`            // 营收（销售额）
	CostBasis       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"cost_basis"`         // 成本基数快照
	DeliveryFee     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`       // 运费
	Profit          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"profit"`             // 利润
	EmployeePercent Money          `gorm:"type:decimal(20,2);not null;default:0" json:"employee_percent"`   // 员工分成比例（百分数）
	EmployeeShare   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"employee_share"`     // 员工分成金额
	SettledAt       *time.Time     `gorm:"index" json:"settled_at,omitempty"`                               // 结算时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (ProfitRecord) TableName() string {
	return "profit_records"
}
