package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo             string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	Status              string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	DeliveryPartner     string         `gorm:"index;not null;default:local" json:"delivery_partner"`         // 配送方
	DeliveryStatus      string         `gorm:"index" json:"delivery_status,omitempty"`                       // 配送方原始状态码
	TrackingNumber      string         `gorm:"index" json:"tracking_number,omitempty"`                       // 配送单号
	PartnerOrderID      string         `gorm:"index" json:"partner_order_id,omitempty"`                      // 配送方订单ID
	QRID                string         `gorm:"column:qr_id;index" json:"qr_id,omitempty"`                    // 配送方二维码ID
	DeliveryAccountUsed string         `gorm:"index" json:"delivery_account_used,omitempty"`                 // 对账命中的配送账号
	CustomerName        string         `gorm:"type:varchar(120)" json:"customer_name,omitempty"`             // 收货人
	CustomerPhone       string         `gorm:"type:varchar(40);index" json:"customer_phone,omitempty"`       // 收货人电话
	Address             string         `gorm:"type:varchar(500)" json:"address,omitempty"`                   // 收货地址
	FinalAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"final_amount"`    // 应收总额（含运费）
	DeliveryFee         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`    // 运费
	SalesAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"sales_amount"`    // 销售额（不含运费）
	RefundAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refund_amount"`   // 退款金额
	EmployeeID          uint           `gorm:"index" json:"employee_id,omitempty"`                           // 经办员工ID
	Notes               string         `gorm:"type:text" json:"notes,omitempty"`                             // 备注与对账审计记录
	StatusCheckedAt     *time.Time     `gorm:"index" json:"status_checked_at,omitempty"`                     // 最近一次对账时间
	CompletedAt         *time.Time     `gorm:"index" json:"completed_at,omitempty"`                          // 完成时间
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// ExternalKeys 按优先级返回远端匹配键（配送方订单ID > 二维码ID > 配送单号）
func (o *Order) ExternalKeys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, 3)
	if v := strings.TrimSpace(o.PartnerOrderID); v != "" {
		keys = append(keys, "id_"+v)
	}
	if v := strings.TrimSpace(o.QRID); v != "" {
		keys = append(keys, "qr_"+v)
	}
	if v := strings.TrimSpace(o.TrackingNumber); v != "" {
		keys = append(keys, "track_"+v)
	}
	return keys
}
