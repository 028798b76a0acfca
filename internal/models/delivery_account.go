package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryAccount 配送方账号表（对账轮询的凭据集合）
type DeliveryAccount struct {
	ID         uint           `gorm:"primarykey" json:"id"`                              // 主键
	Partner    string         `gorm:"index;not null" json:"partner"`                     // 配送方
	Label      string         `gorm:"index;not null" json:"label"`                       // 账号标识（写入订单 delivery_account_used）
	Token      string         `gorm:"type:varchar(500);not null" json:"-"`               // API 凭据
	MerchantID string         `gorm:"type:varchar(120)" json:"merchant_id,omitempty"`    // 商户号
	IsActive   bool           `gorm:"default:true;index" json:"is_active"`               // 是否启用
	LastUsedAt *time.Time     `json:"last_used_at,omitempty"`                            // 最近一次对账使用时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (DeliveryAccount) TableName() string {
	return "delivery_accounts"
}
