package models

import (
	"time"
)

// SweepLog 对账运行记录表（每次扫描一行，便于审计幂等重跑）
type SweepLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`                  // 主键
	Partner        string    `gorm:"index;not null" json:"partner"`         // 配送方
	Trigger        string    `gorm:"index" json:"trigger,omitempty"`        // 触发来源（ticker/queue/manual）
	OrdersChecked  int       `gorm:"not null;default:0" json:"orders_checked"`
	OrdersUpdated  int       `gorm:"not null;default:0" json:"orders_updated"`
	AccountsUsed   int       `gorm:"not null;default:0" json:"accounts_used"`
	AccountsFailed int       `gorm:"not null;default:0" json:"accounts_failed"`
	ChangesJSON    JSON      `gorm:"type:json" json:"changes"`              // 变更明细
	StartedAt      time.Time `gorm:"index" json:"started_at"`               // 开始时间
	FinishedAt     time.Time `json:"finished_at"`                           // 结束时间
	CreatedAt      time.Time `gorm:"index" json:"created_at"`               // 创建时间
}

// TableName 指定表名
func (SweepLog) TableName() string {
	return "sweep_logs"
}
