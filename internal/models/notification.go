package models

import (
	"time"
)

// Notification 通知表
type Notification struct {
	ID        uint       `gorm:"primarykey" json:"id"`                        // 主键
	UserID    uint       `gorm:"index" json:"user_id,omitempty"`              // 接收人（0 表示广播给运营端）
	Type      string     `gorm:"index;not null" json:"type"`                  // 通知类型
	Title     string     `gorm:"type:varchar(300);not null" json:"title"`     // 标题
	Message   string     `gorm:"type:text" json:"message"`                    // 内容
	DataJSON  JSON       `gorm:"type:json" json:"data"`                       // 附加数据
	ReadAt    *time.Time `gorm:"index" json:"read_at,omitempty"`              // 已读时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
