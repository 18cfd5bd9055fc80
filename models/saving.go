package models

import (
	"time"

	"ledger/money"
)

// Saving 月度储蓄，每个用户每月唯一，重复设置时覆盖金额
type Saving struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"uniqueIndex:idx_saving_period;not null"`
	Month     string      `json:"month" gorm:"uniqueIndex:idx_saving_period;size:10;not null"` // 英文月份名，如 June
	Year      int         `json:"year" gorm:"uniqueIndex:idx_saving_period;not null"`
	Amount    money.Money `json:"amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName 设置表名
func (Saving) TableName() string {
	return "savings"
}
