package models

import (
	"time"

	"ledger/money"
)

// Budget 月度预算，每个用户每月唯一，重复设置时金额累加
type Budget struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"uniqueIndex:idx_budget_period;not null"`
	Month     int         `json:"month" gorm:"uniqueIndex:idx_budget_period;not null"` // 1-12
	Year      int         `json:"year" gorm:"uniqueIndex:idx_budget_period;not null"`
	Amount    money.Money `json:"amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}
