package models

import (
	"time"

	"ledger/money"
	"ledger/period"
)

// Expense 消费记录模型
type Expense struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	UserID      uint        `json:"user_id" gorm:"index;not null"`
	Name        string      `json:"name" gorm:"size:100;not null"`
	Description string      `json:"description" gorm:"size:255"`
	ImageURL    *string     `json:"image_url" gorm:"size:512"`
	Price       money.Money `json:"price" gorm:"type:decimal(12,2);not null"`
	Date        time.Time   `json:"date" gorm:"index;not null"`
	Day         string      `json:"day" gorm:"size:10;not null"` // 星期英文名，由 Date 推导
	Category    string      `json:"category" gorm:"size:50;index"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// SetDate 修改日期时同步更新星期
func (e *Expense) SetDate(t time.Time) {
	e.Date = t
	e.Day = period.WeekdayName(t)
}
