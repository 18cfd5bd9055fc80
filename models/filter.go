package models

import "time"

// ExpenseFilter 消费记录查询条件，UserID 必填
type ExpenseFilter struct {
	UserID   uint
	From     *time.Time // 含
	To       *time.Time // 含
	Category *string
}
