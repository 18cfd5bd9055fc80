package models

import "time"

// User 用户模型，删除用户时级联删除其消费、预算、储蓄记录和重置令牌
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	FullName       string    `json:"full_name" gorm:"size:100;not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password       string    `json:"-" gorm:"size:255;not null"`
	ProfilePicture *string   `json:"profile_picture,omitempty" gorm:"size:512"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Expenses []Expense `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Budgets  []Budget  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Savings  []Saving  `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	PasswordResets []PasswordReset `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
