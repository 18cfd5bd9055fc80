package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ledger/apperr"
	"ledger/models"
	"ledger/period"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Store 基于 gorm 的记录存储，所有查询都按 user_id 隔离
type Store struct {
	db *gorm.DB
}

// NewStore 创建记录存储
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindExpenses 按条件查询消费记录，按日期倒序
func (s *Store) FindExpenses(ctx context.Context, f models.ExpenseFilter) ([]models.Expense, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.From != nil {
		query = query.Where("date >= ?", f.From.UTC())
	}
	if f.To != nil {
		query = query.Where("date <= ?", f.To.UTC())
	}
	if f.Category != nil {
		query = query.Where("category = ?", *f.Category)
	}

	var expenses []models.Expense
	if err := query.Order("date DESC").Order("id DESC").Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("查询消费记录失败: %w", err)
	}
	return expenses, nil
}

// GetExpense 获取当前用户的单条消费记录
func (s *Store) GetExpense(ctx context.Context, userID, id uint) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&expense).Error
	if err != nil {
		return nil, translate(err, "查询消费记录失败")
	}
	return &expense, nil
}

// CreateExpense 新增消费记录
func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	// 统一以 UTC 存储，sqlite 按字符串比较时间
	e.Date = e.Date.UTC()
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return translate(err, "创建消费记录失败")
	}
	return nil
}

// SaveExpense 按主键保存消费记录
func (s *Store) SaveExpense(ctx context.Context, e *models.Expense) error {
	e.Date = e.Date.UTC()
	if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
		return translate(err, "更新消费记录失败")
	}
	return nil
}

// RemoveExpense 删除消费记录
func (s *Store) RemoveExpense(ctx context.Context, e *models.Expense) error {
	res := s.db.WithContext(ctx).Where("user_id = ?", e.UserID).Delete(&models.Expense{}, e.ID)
	if res.Error != nil {
		return translate(res.Error, "删除消费记录失败")
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ExpenseCategories 用户使用过的类别（去重、非空）
func (s *Store) ExpenseCategories(ctx context.Context, userID uint) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&models.Expense{}).
		Where("user_id = ? AND category IS NOT NULL AND category <> ''", userID).
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}
	return categories, nil
}

// FindBudget 查询某月预算，不存在返回 apperr.ErrNotFound
func (s *Store) FindBudget(ctx context.Context, userID uint, month, year int) (*models.Budget, error) {
	var budget models.Budget
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		First(&budget).Error
	if err != nil {
		return nil, translate(err, "查询预算失败")
	}
	return &budget, nil
}

// SaveBudget 新增或更新预算，唯一约束冲突返回 apperr.ErrConflict
func (s *Store) SaveBudget(ctx context.Context, b *models.Budget) error {
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return translate(err, "保存预算失败")
	}
	return nil
}

// FindSaving 查询某月储蓄，month 为标准英文月份名
func (s *Store) FindSaving(ctx context.Context, userID uint, month string, year int) (*models.Saving, error) {
	var saving models.Saving
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		First(&saving).Error
	if err != nil {
		return nil, translate(err, "查询储蓄失败")
	}
	return &saving, nil
}

// SaveSaving 新增或更新储蓄
func (s *Store) SaveSaving(ctx context.Context, sv *models.Saving) error {
	if err := s.db.WithContext(ctx).Save(sv).Error; err != nil {
		return translate(err, "保存储蓄失败")
	}
	return nil
}

// FindSavings 用户全部储蓄，年份倒序、月份按日历顺序
func (s *Store) FindSavings(ctx context.Context, userID uint) ([]models.Saving, error) {
	var savings []models.Saving
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("year DESC").Find(&savings).Error; err != nil {
		return nil, fmt.Errorf("查询储蓄失败: %w", err)
	}
	sort.SliceStable(savings, func(i, j int) bool {
		if savings[i].Year != savings[j].Year {
			return savings[i].Year > savings[j].Year
		}
		mi, _ := period.MonthNameToIndex(savings[i].Month)
		mj, _ := period.MonthNameToIndex(savings[j].Month)
		return mi < mj
	})
	return savings, nil
}

// CreateUser 创建用户，邮箱重复返回 apperr.ErrConflict
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate(err, "创建用户失败")
	}
	return nil
}

// FindUserByEmail 按邮箱查询用户
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "查询用户失败")
	}
	return &user, nil
}

// GetUser 按 ID 查询用户
func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "查询用户失败")
	}
	return &user, nil
}

// DeleteUser 删除用户，关联记录由外键级联删除
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("删除用户失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// translate 把驱动错误转换为 apperr 中的错误类型
func translate(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case isDuplicateKey(err):
		return fmt.Errorf("%s: %w", msg, apperr.ErrConflict)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// SaveUser 保存用户信息（密码、头像）
func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return translate(err, "更新用户失败")
	}
	return nil
}

// CreatePasswordReset 保存重置令牌
func (s *Store) CreatePasswordReset(ctx context.Context, p *models.PasswordReset) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return translate(err, "创建重置令牌失败")
	}
	return nil
}

// FindPasswordReset 按令牌哈希查询
func (s *Store) FindPasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	var p models.PasswordReset
	if err := s.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&p).Error; err != nil {
		return nil, translate(err, "查询重置令牌失败")
	}
	return &p, nil
}

// ResetPassword 在同一事务中更新密码，并使该用户所有未使用的令牌失效
func (s *Store) ResetPassword(ctx context.Context, userID uint, hashedPassword string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("password", hashedPassword)
		if res.Error != nil {
			return fmt.Errorf("更新密码失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		if err := tx.Model(&models.PasswordReset{}).
			Where("user_id = ? AND used = ?", userID, false).
			Update("used", true).Error; err != nil {
			return fmt.Errorf("更新重置令牌失败: %w", err)
		}
		return nil
	})
}
