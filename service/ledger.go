package service

import (
	"context"
	"log/slog"
	"time"

	"ledger/blob"
	"ledger/models"
)

// Store 记录存储，所有方法都按 userID 隔离，记录不存在时返回 apperr.ErrNotFound
type Store interface {
	FindExpenses(ctx context.Context, f models.ExpenseFilter) ([]models.Expense, error)
	GetExpense(ctx context.Context, userID, id uint) (*models.Expense, error)
	CreateExpense(ctx context.Context, e *models.Expense) error
	SaveExpense(ctx context.Context, e *models.Expense) error
	RemoveExpense(ctx context.Context, e *models.Expense) error
	ExpenseCategories(ctx context.Context, userID uint) ([]string, error)

	FindBudget(ctx context.Context, userID uint, month, year int) (*models.Budget, error)
	SaveBudget(ctx context.Context, b *models.Budget) error

	FindSaving(ctx context.Context, userID uint, month string, year int) (*models.Saving, error)
	SaveSaving(ctx context.Context, s *models.Saving) error
	FindSavings(ctx context.Context, userID uint) ([]models.Saving, error)
}

// Notifier 预算超支提醒
type Notifier interface {
	BudgetExceeded(ctx context.Context, alert BudgetAlert) error
}

// Ledger 账本服务，对外提供消费、预算、储蓄和统计操作
type Ledger struct {
	store    Store
	uploader blob.Uploader
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

// Option 配置 Ledger
type Option func(*Ledger)

// WithLocation 统计使用的时区，默认 time.Local
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithClock 替换当前时间来源
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithNotifier 设置预算超支提醒
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) {
		l.notifier = n
	}
}

// NewLedger 创建账本服务，uploader 为 nil 时不支持图片
func NewLedger(store Store, uploader blob.Uploader, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		uploader: uploader,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	slog.Debug("账本服务已创建", "timezone", l.loc.String(), "uploader", uploader != nil, "notifier", l.notifier != nil)
	return l
}

// Location 统计使用的时区
func (l *Ledger) Location() *time.Location {
	return l.loc
}

func (l *Ledger) today() time.Time {
	return l.now().In(l.loc)
}
