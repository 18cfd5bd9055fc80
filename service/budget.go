package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledger/analytics"
	"ledger/apperr"
	"ledger/models"
	"ledger/money"
	"ledger/period"
)

// NoBudgetMessage 未设置预算时的提示
const NoBudgetMessage = "该月未设置预算"

// BudgetInput 设置预算的参数，Month 为 1-12
type BudgetInput struct {
	Month  int
	Year   int
	Amount money.Money
}

// BudgetStatus 预算执行情况。未设置预算时只有 message、spent、remaining
type BudgetStatus struct {
	Message   string       `json:"message,omitempty"`
	Month     int          `json:"month,omitempty"`
	Year      int          `json:"year,omitempty"`
	Budget    *money.Money `json:"budget,omitempty"`
	Spent     money.Money  `json:"spent"`
	Remaining money.Money  `json:"remaining"`
	Exceeded  *bool        `json:"exceeded,omitempty"`
}

// Configured 是否已设置预算
func (s BudgetStatus) Configured() bool {
	return s.Budget != nil
}

// BudgetAlert 预算超支提醒内容
type BudgetAlert struct {
	UserID    uint
	Month     int
	Year      int
	Budget    money.Money
	Spent     money.Money
	Remaining money.Money
}

// SetBudget 设置预算，同一月份重复设置时金额累加
func (l *Ledger) SetBudget(ctx context.Context, userID uint, in BudgetInput) (*models.Budget, error) {
	if err := period.ValidateMonth(in.Month); err != nil {
		return nil, err
	}
	if err := period.ValidateYear(in.Year); err != nil {
		return nil, err
	}

	budget, err := l.store.FindBudget(ctx, userID, in.Month, in.Year)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		budget = &models.Budget{UserID: userID, Month: in.Month, Year: in.Year}
		budget.Amount = analytics.AccumulateBudget(nil, in.Amount)
	case err != nil:
		return nil, err
	default:
		budget.Amount = analytics.AccumulateBudget(&budget.Amount, in.Amount)
	}
	if budget.Amount.Overflows() {
		return nil, fmt.Errorf("%w: 累加后预算%v", apperr.ErrInvalidInput, money.ErrOverflow)
	}

	if err := l.store.SaveBudget(ctx, budget); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "设置预算", "user_id", userID, "month", in.Month, "year", in.Year, "amount", budget.Amount.String())
	return budget, nil
}

// BudgetStatus 查询某月预算执行情况，未设置预算不视为错误
func (l *Ledger) BudgetStatus(ctx context.Context, userID uint, month, year int) (*BudgetStatus, error) {
	if err := period.ValidateMonth(month); err != nil {
		return nil, err
	}
	if err := period.ValidateYear(year); err != nil {
		return nil, err
	}

	budget, err := l.store.FindBudget(ctx, userID, month, year)
	if errors.Is(err, apperr.ErrNotFound) {
		return &BudgetStatus{Message: NoBudgetMessage}, nil
	}
	if err != nil {
		return nil, err
	}

	st, err := l.reconcile(ctx, userID, budget)
	if err != nil {
		return nil, err
	}
	return &BudgetStatus{
		Month:     month,
		Year:      year,
		Budget:    &st.Budget,
		Spent:     st.Spent,
		Remaining: st.Remaining,
		Exceeded:  &st.Exceeded,
	}, nil
}

func (l *Ledger) reconcile(ctx context.Context, userID uint, budget *models.Budget) (analytics.BudgetStatus, error) {
	start, end := period.MonthBounds(budget.Year, budget.Month, l.loc)
	expenses, err := l.findBetween(ctx, userID, start, end)
	if err != nil {
		return analytics.BudgetStatus{}, err
	}
	return analytics.Reconcile(&budget.Amount, prices(expenses)), nil
}

// checkBudget 消费写入后检查所在月份是否超支，提醒失败只记录日志
func (l *Ledger) checkBudget(ctx context.Context, userID uint, date time.Time) {
	if l.notifier == nil {
		return
	}
	date = date.In(l.loc)
	month, year := int(date.Month()), date.Year()

	budget, err := l.store.FindBudget(ctx, userID, month, year)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			slog.WarnContext(ctx, "检查预算失败", "user_id", userID, "error", err)
		}
		return
	}
	st, err := l.reconcile(ctx, userID, budget)
	if err != nil {
		slog.WarnContext(ctx, "检查预算失败", "user_id", userID, "error", err)
		return
	}
	if !st.Exceeded {
		return
	}

	alert := BudgetAlert{
		UserID:    userID,
		Month:     month,
		Year:      year,
		Budget:    st.Budget,
		Spent:     st.Spent,
		Remaining: st.Remaining,
	}
	notifyCtx := context.WithoutCancel(ctx)
	go func() {
		if err := l.notifier.BudgetExceeded(notifyCtx, alert); err != nil {
			slog.WarnContext(notifyCtx, "发送超支提醒失败", "user_id", userID, "error", err)
		}
	}()
}
