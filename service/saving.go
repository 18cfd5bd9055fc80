package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/apperr"
	"ledger/models"
	"ledger/money"
	"ledger/period"
)

// SavingInput 储蓄参数，Month 为英文月份名
type SavingInput struct {
	Month  string
	Year   int
	Amount money.Money
}

// UpsertSaving 新增或覆盖某月储蓄
func (l *Ledger) UpsertSaving(ctx context.Context, userID uint, in SavingInput) (*models.Saving, error) {
	month, err := period.NormalizeMonthName(in.Month)
	if err != nil {
		return nil, err
	}
	if err := period.ValidateYear(in.Year); err != nil {
		return nil, err
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: 储蓄金额不能为负数", apperr.ErrInvalidInput)
	}
	if in.Amount.Overflows() {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, money.ErrOverflow)
	}

	saving, err := l.store.FindSaving(ctx, userID, month, in.Year)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		saving = &models.Saving{UserID: userID, Month: month, Year: in.Year}
	case err != nil:
		return nil, err
	}
	saving.Amount = in.Amount

	if err := l.store.SaveSaving(ctx, saving); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "保存储蓄", "user_id", userID, "month", month, "year", in.Year, "amount", in.Amount.String())
	return saving, nil
}

// GetSaving 查询某月储蓄，不存在返回 apperr.ErrNotFound
func (l *Ledger) GetSaving(ctx context.Context, userID uint, month string, year int) (*models.Saving, error) {
	name, err := period.NormalizeMonthName(month)
	if err != nil {
		return nil, err
	}
	if err := period.ValidateYear(year); err != nil {
		return nil, err
	}
	return l.store.FindSaving(ctx, userID, name, year)
}

// ListSavings 用户全部储蓄，年份倒序
func (l *Ledger) ListSavings(ctx context.Context, userID uint) ([]models.Saving, error) {
	savings, err := l.store.FindSavings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if savings == nil {
		savings = []models.Saving{}
	}
	return savings, nil
}
