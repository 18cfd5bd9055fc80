package service

import (
	"context"
	"time"

	"ledger/analytics"
	"ledger/models"
	"ledger/period"
)

// Period 统计周期，零值表示当前年份或月份
type Period struct {
	Year  int
	Month int
}

// resolve 补全默认值并校验
func (l *Ledger) resolve(p Period) (analytics.Window, error) {
	now := l.today()
	w := analytics.Window{Year: p.Year, Month: p.Month, Loc: l.loc}
	if w.Year == 0 {
		w.Year = now.Year()
	}
	if w.Month == 0 {
		w.Month = int(now.Month())
	}
	if err := period.ValidateYear(w.Year); err != nil {
		return analytics.Window{}, err
	}
	if err := period.ValidateMonth(w.Month); err != nil {
		return analytics.Window{}, err
	}
	return w, nil
}

// entries 查询窗口内的消费并转换为分桶输入
func (l *Ledger) entries(ctx context.Context, userID uint, g analytics.Granularity, w analytics.Window) ([]analytics.Entry, error) {
	f := models.ExpenseFilter{UserID: userID}
	var start, end time.Time
	switch g {
	case analytics.Day, analytics.Week:
		start, end = period.MonthBounds(w.Year, w.Month, l.loc)
	case analytics.Month:
		start, end = period.YearBounds(w.Year, l.loc)
	}
	if g != analytics.Year {
		f.From, f.To = &start, &end
	}

	expenses, err := l.store.FindExpenses(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]analytics.Entry, len(expenses))
	for i, e := range expenses {
		out[i] = analytics.Entry{Date: e.Date, Category: e.Category, Amount: e.Price}
	}
	return out, nil
}

func (l *Ledger) spending(ctx context.Context, userID uint, g analytics.Granularity, p Period) (analytics.Series, error) {
	w, err := l.resolve(p)
	if err != nil {
		return analytics.Series{}, err
	}
	entries, err := l.entries(ctx, userID, g, w)
	if err != nil {
		return analytics.Series{}, err
	}
	return analytics.Aggregate(entries, g, w)
}

func (l *Ledger) byCategory(ctx context.Context, userID uint, g analytics.Granularity, p Period) (analytics.CrossTab, error) {
	w, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	entries, err := l.entries(ctx, userID, g, w)
	if err != nil {
		return nil, err
	}
	return analytics.AggregateByCategory(entries, g, w)
}

// DailySpending 某月每天的支出
func (l *Ledger) DailySpending(ctx context.Context, userID uint, p Period) (analytics.Series, error) {
	return l.spending(ctx, userID, analytics.Day, p)
}

// WeeklySpending 某月每周的支出
func (l *Ledger) WeeklySpending(ctx context.Context, userID uint, p Period) (analytics.Series, error) {
	return l.spending(ctx, userID, analytics.Week, p)
}

// MonthlySpending 某年每月的支出
func (l *Ledger) MonthlySpending(ctx context.Context, userID uint, p Period) (analytics.Series, error) {
	return l.spending(ctx, userID, analytics.Month, p)
}

// YearlySpending 每年的支出，只包含有记录的年份
func (l *Ledger) YearlySpending(ctx context.Context, userID uint) (analytics.Series, error) {
	return l.spending(ctx, userID, analytics.Year, Period{})
}

// DailyByCategory 某月每天各类别的支出
func (l *Ledger) DailyByCategory(ctx context.Context, userID uint, p Period) (analytics.CrossTab, error) {
	return l.byCategory(ctx, userID, analytics.Day, p)
}

// WeeklyByCategory 某月每周各类别的支出
func (l *Ledger) WeeklyByCategory(ctx context.Context, userID uint, p Period) (analytics.CrossTab, error) {
	return l.byCategory(ctx, userID, analytics.Week, p)
}

// MonthlyByCategory 某年每月各类别的支出
func (l *Ledger) MonthlyByCategory(ctx context.Context, userID uint, p Period) (analytics.CrossTab, error) {
	return l.byCategory(ctx, userID, analytics.Month, p)
}

// YearlyByCategory 每年各类别的支出
func (l *Ledger) YearlyByCategory(ctx context.Context, userID uint) (analytics.CrossTab, error) {
	return l.byCategory(ctx, userID, analytics.Year, Period{})
}
