package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ledger/analytics"
	"ledger/apperr"
	"ledger/blob"
	"ledger/models"
	"ledger/money"
	"ledger/period"

	"golang.org/x/sync/errgroup"
)

// imageFolder 消费图片的存储目录
const imageFolder = "expenses"

// ExpenseInput 新增消费的参数
type ExpenseInput struct {
	Name        string
	Description string
	Price       money.Money
	Date        string
	Category    string
	Day         string // 可选，填写时必须与 Date 的星期一致
}

// ExpenseUpdate 修改消费的参数，nil 表示不修改
type ExpenseUpdate struct {
	Name        *string
	Description *string
	Price       *money.Money
	Date        *string
	Category    *string
}

// ExpenseView 返回给调用方的消费记录，带推导出的月份和年份
type ExpenseView struct {
	models.Expense
	Month string `json:"month"`
	Year  int    `json:"year"`
}

// ExpenseList 消费列表
type ExpenseList struct {
	Total    int           `json:"total"`
	Expenses []ExpenseView `json:"expenses"`
}

// CategoryExpenses 按类别筛选的结果
type CategoryExpenses struct {
	Category string `json:"category"`
	ExpenseList
}

// MonthExpenses 某月的消费
type MonthExpenses struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
	ExpenseList
}

// YearExpenses 某年的消费
type YearExpenses struct {
	Year int `json:"year"`
	ExpenseList
}

// DateExpenses 某天的消费
type DateExpenses struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  int    `json:"year"`
	ExpenseList
}

// MonthlySummary 月度汇总
type MonthlySummary struct {
	Month         string                 `json:"month"`
	Year          int                    `json:"year"`
	TotalAmount   money.Money            `json:"totalAmount"`
	TotalExpenses int                    `json:"totalExpenses"`
	ByCategory    map[string]money.Money `json:"byCategory"`
}

func (in ExpenseInput) validate(loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(in.Name) == "" {
		return time.Time{}, fmt.Errorf("%w: 名称不能为空", apperr.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return time.Time{}, fmt.Errorf("%w: 金额不能为负数", apperr.ErrInvalidInput)
	}
	if in.Price.Overflows() {
		return time.Time{}, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, money.ErrOverflow)
	}
	date, err := period.ParseDate(in.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if in.Day != "" && !strings.EqualFold(strings.TrimSpace(in.Day), period.WeekdayName(date)) {
		return time.Time{}, fmt.Errorf("%w: %s 不是 %s", apperr.ErrInvalidPeriod, in.Date, in.Day)
	}
	return date, nil
}

// AddExpense 新增消费，file 不为空时先上传图片
func (l *Ledger) AddExpense(ctx context.Context, userID uint, in ExpenseInput, file *blob.File) (*ExpenseView, error) {
	date, err := in.validate(l.loc)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
	}
	expense.SetDate(date)

	if file != nil {
		url, err := l.upload(ctx, *file)
		if err != nil {
			return nil, err
		}
		expense.ImageURL = &url
	}

	if err := l.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "新增消费", "user_id", userID, "expense_id", expense.ID, "price", expense.Price.String())

	l.checkBudget(ctx, userID, expense.Date)
	view := l.view(*expense)
	return &view, nil
}

// UpdateExpense 修改消费，只更新传入的字段
func (l *Ledger) UpdateExpense(ctx context.Context, userID, id uint, in ExpenseUpdate, file *blob.File) (*ExpenseView, error) {
	var date *time.Time
	if in.Date != nil {
		d, err := period.ParseDate(*in.Date, l.loc)
		if err != nil {
			return nil, err
		}
		date = &d
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("%w: 名称不能为空", apperr.ErrInvalidInput)
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: 金额不能为负数", apperr.ErrInvalidInput)
	}
	if in.Price != nil && in.Price.Overflows() {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, money.ErrOverflow)
	}

	expense, err := l.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if file != nil {
		url, err := l.upload(ctx, *file)
		if err != nil {
			return nil, err
		}
		expense.ImageURL = &url
	}
	if in.Name != nil {
		expense.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		expense.Description = *in.Description
	}
	if in.Price != nil {
		expense.Price = *in.Price
	}
	if in.Category != nil {
		expense.Category = strings.TrimSpace(*in.Category)
	}
	if date != nil {
		expense.SetDate(*date)
	} else {
		// 从库中读出的时间为 UTC，按统计时区重新推导星期
		expense.SetDate(expense.Date.In(l.loc))
	}

	if err := l.store.SaveExpense(ctx, expense); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "修改消费", "user_id", userID, "expense_id", expense.ID)

	l.checkBudget(ctx, userID, expense.Date)
	view := l.view(*expense)
	return &view, nil
}

// DeleteExpense 删除消费
func (l *Ledger) DeleteExpense(ctx context.Context, userID, id uint) error {
	expense, err := l.store.GetExpense(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := l.store.RemoveExpense(ctx, expense); err != nil {
		return err
	}
	slog.InfoContext(ctx, "删除消费", "user_id", userID, "expense_id", id)
	return nil
}

// GetExpense 获取单条消费
func (l *Ledger) GetExpense(ctx context.Context, userID, id uint) (*ExpenseView, error) {
	expense, err := l.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	view := l.view(*expense)
	return &view, nil
}

// ListExpenses 用户全部消费，按日期倒序
func (l *Ledger) ListExpenses(ctx context.Context, userID uint) (*ExpenseList, error) {
	expenses, err := l.store.FindExpenses(ctx, models.ExpenseFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	list := l.list(expenses)
	return &list, nil
}

// FilterByCategory 按类别筛选
func (l *Ledger) FilterByCategory(ctx context.Context, userID uint, category string) (*CategoryExpenses, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: 类别不能为空", apperr.ErrInvalidInput)
	}
	expenses, err := l.store.FindExpenses(ctx, models.ExpenseFilter{UserID: userID, Category: &category})
	if err != nil {
		return nil, err
	}
	return &CategoryExpenses{Category: category, ExpenseList: l.list(expenses)}, nil
}

// ExpensesByMonth 某月的消费，monthName 为英文月份名
func (l *Ledger) ExpensesByMonth(ctx context.Context, userID uint, monthName string, year int) (*MonthExpenses, error) {
	month, err := period.MonthNameToIndex(monthName)
	if err != nil {
		return nil, err
	}
	if err := period.ValidateYear(year); err != nil {
		return nil, err
	}
	start, end := period.MonthBounds(year, month, l.loc)
	expenses, err := l.findBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	name, _ := period.MonthNameOf(month)
	return &MonthExpenses{Month: name, Year: year, ExpenseList: l.list(expenses)}, nil
}

// ExpensesByYear 某年的消费
func (l *Ledger) ExpensesByYear(ctx context.Context, userID uint, year int) (*YearExpenses, error) {
	if err := period.ValidateYear(year); err != nil {
		return nil, err
	}
	start, end := period.YearBounds(year, l.loc)
	expenses, err := l.findBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return &YearExpenses{Year: year, ExpenseList: l.list(expenses)}, nil
}

// ExpensesByDate 某天的消费
func (l *Ledger) ExpensesByDate(ctx context.Context, userID uint, date string) (*DateExpenses, error) {
	d, err := period.ParseDate(date, l.loc)
	if err != nil {
		return nil, err
	}
	start, end := period.DayBounds(d)
	expenses, err := l.findBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return &DateExpenses{
		Date:        date,
		Day:         period.WeekdayName(d),
		Month:       period.MonthName(d),
		Year:        d.Year(),
		ExpenseList: l.list(expenses),
	}, nil
}

// ExpensesBetween [start, end] 之间的消费，用于导出
func (l *Ledger) ExpensesBetween(ctx context.Context, userID uint, start, end time.Time) (*ExpenseList, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: 结束时间早于开始时间", apperr.ErrInvalidPeriod)
	}
	expenses, err := l.findBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	list := l.list(expenses)
	return &list, nil
}

// Categories 用户用过的类别
func (l *Ledger) Categories(ctx context.Context, userID uint) ([]string, error) {
	categories, err := l.store.ExpenseCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// MonthlySummary 月度汇总：总金额、笔数、各类别金额
func (l *Ledger) MonthlySummary(ctx context.Context, userID uint, monthName string, year int) (*MonthlySummary, error) {
	month, err := period.NormalizeMonthName(monthName)
	if err != nil {
		return nil, err
	}
	spend, expenses, err := l.monthSpend(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	summary := &MonthlySummary{
		Month:         month,
		Year:          year,
		TotalAmount:   spend.Spending,
		TotalExpenses: len(expenses),
		ByCategory:    make(map[string]money.Money),
	}
	for _, e := range expenses {
		cat := analytics.CategoryLabel(e.Category)
		summary.ByCategory[cat] = summary.ByCategory[cat].Add(e.Price)
	}
	return summary, nil
}

// CompareMonthly 对比两个月的支出，两个月份并发查询
func (l *Ledger) CompareMonthly(ctx context.Context, userID uint, curMonth string, curYear int, cmpMonth string, cmpYear int) (*analytics.Comparison, error) {
	current, err := period.NormalizeMonthName(curMonth)
	if err != nil {
		return nil, err
	}
	compare, err := period.NormalizeMonthName(cmpMonth)
	if err != nil {
		return nil, err
	}
	if err := period.ValidateYear(curYear); err != nil {
		return nil, err
	}
	if err := period.ValidateYear(cmpYear); err != nil {
		return nil, err
	}

	var cur, cmp analytics.PeriodSpend
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, _, err = l.monthSpend(gctx, userID, current, curYear)
		return err
	})
	g.Go(func() error {
		var err error
		cmp, _, err = l.monthSpend(gctx, userID, compare, cmpYear)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := analytics.Compare(cur, cmp)
	return &result, nil
}

// monthSpend month 为标准英文月份名
func (l *Ledger) monthSpend(ctx context.Context, userID uint, month string, year int) (analytics.PeriodSpend, []models.Expense, error) {
	idx, err := period.MonthNameToIndex(month)
	if err != nil {
		return analytics.PeriodSpend{}, nil, err
	}
	if err := period.ValidateYear(year); err != nil {
		return analytics.PeriodSpend{}, nil, err
	}
	start, end := period.MonthBounds(year, idx, l.loc)
	expenses, err := l.findBetween(ctx, userID, start, end)
	if err != nil {
		return analytics.PeriodSpend{}, nil, err
	}
	return analytics.PeriodSpend{Month: month, Year: year, Spending: money.Sum(prices(expenses))}, expenses, nil
}

func (l *Ledger) findBetween(ctx context.Context, userID uint, start, end time.Time) ([]models.Expense, error) {
	return l.store.FindExpenses(ctx, models.ExpenseFilter{UserID: userID, From: &start, To: &end})
}

func (l *Ledger) upload(ctx context.Context, f blob.File) (string, error) {
	if l.uploader == nil {
		return "", fmt.Errorf("%w: 未配置图片存储", apperr.ErrUploadFailed)
	}
	if err := f.Validate(); err != nil {
		return "", err
	}
	url, err := l.uploader.Upload(ctx, f, imageFolder)
	if err != nil {
		if errors.Is(err, apperr.ErrUploadFailed) || errors.Is(err, apperr.ErrInvalidInput) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrUploadFailed, err)
	}
	return url, nil
}

// view 按统计时区推导月份、星期和年份
func (l *Ledger) view(e models.Expense) ExpenseView {
	e.Date = e.Date.In(l.loc)
	e.Day = period.WeekdayName(e.Date)
	return ExpenseView{
		Expense: e,
		Month:   period.MonthName(e.Date),
		Year:    e.Date.Year(),
	}
}

func (l *Ledger) list(expenses []models.Expense) ExpenseList {
	views := make([]ExpenseView, len(expenses))
	for i, e := range expenses {
		views[i] = l.view(e)
	}
	return ExpenseList{Total: len(views), Expenses: views}
}

func prices(expenses []models.Expense) []money.Money {
	out := make([]money.Money, len(expenses))
	for i, e := range expenses {
		out[i] = e.Price
	}
	return out
}
