package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ledger/analytics"
	"ledger/apperr"
	"ledger/blob"
	"ledger/config"
	"ledger/database"
	"ledger/models"
	"ledger/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, f blob.File, folder string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.test/" + folder + "/receipt.png", nil
}

type fakeNotifier struct {
	alerts chan BudgetAlert
}

func (n *fakeNotifier) BudgetExceeded(_ context.Context, alert BudgetAlert) error {
	n.alerts <- alert
	return nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// 固定时钟：2026-02-10
var fixedNow = time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Open(&config.Config{
		Server:   config.ServerConfig{Mode: "release"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database.NewStore(db)
}

func newUser(t *testing.T, store *database.Store, email string) uint {
	t.Helper()
	u := &models.User{FullName: "Test", Email: email, Password: "x"}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u.ID
}

func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *database.Store, *fakeUploader) {
	t.Helper()
	store := newTestStore(t)
	uploader := &fakeUploader{}
	opts = append([]Option{WithLocation(time.UTC), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewLedger(store, uploader, opts...), store, uploader
}

func add(t *testing.T, l *Ledger, userID uint, name, category, price, date string) *ExpenseView {
	t.Helper()
	v, err := l.AddExpense(context.Background(), userID, ExpenseInput{
		Name:     name,
		Price:    money.MustParse(price),
		Date:     date,
		Category: category,
	}, nil)
	require.NoError(t, err)
	return v
}

func TestLedger_AddExpense_RoundTrip(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "a@example.com")

	created, err := l.AddExpense(ctx, userID, ExpenseInput{
		Name:        "Groceries",
		Description: "weekly shop",
		Price:       money.MustParse("12.30"),
		Date:        "2025-06-15",
		Category:    "Food",
		Day:         "sunday",
	}, nil)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.ImageURL)

	list, err := l.ListExpenses(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	got := list.Expenses[0]
	assert.Equal(t, "Groceries", got.Name)
	assert.Equal(t, "weekly shop", got.Description)
	assert.Equal(t, "12.30", got.Price.String())
	assert.Equal(t, "Food", got.Category)
	assert.True(t, got.Date.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Sunday", got.Day)
	assert.Equal(t, "June", got.Month)
	assert.Equal(t, 2025, got.Year)
}

func TestLedger_AddExpense_ValidatesBeforeWrite(t *testing.T) {
	l, store, uploader := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "v@example.com")
	file := &blob.File{Data: pngHeader}

	_, err := l.AddExpense(ctx, userID, ExpenseInput{Name: "x", Price: money.MustParse("1"), Date: "2025-06-15", Day: "Monday"}, file)
	assert.True(t, errors.Is(err, apperr.ErrInvalidPeriod))

	_, err = l.AddExpense(ctx, userID, ExpenseInput{Name: "x", Price: money.MustParse("-1"), Date: "2025-06-15"}, file)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = l.AddExpense(ctx, userID, ExpenseInput{Name: " ", Price: money.MustParse("1"), Date: "2025-06-15"}, file)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = l.AddExpense(ctx, userID, ExpenseInput{Name: "x", Price: money.MustParse("1"), Date: "15/06/2025"}, file)
	assert.True(t, errors.Is(err, apperr.ErrInvalidPeriod))

	_, err = l.AddExpense(ctx, userID, ExpenseInput{Name: "x", Price: money.MustParse("1"), Date: "2025-06-15"}, &blob.File{Data: []byte("text"), ContentType: "text/plain"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	assert.Equal(t, 0, uploader.calls)
	list, err := l.ListExpenses(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
}

func TestLedger_AddExpense_Image(t *testing.T) {
	l, store, uploader := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "img@example.com")

	v, err := l.AddExpense(ctx, userID, ExpenseInput{Name: "Taxi", Price: money.MustParse("20"), Date: "2025-06-15"}, &blob.File{Data: pngHeader})
	require.NoError(t, err)
	require.NotNil(t, v.ImageURL)
	assert.Equal(t, "https://cdn.test/expenses/receipt.png", *v.ImageURL)

	uploader.err = errors.New("bucket unavailable")
	_, err = l.AddExpense(ctx, userID, ExpenseInput{Name: "Bus", Price: money.MustParse("2"), Date: "2025-06-15"}, &blob.File{Data: pngHeader})
	assert.True(t, errors.Is(err, apperr.ErrUploadFailed))

	list, err := l.ListExpenses(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestLedger_UpdateExpense(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	alice := newUser(t, store, "alice@example.com")
	bob := newUser(t, store, "bob@example.com")
	e := add(t, l, alice, "Lunch", "Food", "8.50", "2025-06-15")

	price := money.MustParse("9.75")
	date := "2025-06-16"
	updated, err := l.UpdateExpense(ctx, alice, e.ID, ExpenseUpdate{Price: &price, Date: &date}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", updated.Name)
	assert.Equal(t, "Food", updated.Category)
	assert.Equal(t, "9.75", updated.Price.String())
	assert.Equal(t, "Monday", updated.Day)

	got, err := l.GetExpense(ctx, alice, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "9.75", got.Price.String())
	assert.Equal(t, "Monday", got.Day)

	_, err = l.UpdateExpense(ctx, bob, e.ID, ExpenseUpdate{Price: &price}, nil)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	bad := "not a date"
	_, err = l.UpdateExpense(ctx, alice, e.ID, ExpenseUpdate{Date: &bad}, nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidPeriod))
}

func TestLedger_DeleteExpense(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	alice := newUser(t, store, "alice@example.com")
	bob := newUser(t, store, "bob@example.com")
	e := add(t, l, alice, "Lunch", "Food", "8.50", "2025-06-15")

	assert.True(t, errors.Is(l.DeleteExpense(ctx, bob, e.ID), apperr.ErrNotFound))
	require.NoError(t, l.DeleteExpense(ctx, alice, e.ID))
	assert.True(t, errors.Is(l.DeleteExpense(ctx, alice, e.ID), apperr.ErrNotFound))
}

func TestLedger_Scoping(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	alice := newUser(t, store, "alice@example.com")
	bob := newUser(t, store, "bob@example.com")
	add(t, l, alice, "Rent", "Housing", "800", "2025-06-01")
	add(t, l, bob, "Taxi", "Transport", "20", "2025-06-02")

	list, err := l.ListExpenses(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, alice, list.Expenses[0].UserID)

	byMonth, err := l.ExpensesByMonth(ctx, bob, "june", 2025)
	require.NoError(t, err)
	require.Equal(t, 1, byMonth.Total)
	assert.Equal(t, "Taxi", byMonth.Expenses[0].Name)
	assert.Equal(t, "June", byMonth.Month)

	cats, err := l.Categories(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Housing"}, cats)

	daily, err := l.DailySpending(ctx, bob, Period{Year: 2025, Month: 6})
	require.NoError(t, err)
	assert.Equal(t, "20.00", daily.Total().String())
}

func TestLedger_Queries(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "q@example.com")
	add(t, l, userID, "Coffee", "Food", "3.50", "2025-06-15 08:00:00")
	add(t, l, userID, "Dinner", "Food", "30", "2025-06-15 20:00:00")
	add(t, l, userID, "Book", "Education", "15", "2025-07-01")
	add(t, l, userID, "Gift", "", "40", "2024-12-24")

	_, err := l.ExpensesByMonth(ctx, userID, "Juneish", 2025)
	assert.True(t, errors.Is(err, apperr.ErrInvalidMonth))

	year, err := l.ExpensesByYear(ctx, userID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, year.Total)
	// 按日期倒序
	assert.Equal(t, "Book", year.Expenses[0].Name)

	day, err := l.ExpensesByDate(ctx, userID, "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, 2, day.Total)
	assert.Equal(t, "Sunday", day.Day)
	assert.Equal(t, "June", day.Month)

	food, err := l.FilterByCategory(ctx, userID, "Food")
	require.NoError(t, err)
	assert.Equal(t, 2, food.Total)
	assert.Equal(t, "Food", food.Category)

	_, err = l.FilterByCategory(ctx, userID, "  ")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	between, err := l.ExpensesBetween(ctx, userID, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, between.Total)

	_, err = l.ExpensesBetween(ctx, userID, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, apperr.ErrInvalidPeriod))

	summary, err := l.MonthlySummary(ctx, userID, "JUNE", 2025)
	require.NoError(t, err)
	assert.Equal(t, "June", summary.Month)
	assert.Equal(t, "33.50", summary.TotalAmount.String())
	assert.Equal(t, 2, summary.TotalExpenses)
	assert.Equal(t, "33.50", summary.ByCategory["Food"].String())

	cats, err := l.Categories(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Education", "Food"}, cats)
}

func TestLedger_MoneyExactness(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "m@example.com")
	for i := 0; i < 10; i++ {
		add(t, l, userID, "Candy", "Food", "0.10", "2026-02-03")
	}
	summary, err := l.MonthlySummary(ctx, userID, "February", 2026)
	require.NoError(t, err)
	assert.Equal(t, "1.00", summary.TotalAmount.String())
}

func TestLedger_CompareMonthly(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "c@example.com")
	add(t, l, userID, "A", "Food", "100", "2025-05-03")
	add(t, l, userID, "B", "Food", "200", "2025-05-20")
	add(t, l, userID, "C", "Food", "300", "2025-06-10")

	same, err := l.CompareMonthly(ctx, userID, "june", 2025, "MAY", 2025)
	require.NoError(t, err)
	assert.Equal(t, analytics.TrendSame, same.Trend)
	assert.True(t, same.Difference.IsZero())
	assert.Equal(t, "June", same.Current.Month)
	assert.Equal(t, "May", same.Comparison.Month)
	assert.Equal(t, "300.00", same.Current.Spending.String())

	down, err := l.CompareMonthly(ctx, userID, "July", 2025, "June", 2025)
	require.NoError(t, err)
	assert.Equal(t, analytics.TrendDecrease, down.Trend)
	assert.Equal(t, "-300.00", down.Difference.String())

	_, err = l.CompareMonthly(ctx, userID, "Smarch", 2025, "June", 2025)
	assert.True(t, errors.Is(err, apperr.ErrInvalidMonth))
}

func TestLedger_Analytics(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "an@example.com")
	add(t, l, userID, "A", "Food", "10", "2026-02-01")
	add(t, l, userID, "B", "", "5", "2026-02-09")
	add(t, l, userID, "C", "Travel", "99", "2025-12-31")

	// 默认窗口为当前月份：2026 年 2 月，28 天 4 周
	daily, err := l.DailySpending(ctx, userID, Period{})
	require.NoError(t, err)
	assert.Len(t, daily.Labels, 28)
	assert.Equal(t, "10.00", daily.Data[0].String())

	weekly, err := l.WeeklySpending(ctx, userID, Period{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Week 1", "Week 2", "Week 3", "Week 4"}, weekly.Labels)
	assert.Equal(t, "10.00", weekly.Data[0].String())
	assert.Equal(t, "5.00", weekly.Data[1].String())

	jan, err := l.WeeklySpending(ctx, userID, Period{Year: 2026, Month: 1})
	require.NoError(t, err)
	assert.Len(t, jan.Labels, 5)

	monthly, err := l.MonthlySpending(ctx, userID, Period{Year: 2025})
	require.NoError(t, err)
	assert.Len(t, monthly.Labels, 12)
	assert.Equal(t, "99.00", monthly.Data[11].String())

	yearly, err := l.YearlySpending(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025", "2026"}, yearly.Labels)

	weeklyCat, err := l.WeeklyByCategory(ctx, userID, Period{})
	require.NoError(t, err)
	assert.Len(t, weeklyCat, 2)
	assert.Contains(t, weeklyCat, analytics.Uncategorized)
	assert.Equal(t, "5.00", weeklyCat[analytics.Uncategorized].Data[1].String())
	assert.NotContains(t, weeklyCat, "Travel")

	dailyCat, err := l.DailyByCategory(ctx, userID, Period{})
	require.NoError(t, err)
	assert.Len(t, dailyCat["Food"].Labels, 28)

	monthlyCat, err := l.MonthlyByCategory(ctx, userID, Period{Year: 2026})
	require.NoError(t, err)
	assert.Contains(t, monthlyCat, analytics.Uncategorized)

	yearlyCat, err := l.YearlyByCategory(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025"}, yearlyCat["Travel"].Labels)

	_, err = l.DailySpending(ctx, userID, Period{Year: 2026, Month: 13})
	assert.True(t, errors.Is(err, apperr.ErrInvalidMonth))

	empty, err := l.WeeklyByCategory(ctx, userID, Period{Year: 2020, Month: 1})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLedger_BudgetAccumulates(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "b@example.com")

	_, err := l.SetBudget(ctx, userID, BudgetInput{Month: 6, Year: 2025, Amount: money.MustParse("100")})
	require.NoError(t, err)
	b, err := l.SetBudget(ctx, userID, BudgetInput{Month: 6, Year: 2025, Amount: money.MustParse("50")})
	require.NoError(t, err)
	assert.Equal(t, "150.00", b.Amount.String())

	stored, err := store.FindBudget(ctx, userID, 6, 2025)
	require.NoError(t, err)
	assert.Equal(t, "150.00", stored.Amount.String())
}

func TestLedger_AmountsFitColumn(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "max@example.com")
	over := money.Max.Add(money.FromCents(1))

	_, err := l.AddExpense(ctx, userID, ExpenseInput{Name: "Yacht", Price: over, Date: "2025-06-15"}, nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	e := add(t, l, userID, "Yacht", "Travel", "9999999999.99", "2025-06-15")
	_, err = l.UpdateExpense(ctx, userID, e.ID, ExpenseUpdate{Price: &over}, nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	got, err := l.GetExpense(ctx, userID, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(money.Max))

	// 累加后超出上限，原预算不变
	_, err = l.SetBudget(ctx, userID, BudgetInput{Month: 6, Year: 2025, Amount: money.Max})
	require.NoError(t, err)
	_, err = l.SetBudget(ctx, userID, BudgetInput{Month: 6, Year: 2025, Amount: money.FromCents(1)})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	stored, err := store.FindBudget(ctx, userID, 6, 2025)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(money.Max))

	_, err = l.UpsertSaving(ctx, userID, SavingInput{Month: "June", Year: 2025, Amount: over})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	_, err = l.GetSaving(ctx, userID, "June", 2025)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestLedger_LocationMonthBoundary(t *testing.T) {
	cst := time.FixedZone("CST", 8*3600)
	l, store, _ := newTestLedger(t, WithLocation(cst))
	ctx := context.Background()
	userID := newUser(t, store, "tz@example.com")

	// 北京时间 3 月 1 日零点，UTC 仍是 2 月 28 日
	mar := add(t, l, userID, "Midnight", "Food", "20", "2026-03-01")
	add(t, l, userID, "LateFeb", "Food", "7", "2026-02-28 23:30:00")
	assert.Equal(t, "March", mar.Month)
	assert.Equal(t, "Sunday", mar.Day)
	assert.Equal(t, 1, mar.Date.Day())

	march, err := l.ExpensesByMonth(ctx, userID, "March", 2026)
	require.NoError(t, err)
	require.Equal(t, 1, march.Total)
	assert.Equal(t, "Midnight", march.Expenses[0].Name)

	feb, err := l.ExpensesByMonth(ctx, userID, "February", 2026)
	require.NoError(t, err)
	require.Equal(t, 1, feb.Total)
	assert.Equal(t, "LateFeb", feb.Expenses[0].Name)

	day, err := l.ExpensesByDate(ctx, userID, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, day.Total)

	daily, err := l.DailySpending(ctx, userID, Period{Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, "20.00", daily.Data[0].String())
	assert.Equal(t, "20.00", daily.Total().String())

	daily, err = l.DailySpending(ctx, userID, Period{Year: 2026, Month: 2})
	require.NoError(t, err)
	assert.Equal(t, "7.00", daily.Data[27].String())
	assert.Equal(t, "7.00", daily.Total().String())

	monthly, err := l.MonthlySpending(ctx, userID, Period{Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, "7.00", monthly.Data[1].String())
	assert.Equal(t, "20.00", monthly.Data[2].String())

	_, err = l.SetBudget(ctx, userID, BudgetInput{Month: 3, Year: 2026, Amount: money.MustParse("100")})
	require.NoError(t, err)
	status, err := l.BudgetStatus(ctx, userID, 3, 2026)
	require.NoError(t, err)
	assert.Equal(t, "20.00", status.Spent.String())

	_, err = l.SetBudget(ctx, userID, BudgetInput{Month: 2, Year: 2026, Amount: money.MustParse("50")})
	require.NoError(t, err)
	status, err = l.BudgetStatus(ctx, userID, 2, 2026)
	require.NoError(t, err)
	assert.Equal(t, "7.00", status.Spent.String())
}

func TestLedger_BudgetMonthIsOneBased(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "mon@example.com")

	_, err := l.SetBudget(ctx, userID, BudgetInput{Month: 0, Year: 2025, Amount: money.MustParse("1")})
	assert.True(t, errors.Is(err, apperr.ErrInvalidMonth))
	_, err = l.BudgetStatus(ctx, userID, 13, 2025)
	assert.True(t, errors.Is(err, apperr.ErrInvalidMonth))

	// 12 月预算只统计 12 月的支出
	_, err = l.SetBudget(ctx, userID, BudgetInput{Month: 12, Year: 2025, Amount: money.MustParse("100")})
	require.NoError(t, err)
	add(t, l, userID, "Tree", "Home", "60", "2025-12-20")
	add(t, l, userID, "Boots", "Clothes", "70", "2025-11-20")

	st, err := l.BudgetStatus(ctx, userID, 12, 2025)
	require.NoError(t, err)
	assert.Equal(t, 12, st.Month)
	assert.Equal(t, "60.00", st.Spent.String())
	assert.Equal(t, "40.00", st.Remaining.String())
	require.NotNil(t, st.Exceeded)
	assert.False(t, *st.Exceeded)
}

func TestLedger_NoBudgetSentinel(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "nb@example.com")
	add(t, l, userID, "Rent", "Housing", "800", "2025-06-01")

	st, err := l.BudgetStatus(ctx, userID, 6, 2025)
	require.NoError(t, err)
	assert.False(t, st.Configured())
	assert.Equal(t, NoBudgetMessage, st.Message)
	assert.True(t, st.Spent.IsZero())
	assert.True(t, st.Remaining.IsZero())
	assert.Nil(t, st.Exceeded)
}

func TestLedger_BudgetExceeded(t *testing.T) {
	notifier := &fakeNotifier{alerts: make(chan BudgetAlert, 1)}
	l, store, _ := newTestLedger(t, WithNotifier(notifier))
	ctx := context.Background()
	userID := newUser(t, store, "ex@example.com")

	_, err := l.SetBudget(ctx, userID, BudgetInput{Month: 6, Year: 2025, Amount: money.MustParse("100")})
	require.NoError(t, err)
	add(t, l, userID, "TV", "Home", "100.01", "2025-06-05")

	select {
	case alert := <-notifier.alerts:
		assert.Equal(t, userID, alert.UserID)
		assert.Equal(t, 6, alert.Month)
		assert.Equal(t, "-0.01", alert.Remaining.String())
	case <-time.After(2 * time.Second):
		t.Fatal("未收到超支提醒")
	}

	st, err := l.BudgetStatus(ctx, userID, 6, 2025)
	require.NoError(t, err)
	assert.True(t, *st.Exceeded)
	assert.Equal(t, "-0.01", st.Remaining.String())
}

// conflictStore 模拟并发写入时的唯一索引冲突
type conflictStore struct {
	Store
	saves int
}

func (s *conflictStore) SaveBudget(context.Context, *models.Budget) error {
	s.saves++
	return apperr.ErrConflict
}

func TestLedger_SetBudget_ConflictNotRetried(t *testing.T) {
	store := &conflictStore{Store: newTestStore(t)}
	l := NewLedger(store, nil)
	_, err := l.SetBudget(context.Background(), 1, BudgetInput{Month: 6, Year: 2025, Amount: money.MustParse("1")})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Equal(t, 1, store.saves)
}

func TestLedger_SavingReplaces(t *testing.T) {
	l, store, _ := newTestLedger(t)
	ctx := context.Background()
	userID := newUser(t, store, "s@example.com")

	_, err := l.UpsertSaving(ctx, userID, SavingInput{Month: "june", Year: 2025, Amount: money.MustParse("200")})
	require.NoError(t, err)
	sv, err := l.UpsertSaving(ctx, userID, SavingInput{Month: "JUNE", Year: 2025, Amount: money.MustParse("300")})
	require.NoError(t, err)
	assert.Equal(t, "June", sv.Month)
	assert.Equal(t, "300.00", sv.Amount.String())

	got, err := l.GetSaving(ctx, userID, " June ", 2025)
	require.NoError(t, err)
	assert.Equal(t, "300.00", got.Amount.String())

	list, err := l.ListSavings(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = l.GetSaving(ctx, userID, "July", 2025)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	_, err = l.UpsertSaving(ctx, userID, SavingInput{Month: "Jun", Year: 2025, Amount: money.MustParse("1")})
	assert.True(t, errors.Is(err, apperr.ErrInvalidMonth))
	_, err = l.UpsertSaving(ctx, userID, SavingInput{Month: "July", Year: 2025, Amount: money.MustParse("-1")})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}
