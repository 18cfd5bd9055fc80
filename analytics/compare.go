package analytics

import "ledger/money"

// Trend 两个周期之间的支出趋势
type Trend string

const (
	TrendIncrease Trend = "increase"
	TrendDecrease Trend = "decrease"
	TrendSame     Trend = "same"
)

// PeriodSpend 某个月的支出合计
type PeriodSpend struct {
	Month    string      `json:"month"`
	Year     int         `json:"year"`
	Spending money.Money `json:"spending"`
}

// Comparison 月度对比结果
type Comparison struct {
	Current    PeriodSpend `json:"current"`
	Comparison PeriodSpend `json:"comparison"`
	Difference money.Money `json:"difference"`
	Trend      Trend       `json:"trend"`
}

// Compare difference = current - comparison，按差值符号判断趋势
func Compare(current, comparison PeriodSpend) Comparison {
	diff := current.Spending.Sub(comparison.Spending)
	trend := TrendSame
	switch diff.Sign() {
	case 1:
		trend = TrendIncrease
	case -1:
		trend = TrendDecrease
	}
	return Comparison{
		Current:    current,
		Comparison: comparison,
		Difference: diff,
		Trend:      trend,
	}
}
