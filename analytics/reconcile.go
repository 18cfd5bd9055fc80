package analytics

import "ledger/money"

// BudgetStatus 预算执行情况
type BudgetStatus struct {
	Configured bool
	Budget     money.Money
	Spent      money.Money
	Remaining  money.Money
	Exceeded   bool
}

// AccumulateBudget 设置预算采用累加语义：已有预算时在原金额上增加 delta
func AccumulateBudget(existing *money.Money, delta money.Money) money.Money {
	if existing == nil {
		return delta
	}
	return existing.Add(delta)
}

// Reconcile 核对预算与支出。
// 未设置预算时固定返回 spent=0、remaining=0，不统计实际支出。
func Reconcile(budget *money.Money, prices []money.Money) BudgetStatus {
	if budget == nil {
		return BudgetStatus{}
	}
	spent := money.Sum(prices)
	remaining := budget.Sub(spent)
	return BudgetStatus{
		Configured: true,
		Budget:     *budget,
		Spent:      spent,
		Remaining:  remaining,
		Exceeded:   remaining.IsNegative(),
	}
}
