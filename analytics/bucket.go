// Package analytics 账本聚合引擎：按时间/类别分桶、预算核对、月度对比
//
// 这里的函数都是纯函数，只处理已经查询出来的数据，可并发调用。
package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"ledger/money"
	"ledger/period"
)

// Uncategorized 类别为空的消费归入此类
const Uncategorized = "Uncategorized"

// weeksPerMonth 每月固定 5 个周槽位
const weeksPerMonth = 5

// Granularity 分桶粒度
type Granularity int

const (
	Day Granularity = iota
	Week
	Month
	Year
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	}
	return "unknown"
}

// Entry 一条带日期、类别、金额的记录
type Entry struct {
	Date     time.Time
	Category string
	Amount   money.Money
}

// Window 统计窗口。Day/Week 使用 Year+Month，Month 使用 Year，Year 粒度不限制窗口
type Window struct {
	Year  int
	Month int
	Loc   *time.Location
}

// Series 有序分桶结果
type Series struct {
	Labels []string      `json:"labels"`
	Data   []money.Money `json:"data"`
}

// Total 所有桶的合计
func (s Series) Total() money.Money {
	return money.Sum(s.Data)
}

// Map 以标签为 key 的视图
func (s Series) Map() map[string]money.Money {
	out := make(map[string]money.Money, len(s.Labels))
	for i, l := range s.Labels {
		out[l] = s.Data[i]
	}
	return out
}

// CrossTab 按类别的分桶结果
type CrossTab map[string]Series

// Lists {类别: [金额]}，用于周和月
func (t CrossTab) Lists() map[string][]money.Money {
	out := make(map[string][]money.Money, len(t))
	for cat, s := range t {
		out[cat] = s.Data
	}
	return out
}

// Maps {类别: {标签: 金额}}，用于日和年
func (t CrossTab) Maps() map[string]map[string]money.Money {
	out := make(map[string]map[string]money.Money, len(t))
	for cat, s := range t {
		out[cat] = s.Map()
	}
	return out
}

// Shape 按粒度返回对外输出形式
func (t CrossTab) Shape(g Granularity) any {
	switch g {
	case Week, Month:
		return t.Lists()
	}
	return t.Maps()
}

// layout 描述固定槽位的分桶方式
type layout struct {
	labels []string
	index  func(t time.Time) (int, bool)
}

func (w Window) loc() *time.Location {
	if w.Loc == nil {
		return time.Local
	}
	return w.Loc
}

func newLayout(g Granularity, w Window) (layout, error) {
	loc := w.loc()
	switch g {
	case Day:
		days := period.DaysIn(w.Year, w.Month)
		labels := make([]string, days)
		for d := 1; d <= days; d++ {
			labels[d-1] = time.Date(w.Year, time.Month(w.Month), d, 0, 0, 0, 0, loc).Format("2006-01-02")
		}
		return layout{labels: labels, index: func(t time.Time) (int, bool) {
			t = t.In(loc)
			if t.Year() != w.Year || int(t.Month()) != w.Month {
				return 0, false
			}
			return t.Day() - 1, true
		}}, nil
	case Week:
		// 第 i 周 = 当月第 [7i+1, 7i+7] 天，多余的尾部周槽位裁掉
		n := (period.DaysIn(w.Year, w.Month) + 6) / 7
		labels := make([]string, n)
		for i := range labels {
			labels[i] = "Week " + strconv.Itoa(i+1)
		}
		return layout{labels: labels, index: func(t time.Time) (int, bool) {
			t = t.In(loc)
			if t.Year() != w.Year || int(t.Month()) != w.Month {
				return 0, false
			}
			return (t.Day() - 1) / 7, true
		}}, nil
	case Month:
		return layout{labels: period.MonthAbbrevs(), index: func(t time.Time) (int, bool) {
			t = t.In(loc)
			if t.Year() != w.Year {
				return 0, false
			}
			return int(t.Month()) - 1, true
		}}, nil
	}
	return layout{}, fmt.Errorf("不支持的固定分桶粒度: %s", g)
}

func (l layout) fill(entries []Entry) Series {
	data := make([]money.Money, len(l.labels))
	for _, e := range entries {
		if i, ok := l.index(e.Date); ok {
			data[i] = data[i].Add(e.Amount)
		}
	}
	labels := make([]string, len(l.labels))
	copy(labels, l.labels)
	return Series{Labels: labels, Data: data}
}

// yearly 只输出出现过的年份，按字典序升序
func yearly(entries []Entry, loc *time.Location) Series {
	sums := make(map[string]money.Money)
	for _, e := range entries {
		y := strconv.Itoa(e.Date.In(loc).Year())
		sums[y] = sums[y].Add(e.Amount)
	}
	labels := make([]string, 0, len(sums))
	for y := range sums {
		labels = append(labels, y)
	}
	sort.Strings(labels)
	data := make([]money.Money, len(labels))
	for i, y := range labels {
		data[i] = sums[y]
	}
	return Series{Labels: labels, Data: data}
}

// Aggregate 按粒度汇总，Day/Week/Month 对没有数据的桶补 0
func Aggregate(entries []Entry, g Granularity, w Window) (Series, error) {
	if g == Year {
		return yearly(entries, w.loc()), nil
	}
	l, err := newLayout(g, w)
	if err != nil {
		return Series{}, err
	}
	return l.fill(entries), nil
}

// AggregateByCategory 按类别交叉汇总，每个出现过的类别独立一套分桶
func AggregateByCategory(entries []Entry, g Granularity, w Window) (CrossTab, error) {
	groups := make(map[string][]Entry)
	for _, e := range entries {
		cat := CategoryLabel(e.Category)
		groups[cat] = append(groups[cat], e)
	}

	out := make(CrossTab, len(groups))
	if g == Year {
		for cat, list := range groups {
			out[cat] = yearly(list, w.loc())
		}
		return out, nil
	}

	l, err := newLayout(g, w)
	if err != nil {
		return nil, err
	}
	for cat, list := range groups {
		// 窗口外的记录不应产生类别
		inWindow := false
		for _, e := range list {
			if _, ok := l.index(e.Date); ok {
				inWindow = true
				break
			}
		}
		if inWindow {
			out[cat] = l.fill(list)
		}
	}
	return out, nil
}

// CategoryLabel 空类别返回 Uncategorized
func CategoryLabel(category string) string {
	if strings.TrimSpace(category) == "" {
		return Uncategorized
	}
	return category
}
