// Package charts 把统计结果渲染成 PNG 图表
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"ledger/analytics"
	"ledger/money"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoData 没有可绘制的数据
var ErrNoData = errors.New("暂无数据")

const (
	barWidth   = 30
	barSpacing = 12
	minWidth   = 800
	height     = 480
)

// ChartGenerator 图表生成器
type ChartGenerator struct{}

// NewChartGenerator 创建图表生成器
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

func background() chart.Style {
	return chart.Style{
		Padding: chart.Box{
			Top:    40,
			Left:   20,
			Right:  20,
			Bottom: 20,
		},
		FillColor: chart.ColorWhite,
	}
}

// SpendingBar 按桶绘制柱状图，所有桶为 0 时仍输出一张空图
func (g *ChartGenerator) SpendingBar(title string, s analytics.Series) ([]byte, error) {
	if len(s.Labels) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, len(s.Labels))
	for i, label := range s.Labels {
		bars[i] = chart.Value{
			Label: label,
			Value: s.Data[i].Float64(),
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorBlue.WithAlpha(180),
			},
		}
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < minWidth {
		width = minWidth
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: background(),
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		Bars: bars,
	}
	// 全零时 go-chart 无法推导纵轴范围
	if s.Total().IsZero() {
		graph.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("渲染柱状图失败: %w", err)
	}
	return buffer.Bytes(), nil
}

// CategoryPie 各类别占比饼图，金额为 0 的类别不绘制
func (g *ChartGenerator) CategoryPie(title string, totals map[string]money.Money) ([]byte, error) {
	names := make([]string, 0, len(totals))
	total := money.Zero
	for name, amount := range totals {
		if amount.Sign() <= 0 {
			continue
		}
		names = append(names, name)
		total = total.Add(amount)
	}
	if len(names) == 0 {
		return nil, ErrNoData
	}
	sort.Strings(names)

	sum := total.Float64()
	values := make([]chart.Value, len(names))
	for i, name := range names {
		v := totals[name].Float64()
		values[i] = chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", name, totals[name].String(), v/sum*100),
			Value: v,
		}
	}

	pie := chart.PieChart{
		Title:      title,
		Width:      minWidth,
		Height:     minWidth,
		Values:     values,
		Background: background(),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("渲染饼图失败: %w", err)
	}
	return buffer.Bytes(), nil
}
