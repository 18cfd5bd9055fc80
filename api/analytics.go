package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ledger/analytics"
	"ledger/charts"
	"ledger/middleware"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 支出统计处理器
type AnalyticsHandler struct {
	ledger *service.Ledger
	charts *charts.ChartGenerator
}

// NewAnalyticsHandler 创建支出统计处理器
func NewAnalyticsHandler(ledger *service.Ledger, gen *charts.ChartGenerator) *AnalyticsHandler {
	return &AnalyticsHandler{ledger: ledger, charts: gen}
}

type seriesFunc func(ctx context.Context, userID uint, p service.Period) (analytics.Series, error)

type crossTabFunc func(ctx context.Context, userID uint, p service.Period) (analytics.CrossTab, error)

// periodQuery 读取可选的 year、month 参数
func periodQuery(c *gin.Context) (service.Period, error) {
	year, err := queryInt(c, "year")
	if err != nil {
		return service.Period{}, err
	}
	month, err := queryInt(c, "month")
	if err != nil {
		return service.Period{}, err
	}
	return service.Period{Year: year, Month: month}, nil
}

func (h *AnalyticsHandler) series(c *gin.Context, fn seriesFunc) {
	p, err := periodQuery(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	s, err := fn(c.Request.Context(), middleware.GetCurrentUserID(c), p)
	if err != nil {
		RespondError(c, err, "统计失败")
		return
	}
	Success(c, s)
}

// crossTab 周、月输出 {类别: [金额]}，日、年输出 {类别: {标签: 金额}}
func (h *AnalyticsHandler) crossTab(c *gin.Context, g analytics.Granularity, fn crossTabFunc) {
	p, err := periodQuery(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	tab, err := fn(c.Request.Context(), middleware.GetCurrentUserID(c), p)
	if err != nil {
		RespondError(c, err, "统计失败")
		return
	}
	Success(c, tab.Shape(g))
}

// Daily 某月每天的支出
// @Summary 每日支出
// @Description 默认当前月份，返回该月每一天的支出
// @Tags 支出统计
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份"
// @Param month query int false "月份 1-12"
// @Success 200 {object} Response{data=analytics.Series} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses/analytics/daily [get]
func (h *AnalyticsHandler) Daily(c *gin.Context) {
	h.series(c, h.ledger.DailySpending)
}

// Weekly 某月每周的支出
// @Summary 每周支出
// @Tags 支出统计
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份"
// @Param month query int false "月份 1-12"
// @Success 200 {object} Response{data=analytics.Series} "获取成功"
// @Router /api/v1/expenses/analytics/weekly [get]
func (h *AnalyticsHandler) Weekly(c *gin.Context) {
	h.series(c, h.ledger.WeeklySpending)
}

// Monthly 某年每月的支出
// @Summary 每月支出
// @Tags 支出统计
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份"
// @Success 200 {object} Response{data=analytics.Series} "获取成功"
// @Router /api/v1/expenses/analytics/monthly [get]
func (h *AnalyticsHandler) Monthly(c *gin.Context) {
	h.series(c, h.ledger.MonthlySpending)
}

// Yearly 每年的支出
// @Summary 每年支出
// @Tags 支出统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=analytics.Series} "获取成功"
// @Router /api/v1/expenses/analytics/yearly [get]
func (h *AnalyticsHandler) Yearly(c *gin.Context) {
	s, err := h.ledger.YearlySpending(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "统计失败")
		return
	}
	Success(c, s)
}

// DailyCategory 某月每天各类别的支出
// @Summary 每日分类支出
// @Tags 支出统计
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份"
// @Param month query int false "月份 1-12"
// @Success 200 {object} Response{data=map[string]map[string]number} "获取成功"
// @Router /api/v1/expenses/analytics/daily-category [get]
func (h *AnalyticsHandler) DailyCategory(c *gin.Context) {
	h.crossTab(c, analytics.Day, h.ledger.DailyByCategory)
}

// WeeklyCategory 某月每周各类别的支出
// @Summary 每周分类支出
// @Tags 支出统计
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份"
// @Param month query int false "月份 1-12"
// @Success 200 {object} Response{data=map[string][]number} "获取成功"
// @Router /api/v1/expenses/analytics/weekly-category [get]
func (h *AnalyticsHandler) WeeklyCategory(c *gin.Context) {
	h.crossTab(c, analytics.Week, h.ledger.WeeklyByCategory)
}

// MonthlyCategory 某年每月各类别的支出
// @Summary 每月分类支出
// @Tags 支出统计
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份"
// @Success 200 {object} Response{data=map[string][]number} "获取成功"
// @Router /api/v1/expenses/analytics/monthly-category [get]
func (h *AnalyticsHandler) MonthlyCategory(c *gin.Context) {
	h.crossTab(c, analytics.Month, h.ledger.MonthlyByCategory)
}

// YearlyCategory 每年各类别的支出
// @Summary 每年分类支出
// @Tags 支出统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=map[string]map[string]number} "获取成功"
// @Router /api/v1/expenses/analytics/yearly-category [get]
func (h *AnalyticsHandler) YearlyCategory(c *gin.Context) {
	tab, err := h.ledger.YearlyByCategory(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "统计失败")
		return
	}
	Success(c, tab.Shape(analytics.Year))
}

// MonthlyChart 某年每月支出柱状图
// @Summary 每月支出柱状图
// @Tags 支出统计
// @Produce png
// @Security BearerAuth
// @Param year query int false "年份"
// @Success 200 {file} binary "PNG 图片"
// @Router /api/v1/expenses/analytics/monthly/chart [get]
func (h *AnalyticsHandler) MonthlyChart(c *gin.Context) {
	p, err := periodQuery(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	s, err := h.ledger.MonthlySpending(c.Request.Context(), middleware.GetCurrentUserID(c), p)
	if err != nil {
		RespondError(c, err, "统计失败")
		return
	}
	title := "Monthly spending"
	if p.Year != 0 {
		title += " " + strconv.Itoa(p.Year)
	}
	img, err := h.charts.SpendingBar(title, s)
	h.writePNG(c, img, err)
}

// CategoryChart 某月各类别占比饼图
// @Summary 类别占比饼图
// @Tags 支出统计
// @Produce png
// @Security BearerAuth
// @Param month query string true "英文月份名"
// @Param year query int true "年份"
// @Success 200 {file} binary "PNG 图片"
// @Failure 404 {object} Response "暂无数据"
// @Router /api/v1/expenses/analytics/category/chart [get]
func (h *AnalyticsHandler) CategoryChart(c *gin.Context) {
	year, err := requiredYear(c, "year")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	summary, err := h.ledger.MonthlySummary(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("month"), year)
	if err != nil {
		RespondError(c, err, "统计失败")
		return
	}
	img, err := h.charts.CategoryPie(fmt.Sprintf("%s %d", summary.Month, summary.Year), summary.ByCategory)
	h.writePNG(c, img, err)
}

func (h *AnalyticsHandler) writePNG(c *gin.Context, img []byte, err error) {
	if errors.Is(err, charts.ErrNoData) {
		NotFound(c, err.Error())
		return
	}
	if err != nil {
		RespondError(c, err, "生成图表失败")
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
