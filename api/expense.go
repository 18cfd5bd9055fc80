package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ledger/apperr"
	"ledger/middleware"
	"ledger/money"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct {
	ledger *service.Ledger
}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler(ledger *service.Ledger) *ExpenseHandler {
	return &ExpenseHandler{ledger: ledger}
}

// CreateExpenseRequest 新增消费请求（multipart/form-data，可附带 image 文件）
type CreateExpenseRequest struct {
	Name        string `form:"name" binding:"required" example:"午餐"`
	Description string `form:"description" example:"公司楼下"`
	Price       string `form:"price" binding:"required" example:"25.50"`
	Date        string `form:"date" binding:"required" example:"2025-06-15"`
	Category    string `form:"category" example:"Food"`
	Day         string `form:"day" example:"Sunday"`
}

// UpdateExpenseRequest 修改消费请求，未传的字段保持不变
type UpdateExpenseRequest struct {
	Name        *string `form:"name" example:"晚餐"`
	Description *string `form:"description"`
	Price       *string `form:"price" example:"30"`
	Date        *string `form:"date" example:"2025-06-16"`
	Category    *string `form:"category" example:"Food"`
}

func parsePrice(s string) (money.Money, error) {
	m, err := money.Parse(strings.TrimSpace(s))
	switch {
	case errors.Is(err, money.ErrPrecision), errors.Is(err, money.ErrOverflow):
		return money.Money{}, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	case err != nil:
		return money.Money{}, fmt.Errorf("%w: 金额格式错误", apperr.ErrInvalidInput)
	}
	return m, nil
}

// Create 新增消费
// @Summary 新增消费
// @Description 新增一条消费记录，可选上传一张图片
// @Tags 消费记录
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "名称"
// @Param description formData string false "描述"
// @Param price formData string true "金额"
// @Param date formData string true "日期 (2025-06-15)"
// @Param category formData string false "类别"
// @Param day formData string false "星期，需与日期一致"
// @Param image formData file false "图片"
// @Success 201 {object} Response{data=service.ExpenseView} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 502 {object} Response "图片上传失败"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	file, err := readImage(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}

	expense, err := h.ledger.AddExpense(c.Request.Context(), userID, service.ExpenseInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Date:        req.Date,
		Category:    req.Category,
		Day:         req.Day,
	}, file)
	if err != nil {
		RespondError(c, err, "创建消费记录失败")
		return
	}
	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Message: "创建成功", Data: expense})
}

// Update 修改消费
// @Summary 修改消费
// @Description 部分更新消费记录，可替换图片
// @Tags 消费记录
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费ID"
// @Param name formData string false "名称"
// @Param description formData string false "描述"
// @Param price formData string false "金额"
// @Param date formData string false "日期 (2025-06-15)"
// @Param category formData string false "类别"
// @Param image formData file false "图片"
// @Success 200 {object} Response{data=service.ExpenseView} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [patch]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := parseID(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	in := service.ExpenseUpdate{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Category:    req.Category,
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			RespondError(c, err, "参数错误")
			return
		}
		in.Price = &price
	}
	file, err := readImage(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}

	expense, err := h.ledger.UpdateExpense(c.Request.Context(), userID, id, in, file)
	if err != nil {
		RespondError(c, err, "更新消费记录失败")
		return
	}
	SuccessWithMessage(c, "更新成功", expense)
}

// List 全部消费
// @Summary 获取消费列表
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.ExpenseList} "获取成功"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	list, err := h.ledger.ListExpenses(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "获取消费记录失败")
		return
	}
	Success(c, list)
}

// Get 单条消费
// @Summary 获取消费详情
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费ID"
// @Success 200 {object} Response{data=service.ExpenseView} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	expense, err := h.ledger.GetExpense(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		RespondError(c, err, "获取消费记录失败")
		return
	}
	Success(c, expense)
}

// Delete 删除消费
// @Summary 删除消费
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	if err := h.ledger.DeleteExpense(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		RespondError(c, err, "删除消费记录失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Categories 用过的类别
// @Summary 获取类别列表
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]string} "获取成功"
// @Router /api/v1/expenses/categories [get]
func (h *ExpenseHandler) Categories(c *gin.Context) {
	categories, err := h.ledger.Categories(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "获取类别失败")
		return
	}
	Success(c, categories)
}

// Filter 按类别筛选
// @Summary 按类别筛选消费
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param category query string true "类别"
// @Success 200 {object} Response{data=service.CategoryExpenses} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses/filter [get]
func (h *ExpenseHandler) Filter(c *gin.Context) {
	result, err := h.ledger.FilterByCategory(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("category"))
	if err != nil {
		RespondError(c, err, "获取消费记录失败")
		return
	}
	Success(c, result)
}

// ByMonthYear 某月的消费
// @Summary 按月份查询消费
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param month query string true "英文月份名 (June)"
// @Param year query int true "年份"
// @Success 200 {object} Response{data=service.MonthExpenses} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses/by-month-year [get]
func (h *ExpenseHandler) ByMonthYear(c *gin.Context) {
	year, err := requiredYear(c, "year")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	result, err := h.ledger.ExpensesByMonth(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("month"), year)
	if err != nil {
		RespondError(c, err, "获取消费记录失败")
		return
	}
	Success(c, result)
}

// ByYear 某年的消费
// @Summary 按年份查询消费
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param year query int true "年份"
// @Success 200 {object} Response{data=service.YearExpenses} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses/by-year [get]
func (h *ExpenseHandler) ByYear(c *gin.Context) {
	year, err := requiredYear(c, "year")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	result, err := h.ledger.ExpensesByYear(c.Request.Context(), middleware.GetCurrentUserID(c), year)
	if err != nil {
		RespondError(c, err, "获取消费记录失败")
		return
	}
	Success(c, result)
}

// ByDate 某天的消费
// @Summary 按日期查询消费
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param date query string true "日期 (2025-06-15)"
// @Success 200 {object} Response{data=service.DateExpenses} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses/by-date [get]
func (h *ExpenseHandler) ByDate(c *gin.Context) {
	result, err := h.ledger.ExpensesByDate(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("date"))
	if err != nil {
		RespondError(c, err, "获取消费记录失败")
		return
	}
	Success(c, result)
}

// MonthlySummary 月度汇总
// @Summary 月度汇总
// @Description 某月总金额、笔数以及各类别金额
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param month query string true "英文月份名"
// @Param year query int true "年份"
// @Success 200 {object} Response{data=service.MonthlySummary} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses/monthly-summary [get]
func (h *ExpenseHandler) MonthlySummary(c *gin.Context) {
	year, err := requiredYear(c, "year")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	summary, err := h.ledger.MonthlySummary(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("month"), year)
	if err != nil {
		RespondError(c, err, "获取月度汇总失败")
		return
	}
	Success(c, summary)
}

// CompareMonthly 两个月份的支出对比
// @Summary 月度对比
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param currentMonth query string true "当前月份"
// @Param currentYear query int true "当前年份"
// @Param compareMonth query string true "对比月份"
// @Param compareYear query int true "对比年份"
// @Success 200 {object} Response{data=analytics.Comparison} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses/compare-monthly [get]
func (h *ExpenseHandler) CompareMonthly(c *gin.Context) {
	curYear, err := requiredYear(c, "currentYear")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	cmpYear, err := requiredYear(c, "compareYear")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	result, err := h.ledger.CompareMonthly(c.Request.Context(), middleware.GetCurrentUserID(c),
		c.Query("currentMonth"), curYear, c.Query("compareMonth"), cmpYear)
	if err != nil {
		RespondError(c, err, "月度对比失败")
		return
	}
	Success(c, result)
}
