package api

import (
	"ledger/middleware"
	"ledger/money"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// BudgetHandler 预算处理器
type BudgetHandler struct {
	ledger *service.Ledger
}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler(ledger *service.Ledger) *BudgetHandler {
	return &BudgetHandler{ledger: ledger}
}

// SetBudgetRequest 设置预算请求，同月重复设置时金额累加
type SetBudgetRequest struct {
	Month  int          `json:"month" example:"6"`
	Year   int          `json:"year" example:"2025"`
	Amount *money.Money `json:"amount" binding:"required" swaggertype:"number" example:"1500.00"`
}

// Set 设置预算
// @Summary 设置月度预算
// @Description 同一月份重复设置时金额累加，month 取值 1-12
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "设置成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "并发写入冲突"
// @Router /api/v1/budget [post]
func (h *BudgetHandler) Set(c *gin.Context) {
	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	budget, err := h.ledger.SetBudget(c.Request.Context(), middleware.GetCurrentUserID(c), service.BudgetInput{
		Month:  req.Month,
		Year:   req.Year,
		Amount: *req.Amount,
	})
	if err != nil {
		RespondError(c, err, "设置预算失败")
		return
	}
	SuccessWithMessage(c, "设置成功", budget)
}

// Status 预算执行情况
// @Summary 查询预算执行情况
// @Description 未设置预算时返回提示信息，spent 与 remaining 为 0
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month query int true "月份 1-12"
// @Param year query int true "年份"
// @Success 200 {object} Response{data=service.BudgetStatus} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/budget/status [get]
func (h *BudgetHandler) Status(c *gin.Context) {
	month, err := queryInt(c, "month")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	year, err := requiredYear(c, "year")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	status, err := h.ledger.BudgetStatus(c.Request.Context(), middleware.GetCurrentUserID(c), month, year)
	if err != nil {
		RespondError(c, err, "查询预算失败")
		return
	}
	Success(c, status)
}
