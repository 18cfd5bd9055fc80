package api

import (
	"ledger/middleware"
	"ledger/money"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// SavingHandler 储蓄处理器
type SavingHandler struct {
	ledger *service.Ledger
}

// NewSavingHandler 创建储蓄处理器
func NewSavingHandler(ledger *service.Ledger) *SavingHandler {
	return &SavingHandler{ledger: ledger}
}

// UpsertSavingRequest 设置储蓄请求，同月重复设置时覆盖
type UpsertSavingRequest struct {
	Month  string       `json:"month" binding:"required" example:"June"`
	Year   int          `json:"year" example:"2025"`
	Amount *money.Money `json:"amount" binding:"required" swaggertype:"number" example:"300.00"`
}

// Upsert 新增或覆盖某月储蓄
// @Summary 设置月度储蓄
// @Tags 储蓄
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpsertSavingRequest true "储蓄信息"
// @Success 200 {object} Response{data=models.Saving} "保存成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/savings [patch]
func (h *SavingHandler) Upsert(c *gin.Context) {
	var req UpsertSavingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	saving, err := h.ledger.UpsertSaving(c.Request.Context(), middleware.GetCurrentUserID(c), service.SavingInput{
		Month:  req.Month,
		Year:   req.Year,
		Amount: *req.Amount,
	})
	if err != nil {
		RespondError(c, err, "保存储蓄失败")
		return
	}
	SuccessWithMessage(c, "保存成功", saving)
}

// List 全部储蓄
// @Summary 获取储蓄列表
// @Tags 储蓄
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Saving} "获取成功"
// @Router /api/v1/savings [get]
func (h *SavingHandler) List(c *gin.Context) {
	savings, err := h.ledger.ListSavings(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "获取储蓄失败")
		return
	}
	Success(c, savings)
}

// ByMonthYear 某月储蓄
// @Summary 按月份查询储蓄
// @Tags 储蓄
// @Produce json
// @Security BearerAuth
// @Param month query string true "英文月份名"
// @Param year query int true "年份"
// @Success 200 {object} Response{data=models.Saving} "获取成功"
// @Failure 404 {object} Response "未设置储蓄"
// @Router /api/v1/savings/by-month-year [get]
func (h *SavingHandler) ByMonthYear(c *gin.Context) {
	year, err := requiredYear(c, "year")
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	saving, err := h.ledger.GetSaving(c.Request.Context(), middleware.GetCurrentUserID(c), c.Query("month"), year)
	if err != nil {
		RespondError(c, err, "获取储蓄失败")
		return
	}
	Success(c, saving)
}
