package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"

	"ledger/middleware"
	"ledger/money"
	"ledger/period"
	"ledger/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const timeLayout = "2006-01-02 15:04:05"

// ExportHandler 导出处理器
type ExportHandler struct {
	ledger *service.Ledger
}

// NewExportHandler 创建导出处理器
func NewExportHandler(ledger *service.Ledger) *ExportHandler {
	return &ExportHandler{ledger: ledger}
}

// exportRange 导出的时间范围，end_time 当天整天包含在内
type exportRange struct {
	StartTime string `form:"start_time" binding:"required"`
	EndTime   string `form:"end_time" binding:"required"`
}

// load 解析时间范围并查询消费
func (h *ExportHandler) load(c *gin.Context) (*exportRange, *service.ExpenseList, bool) {
	var r exportRange
	if err := c.ShouldBindQuery(&r); err != nil {
		BadRequest(c, "请提供开始时间和结束时间")
		return nil, nil, false
	}
	loc := h.ledger.Location()
	start, err := period.ParseDate(r.StartTime, loc)
	if err != nil {
		RespondError(c, err, "参数错误")
		return nil, nil, false
	}
	end, err := period.ParseDate(r.EndTime, loc)
	if err != nil {
		RespondError(c, err, "参数错误")
		return nil, nil, false
	}
	start, _ = period.DayBounds(start)
	_, end = period.DayBounds(end)

	list, err := h.ledger.ExpensesBetween(c.Request.Context(), middleware.GetCurrentUserID(c), start, end)
	if err != nil {
		RespondError(c, err, "查询数据失败")
		return nil, nil, false
	}
	return &r, list, true
}

func totalOf(list *service.ExpenseList) money.Money {
	total := money.Zero
	for _, e := range list.Expenses {
		total = total.Add(e.Price)
	}
	return total
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
}

// ExportCSV 导出消费记录为 CSV
// @Summary 导出消费记录
// @Description 根据时间范围导出消费记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	r, list, ok := h.load(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	rows := [][]string{{"ID", "名称", "金额", "类别", "描述", "日期", "星期", "图片", "创建时间"}}
	for _, e := range list.Expenses {
		image := ""
		if e.ImageURL != nil {
			image = *e.ImageURL
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.ID),
			e.Name,
			e.Price.String(),
			e.Category,
			e.Description,
			e.Date.Format(timeLayout),
			e.Day,
			image,
			e.CreatedAt.Format(timeLayout),
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	attachment(c, fmt.Sprintf("expenses_%s_%s.csv", r.StartTime, r.EndTime))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSONResponse JSON 导出结果
type ExportJSONResponse struct {
	StartTime   string                `json:"start_time"`
	EndTime     string                `json:"end_time"`
	TotalCount  int                   `json:"total_count"`
	TotalAmount money.Money           `json:"total_amount" swaggertype:"number"`
	Expenses    []service.ExpenseView `json:"expenses"`
}

// ExportJSON 导出消费记录为 JSON
// @Summary 导出消费记录为 JSON
// @Description 根据时间范围导出消费记录为 JSON 格式
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {object} Response{data=ExportJSONResponse} "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	r, list, ok := h.load(c)
	if !ok {
		return
	}
	Success(c, ExportJSONResponse{
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		TotalCount:  list.Total,
		TotalAmount: totalOf(list),
		Expenses:    list.Expenses,
	})
}

// ExportExcel 导出消费记录为 Excel
// @Summary 导出消费记录为 Excel
// @Description 根据时间范围导出消费记录为 xlsx 文件，末行为合计
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	r, list, ok := h.load(c)
	if !ok {
		return
	}

	buf, err := expensesWorkbook(list)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 Excel 失败"))
		return
	}
	attachment(c, fmt.Sprintf("消费记录_%s_%s.xlsx", r.StartTime, r.EndTime))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func expensesWorkbook(list *service.ExpenseList) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "消费记录"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: center,
		Border:    border,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{Alignment: center, Border: border})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: center,
		Border:    border,
	})

	widths := map[string]float64{"A": 8, "B": 20, "C": 12, "D": 14, "E": 30, "F": 20, "G": 12}
	for col, w := range widths {
		f.SetColWidth(sheetName, col, col, w)
	}

	headers := []string{"ID", "名称", "金额", "类别", "描述", "日期", "星期"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, e := range list.Expenses {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), e.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), e.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), e.Price.Float64())
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), e.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), e.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), e.Date.Format(timeLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), e.Day)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)
	}

	summaryRow := len(list.Expenses) + 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("B%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", summaryRow), totalOf(list).Float64())
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("共 %d 条记录", list.Total))
	f.MergeCell(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("G%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	return f.WriteToBuffer()
}

