package api

import (
	"errors"
	"net/http"

	"ledger/apperr"

	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// statusOf 错误类型对应的 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidMonth),
		errors.Is(err, apperr.ErrInvalidPeriod),
		errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// RespondError 按错误类型返回对应状态码。
// 业务错误的消息直接返回，内部错误在 release 模式下只返回 fallback
func RespondError(c *gin.Context, err error, fallback string) {
	code := statusOf(err)
	_ = c.Error(err)
	if code >= http.StatusInternalServerError {
		if code == http.StatusBadGateway {
			fallback = apperr.ErrUploadFailed.Error()
		}
		Error(c, code, SafeErrorMessage(err, fallback))
		return
	}
	Error(c, code, err.Error())
}
