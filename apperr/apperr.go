// Package apperr 定义各层共享的错误类型，调用方通过 errors.Is 判断
package apperr

import "errors"

var (
	// ErrInvalidMonth 无法识别的月份名称或月份序号
	ErrInvalidMonth = errors.New("无效的月份")
	// ErrInvalidPeriod 日期、年份或时间范围格式错误
	ErrInvalidPeriod = errors.New("无效的时间范围")
	// ErrInvalidInput 其它请求字段校验失败（名称、金额等）
	ErrInvalidInput = errors.New("参数错误")
	// ErrNotFound 当前用户下不存在该记录
	ErrNotFound = errors.New("记录不存在")
	// ErrConflict 唯一约束冲突，调用方可重试
	ErrConflict = errors.New("记录冲突，请重试")
	// ErrUploadFailed 图片上传失败
	ErrUploadFailed = errors.New("图片上传失败")
	// ErrUnauthorized 未登录或凭证无效
	ErrUnauthorized = errors.New("未授权")
)
