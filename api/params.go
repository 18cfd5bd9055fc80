package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ledger/apperr"
	"ledger/blob"

	"github.com/gin-gonic/gin"
)

// maxImageSize 单张图片大小上限
const maxImageSize = 5 << 20

// parseID 解析路径中的 :id
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: 无效的ID", apperr.ErrInvalidInput)
	}
	return uint(id), nil
}

// queryInt 可选的整数参数，缺省返回 0
func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s 必须是整数", apperr.ErrInvalidPeriod, key)
	}
	return v, nil
}

// requiredYear 必填的年份参数
func requiredYear(c *gin.Context, key string) (int, error) {
	year, err := queryInt(c, key)
	if err != nil {
		return 0, err
	}
	if year == 0 {
		return 0, fmt.Errorf("%w: 缺少参数 %s", apperr.ErrInvalidPeriod, key)
	}
	return year, nil
}

// readImage 读取 multipart 中的 image 字段，未上传时返回 nil
func readImage(c *gin.Context) (*blob.File, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: 读取图片失败", apperr.ErrInvalidInput)
	}
	if fh.Size > maxImageSize {
		return nil, fmt.Errorf("%w: 图片不能超过 5MB", apperr.ErrInvalidInput)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: 读取图片失败", apperr.ErrInvalidInput)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: 读取图片失败", apperr.ErrInvalidInput)
	}
	return &blob.File{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
		Filename:    fh.Filename,
	}, nil
}
