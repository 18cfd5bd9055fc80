// Package blob 消费记录图片的存储，支持本地目录和 Google Cloud Storage
package blob

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"ledger/apperr"

	"github.com/google/uuid"
)

// File 待上传的文件
type File struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Uploader 上传文件并返回可访问的 URL，失败时返回包装了 apperr.ErrUploadFailed 的错误
type Uploader interface {
	Upload(ctx context.Context, f File, folder string) (string, error)
}

// imageExt 允许上传的图片类型及对应扩展名
var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectContentType 按文件内容嗅探类型，忽略客户端声明的 Content-Type
func (f File) DetectContentType() string {
	ct := http.DetectContentType(f.Data)
	return strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
}

// Validate 只接受非空的 jpeg、png、gif、webp 图片
func (f File) Validate() error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: 文件为空", apperr.ErrInvalidInput)
	}
	if _, ok := imageExt[f.DetectContentType()]; !ok {
		return fmt.Errorf("%w: 只支持上传 jpg、png、gif、webp 图片", apperr.ErrInvalidInput)
	}
	return nil
}

// objectName 生成 folder/uuid.ext 形式的对象名，扩展名只取决于嗅探出的类型
func objectName(f File, folder string) string {
	name := uuid.NewString() + imageExt[f.DetectContentType()]
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func uploadFailed(err error) error {
	return fmt.Errorf("%w: %v", apperr.ErrUploadFailed, err)
}
