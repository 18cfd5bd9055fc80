package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 保存到本地目录，由路由以静态文件方式对外提供
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore dir 为存储目录，baseURL 为对外访问前缀（如 http://host/uploads）
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir 存储目录
func (s *LocalStore) Dir() string {
	return s.dir
}

// Upload 写入文件并返回访问 URL
func (s *LocalStore) Upload(ctx context.Context, f File, folder string) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", uploadFailed(err)
	}

	name := objectName(f, folder)
	target := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", uploadFailed(err)
	}
	if err := os.WriteFile(target, f.Data, 0o644); err != nil {
		return "", uploadFailed(err)
	}
	return s.baseURL + "/" + name, nil
}
