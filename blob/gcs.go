package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

// GCSStore 上传到 Google Cloud Storage 存储桶
type GCSStore struct {
	svc    *storage.Service
	bucket string
}

// NewGCSStore credentialsFile 为空时使用 Application Default Credentials
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("未配置 blob.bucket")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(storage.DevstorageReadWriteScope))

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 GCS 客户端失败: %w", err)
	}
	slog.InfoContext(ctx, "GCS 存储已初始化", "bucket", bucket)
	return &GCSStore{svc: svc, bucket: bucket}, nil
}

// Upload 上传对象并返回公开访问地址
func (s *GCSStore) Upload(ctx context.Context, f File, folder string) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}

	obj := &storage.Object{
		Name:        objectName(f, folder),
		ContentType: f.DetectContentType(),
	}
	res, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(f.Data), googleapi.ContentType(obj.ContentType)).
		Context(ctx).
		Do()
	if err != nil {
		slog.ErrorContext(ctx, "GCS 上传失败", "bucket", s.bucket, "object", obj.Name, "error", err)
		return "", uploadFailed(err)
	}
	return publicURL(s.bucket, res.Name), nil
}

func publicURL(bucket, name string) string {
	u := url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + bucket + "/" + name}
	return u.String()
}
