package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"resume-parser-go/internal/config"
)

// FirestoreSink 将文档写入 Cloud Firestore
type FirestoreSink struct {
	client *firestore.Client
}

// NewFirestoreSink 使用服务账号凭据创建 Firestore 客户端
// 未配置 project_id 时从凭据或运行环境推断
func NewFirestoreSink(ctx context.Context, cfg config.FirestoreConfig) (*FirestoreSink, error) {
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建Firestore客户端失败: %w", err)
	}
	return &FirestoreSink{client: client}, nil
}

// NewFirestoreSinkFromClient 使用已有客户端
func NewFirestoreSinkFromClient(client *firestore.Client) *FirestoreSink {
	return &FirestoreSink{client: client}
}

// docRef 将层级路径映射为 Collection/Doc 链
func (s *FirestoreSink) docRef(path DocumentPath) (*firestore.DocumentRef, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	ref := s.client.Collection(path[0]).Doc(path[1])
	for i := 2; i < len(path); i += 2 {
		ref = ref.Collection(path[i]).Doc(path[i+1])
	}
	return ref, nil
}

// Set 实现 DocumentSink，整体覆盖已有文档
func (s *FirestoreSink) Set(ctx context.Context, path DocumentPath, data map[string]interface{}) error {
	ref, err := s.docRef(path)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, data); err != nil {
		return fmt.Errorf("写入Firestore文档 %s 失败: %w", path, err)
	}
	return nil
}

// Get 实现 DocumentReader
func (s *FirestoreSink) Get(ctx context.Context, path DocumentPath) (map[string]interface{}, error) {
	ref, err := s.docRef(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取Firestore文档 %s 失败: %w", path, err)
	}
	return snap.Data(), nil
}

// Close 实现 DocumentSink
func (s *FirestoreSink) Close() error {
	return s.client.Close()
}

var (
	_ DocumentSink   = (*FirestoreSink)(nil)
	_ DocumentReader = (*FirestoreSink)(nil)
)
