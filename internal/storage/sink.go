package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// 简历文档在层级存储中的位置 users/{userId}/ResumeDetails/resume
const (
	UsersCollection         = "users"
	ResumeDetailsCollection = "ResumeDetails"
	ResumeDocumentID        = "resume"
)

var (
	// ErrNotFound 文档不存在
	ErrNotFound = errors.New("文档不存在")
	// ErrInvalidPath 文档路径不合法
	ErrInvalidPath = errors.New("文档路径不合法")
)

// DocumentPath 层级文档路径，按 集合/文档/集合/文档 交替排列
type DocumentPath []string

// ResumeDocumentPath 用户简历解析结果的固定位置
func ResumeDocumentPath(userID string) DocumentPath {
	return DocumentPath{UsersCollection, userID, ResumeDetailsCollection, ResumeDocumentID}
}

// String 以 / 连接的路径
func (p DocumentPath) String() string {
	return strings.Join(p, "/")
}

// Validate 路径必须是非空的偶数段，且每段非空、不含 /
func (p DocumentPath) Validate() error {
	if len(p) == 0 || len(p)%2 != 0 {
		return fmt.Errorf("%w: 段数为 %d", ErrInvalidPath, len(p))
	}
	for i, seg := range p {
		if seg == "" || strings.Contains(seg, "/") {
			return fmt.Errorf("%w: 第 %d 段 %q", ErrInvalidPath, i, seg)
		}
	}
	return nil
}

// DocumentSink 层级文档存储，Set 为整体覆盖写入，不做合并
type DocumentSink interface {
	Set(ctx context.Context, path DocumentPath, data map[string]interface{}) error
	Close() error
}

// DocumentReader 读取已写入的文档
type DocumentReader interface {
	Get(ctx context.Context, path DocumentPath) (map[string]interface{}, error)
}
