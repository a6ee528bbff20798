package storage

import (
	"context"
	"sync"
)

// MemorySink 进程内文档存储，用于测试和本地运行
type MemorySink struct {
	mu   sync.RWMutex
	docs map[string]map[string]interface{}
}

// NewMemorySink 创建内存存储
func NewMemorySink() *MemorySink {
	return &MemorySink{docs: make(map[string]map[string]interface{})}
}

// Set 实现 DocumentSink
func (m *MemorySink) Set(ctx context.Context, path DocumentPath, data map[string]interface{}) error {
	if err := path.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path.String()] = copyDocument(data)
	return nil
}

// Get 实现 DocumentReader
func (m *MemorySink) Get(ctx context.Context, path DocumentPath) (map[string]interface{}, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[path.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc), nil
}

// Len 已存储的文档数
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Close 实现 DocumentSink
func (m *MemorySink) Close() error {
	return nil
}

// copyDocument 复制顶层字段和字符串切片，调用方后续修改不影响已存储的数据
func copyDocument(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if s, ok := v.([]string); ok {
			v = append([]string{}, s...)
		}
		out[k] = v
	}
	return out
}

var (
	_ DocumentSink   = (*MemorySink)(nil)
	_ DocumentReader = (*MemorySink)(nil)
)
