package extractor

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// KeywordSet 小写技能关键词集合，抽取期间只读
type KeywordSet map[string]struct{}

// NewKeywordSet 由关键词列表构造集合，统一去空白并转为小写
func NewKeywordSet(words ...string) KeywordSet {
	set := make(KeywordSet, len(words))
	for _, w := range words {
		set.add(w)
	}
	return set
}

func (s KeywordSet) add(word string) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w != "" {
		s[w] = struct{}{}
	}
}

// Contains 判断小写关键词是否在集合中
func (s KeywordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Len 集合大小
func (s KeywordSet) Len() int {
	return len(s)
}

// ErrEmptyKeywordPath 未配置关键词文件
var ErrEmptyKeywordPath = errors.New("关键词文件路径为空")

// LoadKeywords 从文件加载关键词，.xlsx 读取第一个工作表的第一列，其余按 CSV 读取每行第一个字段
func LoadKeywords(path string) (KeywordSet, error) {
	if path == "" {
		return nil, ErrEmptyKeywordPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取关键词文件 %s 失败: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadKeywordsXLSX(bytes.NewReader(data))
	}
	return ReadKeywordsCSV(bytes.NewReader(data))
}

// ReadKeywordsCSV 读取分隔文本，每行第一个字段为关键词，列数不固定
func ReadKeywordsCSV(r io.Reader) (KeywordSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	set := make(KeywordSet)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析关键词CSV失败: %w", err)
		}
		if len(row) > 0 {
			set.add(row[0])
		}
	}
	return set, nil
}

// ReadKeywordsXLSX 读取工作簿第一个工作表的第一列
func ReadKeywordsXLSX(r io.Reader) (KeywordSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开关键词工作簿失败: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return make(KeywordSet), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheets[0], err)
	}

	set := make(KeywordSet)
	for _, row := range rows {
		if len(row) > 0 {
			set.add(row[0])
		}
	}
	return set, nil
}

// KeywordProvider 为每次请求提供关键词集合
type KeywordProvider interface {
	Keywords(ctx context.Context) (KeywordSet, error)
}

// StaticKeywords 固定的关键词集合
type StaticKeywords struct {
	set KeywordSet
}

// NewStaticKeywords 创建固定集合的提供者
func NewStaticKeywords(set KeywordSet) *StaticKeywords {
	if set == nil {
		set = make(KeywordSet)
	}
	return &StaticKeywords{set: set}
}

// Keywords 实现 KeywordProvider
func (s *StaticKeywords) Keywords(ctx context.Context) (KeywordSet, error) {
	return s.set, nil
}

// FileKeywords 从文件加载关键词
// reload 为真时每次请求重新读取文件，否则首次加载后缓存
type FileKeywords struct {
	path   string
	reload bool

	mu     sync.Mutex
	cached KeywordSet
}

// NewFileKeywords 创建文件关键词提供者
func NewFileKeywords(path string, reload bool) *FileKeywords {
	return &FileKeywords{path: path, reload: reload}
}

// Keywords 实现 KeywordProvider
func (f *FileKeywords) Keywords(ctx context.Context) (KeywordSet, error) {
	if f.reload {
		return LoadKeywords(f.path)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil {
		return f.cached, nil
	}
	set, err := LoadKeywords(f.path)
	if err != nil {
		return nil, err
	}
	f.cached = set
	return set, nil
}

var (
	_ KeywordProvider = (*StaticKeywords)(nil)
	_ KeywordProvider = (*FileKeywords)(nil)
)
