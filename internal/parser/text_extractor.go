// Package parser 负责从上传的简历文件中获取纯文本
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"resume-parser-go/internal/logger"
)

var (
	// ErrEmptyInput 上传内容为空
	ErrEmptyInput = errors.New("文件内容为空")
	// ErrUnsupportedFormat 无法识别的文件格式
	ErrUnsupportedFormat = errors.New("不支持的文件格式")
)

// 支持的文件格式
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatText = "text"
)

// TextExtractor 从文件字节中提取全文
// 返回: 按页顺序拼接的文本, 解析元数据, 错误
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error)
}

// DetectFormat 根据文件头判断格式，文件头无法区分时参考扩展名
func DetectFormat(data []byte, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	mime := http.DetectContentType(data)

	switch {
	case mime == "application/pdf":
		return FormatPDF
	case mime == "application/zip" && (ext == ".docx" || ext == ""):
		return FormatDOCX
	case strings.HasPrefix(mime, "text/plain") && ext != ".pdf" && ext != ".docx":
		return FormatText
	}
	return ""
}

// ContentType 格式对应的 MIME 类型，未知格式返回 application/octet-stream
func ContentType(format string) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// MultiFormatExtractor 按文件格式分派到具体的提取器
type MultiFormatExtractor struct {
	pdf    TextExtractor
	docx   TextExtractor
	logger zerolog.Logger
}

// MultiFormatOption MultiFormatExtractor 的配置选项
type MultiFormatOption func(*MultiFormatExtractor)

// WithDocxExtractor 启用 DOCX 支持
func WithDocxExtractor(e TextExtractor) MultiFormatOption {
	return func(m *MultiFormatExtractor) {
		m.docx = e
	}
}

// WithMultiFormatLogger 自定义日志
func WithMultiFormatLogger(l zerolog.Logger) MultiFormatOption {
	return func(m *MultiFormatExtractor) {
		m.logger = l
	}
}

// NewMultiFormatExtractor 创建多格式提取器，pdf 为必选
func NewMultiFormatExtractor(pdf TextExtractor, options ...MultiFormatOption) *MultiFormatExtractor {
	m := &MultiFormatExtractor{
		pdf:    pdf,
		logger: logger.Logger.With().Str("component", "text_extractor").Logger(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// ExtractText 实现 TextExtractor
func (m *MultiFormatExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	if len(data) == 0 {
		return "", nil, ErrEmptyInput
	}

	format := DetectFormat(data, filename)
	m.logger.Debug().Str("filename", filename).Str("format", format).Int("size", len(data)).Msg("识别文件格式")

	switch format {
	case FormatPDF:
		return m.pdf.ExtractText(ctx, data, filename)
	case FormatDOCX:
		if m.docx != nil {
			return m.docx.ExtractText(ctx, data, filename)
		}
	case FormatText:
		if utf8.Valid(data) {
			text := string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
			return text, map[string]interface{}{
				"source_file": filename,
				"format":      FormatText,
				"text_length": len(text),
			}, nil
		}
	}

	return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

var _ TextExtractor = (*MultiFormatExtractor)(nil)
