package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-parser-go/internal/logger"
)

// EinoPDFTextExtractor 使用 Eino PDF Parser 提取文本
type EinoPDFTextExtractor struct {
	parser  *pdf.PDFParser
	logger  zerolog.Logger
	timeout time.Duration
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(l zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		e.logger = l
	}
}

// WithEinoTimeout 单个文件的解析超时，<=0 表示不限制
func WithEinoTimeout(d time.Duration) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		e.timeout = d
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器
// 不按页面分割，整份文档作为一个连续文本返回
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Eino PDF 解析器失败: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser:  p,
		logger:  logger.Logger.With().Str("component", "eino_pdf").Logger(),
		timeout: 30 * time.Second,
	}
	for _, option := range options {
		option(extractor)
	}

	return extractor, nil
}

// ExtractText 实现 TextExtractor
func (e *EinoPDFTextExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	if len(data) == 0 {
		return "", nil, ErrEmptyInput
	}
	return e.ExtractTextFromReader(ctx, bytes.NewReader(data), filename)
}

// ExtractTextFromReader 从 io.Reader 中提取文本
func (e *EinoPDFTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]interface{}, error) {
	startTime := time.Now()
	extraMeta := map[string]interface{}{
		"source_file":     uri,
		"extraction_time": startTime.Format(time.RFC3339),
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(extraMeta),
	)
	duration := time.Since(startTime)
	if err != nil {
		e.logger.Error().Err(err).Str("uri", uri).Dur("duration", duration).Msg("PDF解析失败")
		return "", nil, fmt.Errorf("eino PDF 解析 %s 失败: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", nil, fmt.Errorf("eino PDF 解析 %s 无结果", uri)
	}

	// ToPages=false 时通常只有一个文档，多个时按顺序直接拼接
	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc.Content)
	}
	text := sb.String()

	metadata := make(map[string]interface{})
	if docs[0].MetaData != nil {
		for k, v := range docs[0].MetaData {
			metadata[k] = v
		}
	}
	for k, v := range extraMeta {
		metadata[k] = v
	}
	metadata["format"] = FormatPDF
	metadata["document_count"] = len(docs)
	metadata["text_length"] = len(text)
	metadata["processing_duration_ms"] = duration.Milliseconds()

	e.logger.Debug().Str("uri", uri).Int("text_length", len(text)).Dur("duration", duration).Msg("PDF提取完成")
	return text, metadata, nil
}

var _ TextExtractor = (*EinoPDFTextExtractor)(nil)
