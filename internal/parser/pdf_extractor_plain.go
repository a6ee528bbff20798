package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PlainPDFTextExtractor 基于 ledongthuc/pdf 逐页提取纯文本
type PlainPDFTextExtractor struct{}

// NewPlainPDFTextExtractor 创建逐页提取器
func NewPlainPDFTextExtractor() *PlainPDFTextExtractor {
	return &PlainPDFTextExtractor{}
}

// ExtractText 实现 TextExtractor，各页文本按页序直接拼接
func (p *PlainPDFTextExtractor) ExtractText(ctx context.Context, data []byte, filename string) (text string, metadata map[string]interface{}, err error) {
	if len(data) == 0 {
		return "", nil, ErrEmptyInput
	}

	// ledongthuc/pdf 遇到损坏的交叉引用表会 panic
	defer func() {
		if r := recover(); r != nil {
			text, metadata = "", nil
			err = fmt.Errorf("解析PDF %s 失败: %v", filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("读取PDF %s 失败: %w", filename, err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", nil, fmt.Errorf("提取PDF %s 第 %d 页失败: %w", filename, i, err)
		}
		sb.WriteString(content)
	}

	text = sb.String()
	return text, map[string]interface{}{
		"source_file": filename,
		"format":      FormatPDF,
		"page_count":  numPages,
		"text_length": len(text),
	}, nil
}

var _ TextExtractor = (*PlainPDFTextExtractor)(nil)
