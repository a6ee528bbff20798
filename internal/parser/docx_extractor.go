package parser

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nguyenthenguyen/docx"
)

// 段落、换行和制表符在去标签前替换为对应的空白
var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxBreak        = regexp.MustCompile(`<w:(?:br|cr)\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
)

// DocxTextExtractor 从 Word 文档正文中提取纯文本
type DocxTextExtractor struct {
	policy *bluemonday.Policy
}

// NewDocxTextExtractor 创建 DOCX 提取器
func NewDocxTextExtractor() *DocxTextExtractor {
	return &DocxTextExtractor{policy: bluemonday.StrictPolicy()}
}

// ExtractText 实现 TextExtractor
func (d *DocxTextExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	if len(data) == 0 {
		return "", nil, ErrEmptyInput
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("读取DOCX %s 失败: %w", filename, err)
	}
	defer doc.Close()

	text := d.xmlToText(doc.Editable().GetContent())
	return text, map[string]interface{}{
		"source_file": filename,
		"format":      FormatDOCX,
		"text_length": len(text),
	}, nil
}

func (d *DocxTextExtractor) xmlToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxBreak.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")

	text := html.UnescapeString(d.policy.Sanitize(content))
	return strings.TrimSpace(text)
}

var _ TextExtractor = (*DocxTextExtractor)(nil)
