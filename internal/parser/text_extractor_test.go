package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF 生成每页一段文本的最小 PDF，交叉引用表偏移量按实际写入位置计算
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}
	objects = append(objects,
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// buildDocx 生成只包含正文的最小 Word 文档
func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatPDF, DetectFormat(buildPDF(t, "x"), "resume.pdf"))
	assert.Equal(t, FormatPDF, DetectFormat(buildPDF(t, "x"), "upload"))
	assert.Equal(t, FormatDOCX, DetectFormat(buildDocx(t, "x"), "resume.docx"))
	assert.Equal(t, "", DetectFormat(buildDocx(t, "x"), "archive.zip"))
	assert.Equal(t, FormatText, DetectFormat([]byte("Jane Doe\nPython"), "resume.txt"))
	assert.Equal(t, "", DetectFormat([]byte("Jane Doe"), "resume.pdf"), "扩展名为pdf但内容不是PDF")
}

func TestPlainPDFTextExtractor(t *testing.T) {
	e := NewPlainPDFTextExtractor()

	text, meta, err := e.ExtractText(context.Background(), buildPDF(t, "Jane Doe", "Stanford University"), "resume.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Stanford University")
	assert.Less(t, strings.Index(text, "Jane Doe"), strings.Index(text, "Stanford University"), "页面按顺序拼接")
	assert.Equal(t, 2, meta["page_count"])
	assert.Equal(t, "resume.pdf", meta["source_file"])
}

func TestPlainPDFTextExtractorRejectsGarbage(t *testing.T) {
	e := NewPlainPDFTextExtractor()

	_, _, err := e.ExtractText(context.Background(), []byte("this is not a pdf at all"), "bad.pdf")
	assert.Error(t, err)

	_, _, err = e.ExtractText(context.Background(), nil, "empty.pdf")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEinoPDFTextExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	e, err := NewEinoPDFTextExtractor(ctx, WithEinoTimeout(5*time.Second))
	require.NoError(t, err)
	require.NotNil(t, e.parser)

	text, meta, err := e.ExtractText(ctx, buildPDF(t, "John Smith Doe"), "resume.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "John Smith Doe")
	assert.Equal(t, "resume.pdf", meta["source_file"])
	assert.Equal(t, len(text), meta["text_length"])

	_, _, err = e.ExtractText(ctx, []byte("garbage bytes"), "bad.pdf")
	assert.Error(t, err)

	_, _, err = e.ExtractText(ctx, nil, "empty.pdf")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestDocxTextExtractor(t *testing.T) {
	e := NewDocxTextExtractor()

	text, meta, err := e.ExtractText(context.Background(), buildDocx(t, "Jane Doe", "Python &amp; SQL"), "resume.docx")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nPython & SQL", text)
	assert.Equal(t, FormatDOCX, meta["format"])

	_, _, err = e.ExtractText(context.Background(), []byte("not a zip"), "bad.docx")
	assert.Error(t, err)
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	f.calls++
	if f.err != nil {
		return "", nil, f.err
	}
	return f.text, map[string]interface{}{"source_file": filename}, nil
}

func TestMultiFormatExtractorDispatch(t *testing.T) {
	pdf := &fakeExtractor{text: "from pdf"}
	word := &fakeExtractor{text: "from docx"}
	m := NewMultiFormatExtractor(pdf, WithDocxExtractor(word))
	ctx := context.Background()

	text, _, err := m.ExtractText(ctx, buildPDF(t, "x"), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "from pdf", text)

	text, _, err = m.ExtractText(ctx, buildDocx(t, "x"), "a.docx")
	require.NoError(t, err)
	assert.Equal(t, "from docx", text)

	text, meta, err := m.ExtractText(ctx, []byte("\xef\xbb\xbfplain resume"), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain resume", text)
	assert.Equal(t, FormatText, meta["format"])

	assert.Equal(t, 1, pdf.calls)
	assert.Equal(t, 1, word.calls)
}

func TestMultiFormatExtractorErrors(t *testing.T) {
	m := NewMultiFormatExtractor(&fakeExtractor{})
	ctx := context.Background()

	_, _, err := m.ExtractText(ctx, nil, "a.pdf")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, _, err = m.ExtractText(ctx, buildDocx(t, "x"), "a.docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat, "未启用DOCX时拒绝")

	_, _, err = m.ExtractText(ctx, []byte{0x00, 0x01, 0x02, 0xff}, "blob.bin")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
