package nlp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"resume-parser-go/internal/types"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
)

// ProseAnnotator 基于 prose 的英文标注器
// prose 负责分词、词性和 PERSON/GPE 实体，golem 负责词元还原，ORG 由规则补齐
type ProseAnnotator struct {
	lemmatizer Lemmatizer
	orgChunker *OrgChunker

	// prose.NewDocument 默认每次都重新加载内置模型，这里加载一次后复用
	model *prose.Model
	mu    sync.Mutex
}

// ProseOption ProseAnnotator 的配置选项
type ProseOption func(*ProseAnnotator)

// WithLemmatizer 使用自定义词元还原器
func WithLemmatizer(l Lemmatizer) ProseOption {
	return func(a *ProseAnnotator) {
		a.lemmatizer = l
	}
}

// WithOrgChunker 使用自定义机构识别器
func WithOrgChunker(c *OrgChunker) ProseOption {
	return func(a *ProseAnnotator) {
		a.orgChunker = c
	}
}

// NewProseAnnotator 创建标注器，加载 prose 模型和英文词元词典
func NewProseAnnotator(options ...ProseOption) (*ProseAnnotator, error) {
	a := &ProseAnnotator{
		orgChunker: NewOrgChunker(),
	}
	for _, option := range options {
		option(a)
	}

	if a.lemmatizer == nil {
		l, err := golem.New(en.New())
		if err != nil {
			return nil, fmt.Errorf("加载英文词元词典失败: %w", err)
		}
		a.lemmatizer = l
	}

	warm, err := prose.NewDocument("Loading the model.", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("加载 prose 模型失败: %w", err)
	}
	a.model = warm.Model
	return a, nil
}

// Annotate 实现 Annotator
// 按行标注后拼接，换行是实体和机构名的边界
func (a *ProseAnnotator) Annotate(ctx context.Context, text string) (*types.AnnotatedDocument, error) {
	doc := &types.AnnotatedDocument{Text: text}
	if strings.TrimSpace(text) == "" {
		return doc, nil
	}

	for _, line := range splitLines(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.annotateLine(line, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (a *ProseAnnotator) annotateLine(line string, doc *types.AnnotatedDocument) error {
	pd, err := a.newDocument(line)
	if err != nil {
		return fmt.Errorf("prose 标注失败: %w", err)
	}

	ptoks := pd.Tokens()
	if len(ptoks) == 0 {
		return nil
	}
	tokens := make([]types.Token, 0, len(ptoks))
	for _, tok := range ptoks {
		tokens = append(tokens, types.Token{
			Text:  tok.Text,
			Lemma: a.lemmatizer.Lemma(tok.Text),
			POS:   UniversalPOS(tok.Tag),
			Tag:   tok.Tag,
		})
	}
	if err := a.retagLineStart(line, tokens); err != nil {
		return fmt.Errorf("prose 标注失败: %w", err)
	}
	doc.Tokens = append(doc.Tokens, tokens...)

	for _, ent := range pd.Entities() {
		doc.Entities = append(doc.Entities, types.Entity{Label: ent.Label, Text: ent.Text})
	}
	if a.orgChunker != nil {
		doc.Entities = append(doc.Entities, a.orgChunker.Chunk(tokens)...)
	}
	return nil
}

// retagLineStart 行首的首字母大写词常被标成专有名词，如 "Led the team"
// 首字母改小写后重新标注，得到动词时采用新的词性
func (a *ProseAnnotator) retagLineStart(line string, tokens []types.Token) error {
	first := tokens[0]
	if first.POS != types.POSPropn || !isTitleCase(first.Text) {
		return nil
	}

	pd, err := a.newDocument(lowerFirst(strings.TrimLeftFunc(line, unicode.IsSpace)))
	if err != nil {
		return err
	}
	ptoks := pd.Tokens()
	if len(ptoks) == 0 || !strings.EqualFold(ptoks[0].Text, first.Text) {
		return nil
	}
	if UniversalPOS(ptoks[0].Tag) == types.POSVerb {
		tokens[0].Tag = ptoks[0].Tag
		tokens[0].POS = types.POSVerb
	}
	return nil
}

func (a *ProseAnnotator) newDocument(text string) (*prose.Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return prose.NewDocument(text, prose.UsingModel(a.model), prose.WithSegmentation(false))
}

// splitLines 按换行切分并跳过空行
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// isTitleCase 首字母大写且其余部分含小写字母，全大写的标题词不算
func isTitleCase(word string) bool {
	r, size := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(r) {
		return false
	}
	return strings.IndexFunc(word[size:], unicode.IsLower) >= 0
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

var _ Annotator = (*ProseAnnotator)(nil)
