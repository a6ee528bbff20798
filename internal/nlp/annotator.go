// Package nlp 提供简历文本的语言标注能力：分词、词性、词元与命名实体。
// 具体模型被视为黑盒，通过 Annotator 接口注入到处理流程中。
package nlp

import (
	"context"
	"regexp"
	"strings"

	"resume-parser-go/internal/types"
)

// Annotator 语言标注器接口
type Annotator interface {
	// Annotate 对纯文本进行标注，返回分词、词性、词元和命名实体
	Annotate(ctx context.Context, text string) (*types.AnnotatedDocument, error)
}

// Lemmatizer 词元还原接口
type Lemmatizer interface {
	Lemma(word string) string
}

// Span 词元区间 [Start, End)
type Span struct {
	Start int
	End   int
}

// Text 返回区间内词元按空格拼接后的文本
func (s Span) Text(tokens []types.Token) string {
	if s.Start < 0 || s.End > len(tokens) || s.Start >= s.End {
		return ""
	}
	if s.End-s.Start == 1 {
		return tokens[s.Start].Text
	}
	parts := make([]string, 0, s.End-s.Start)
	for _, tok := range tokens[s.Start:s.End] {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}

// TokenMatcher 词元序列上的模式匹配器，按文档顺序返回命中区间
type TokenMatcher interface {
	Match(tokens []types.Token) []Span
}

// emailPattern 形如邮箱的单个词元
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)

// EmailMatcher 匹配形如邮箱地址的词元
type EmailMatcher struct{}

// NewEmailMatcher 创建邮箱匹配器
func NewEmailMatcher() *EmailMatcher {
	return &EmailMatcher{}
}

// Match 实现 TokenMatcher
func (m *EmailMatcher) Match(tokens []types.Token) []Span {
	var spans []Span
	for i, tok := range tokens {
		if LikeEmail(tok.Text) {
			spans = append(spans, Span{Start: i, End: i + 1})
		}
	}
	return spans
}

// LikeEmail 判断字符串是否形如邮箱
func LikeEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var _ TokenMatcher = (*EmailMatcher)(nil)
