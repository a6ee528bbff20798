package nlp

import (
	"strings"
	"unicode"

	"resume-parser-go/internal/types"
)

// 机构名中心词：出现在首字母大写的连续词元中即视为机构
var defaultOrgHeads = []string{
	"university", "college", "institute", "school", "academy", "polytechnic",
	"inc", "inc.", "corp", "corp.", "corporation", "llc", "ltd", "ltd.", "company",
	"technologies", "labs", "laboratory", "group", "bank", "foundation",
}

// 允许夹在机构名中间的小写连接词
var defaultOrgConnectors = []string{"of", "and", "for", "the", "at", "&", "de", "in"}

// 中心词之后仍可延续机构名的连接词，如 University of California
var headLinks = map[string]struct{}{"of": {}, "for": {}, "de": {}}

// OrgChunker 基于规则的机构实体识别器
// 命名实体模型只输出 PERSON / GPE，ORG 由此补齐
type OrgChunker struct {
	heads      map[string]struct{}
	connectors map[string]struct{}
}

// NewOrgChunker 使用默认中心词表创建识别器，extraHeads 追加自定义中心词
func NewOrgChunker(extraHeads ...string) *OrgChunker {
	c := &OrgChunker{
		heads:      make(map[string]struct{}, len(defaultOrgHeads)+len(extraHeads)),
		connectors: make(map[string]struct{}, len(defaultOrgConnectors)),
	}
	for _, h := range append(defaultOrgHeads, extraHeads...) {
		c.heads[strings.ToLower(h)] = struct{}{}
	}
	for _, w := range defaultOrgConnectors {
		c.connectors[w] = struct{}{}
	}
	return c
}

// Chunk 按文档顺序返回识别出的 ORG 实体，调用方按行传入词元
// 中心词出现后，只有紧跟在 of/for/de 之后的大写词还属于同一机构，
// 因此 "Stanford University B.S." 和 "Stanford University and Foothill College" 会被拆开
func (c *OrgChunker) Chunk(tokens []types.Token) []types.Entity {
	var (
		out      []types.Entity
		start    = -1
		headSeen bool
	)

	flush := func(end int) {
		if start < 0 {
			return
		}
		// 去掉尾部的连接词
		for end > start && c.isConnector(tokens[end-1].Text) {
			end--
		}
		if end > start && c.containsHead(tokens[start:end]) {
			out = append(out, types.Entity{
				Label: types.EntityOrg,
				Text:  Span{Start: start, End: end}.Text(tokens),
			})
		}
		start = -1
		headSeen = false
	}

	for i, tok := range tokens {
		switch {
		case isCapitalized(tok.Text):
			if start >= 0 && headSeen && !isHeadLink(tokens[i-1].Text) {
				flush(i)
			}
			if start < 0 {
				start = i
			}
			if c.isHead(tok.Text) {
				headSeen = true
			}
		case start >= 0 && c.isConnector(tok.Text):
			if headSeen && !isHeadLink(tok.Text) {
				flush(i)
			}
		default:
			flush(i)
		}
	}
	flush(len(tokens))
	return out
}

func isHeadLink(word string) bool {
	_, ok := headLinks[word]
	return ok
}

func (c *OrgChunker) isHead(word string) bool {
	_, ok := c.heads[strings.ToLower(word)]
	return ok
}

func (c *OrgChunker) isConnector(word string) bool {
	_, ok := c.connectors[word]
	return ok
}

func (c *OrgChunker) containsHead(tokens []types.Token) bool {
	for _, tok := range tokens {
		if c.isHead(tok.Text) {
			return true
		}
	}
	return false
}

// isCapitalized 首字符为大写字母
func isCapitalized(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}
