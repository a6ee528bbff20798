// Package extractor 从标注后的简历文档中抽取结构化字段。
// 各抽取器相互独立，只读取 AnnotatedDocument，不依赖执行顺序。
package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"resume-parser-go/internal/nlp"
	"resume-parser-go/internal/types"
)

// ExtractName 返回第一个满足条件的 PERSON 实体拆分出的 (名, 姓)
// 条件：按空白拆分后至少两段，且前两段均为首字母大写形式
func ExtractName(doc *types.AnnotatedDocument) (string, string) {
	for _, ent := range doc.EntitiesByLabel(types.EntityPerson) {
		names := strings.Fields(ent.Text)
		if len(names) >= 2 && isTitle(names[0]) && isTitle(names[1]) {
			return names[0], strings.Join(names[1:], " ")
		}
	}
	return "", ""
}

// isTitle 判断单词是否为标题形式：大写字母只出现在非字母之后，小写字母只出现在字母之后
// "John" / "O'Brien" 为真，"john" / "JOHN" / "McDonald" 为假
func isTitle(word string) bool {
	cased := false
	prevCased := false
	for _, r := range word {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

// ExtractEmail 返回匹配器在词元序列上的第一个命中，没有则返回空串
func ExtractEmail(doc *types.AnnotatedDocument, matcher nlp.TokenMatcher) string {
	if doc == nil || matcher == nil {
		return ""
	}
	spans := matcher.Match(doc.Tokens)
	if len(spans) == 0 {
		return ""
	}
	return spans[0].Text(doc.Tokens)
}

// phonePattern 可选 + 与 1-3 位国家码，可选括号区号，3 位局号，4 位号码，组间可选分隔符
var phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)

// ExtractPhone 在原文中查找第一个电话号码
// 匹配的起点不能位于单词内部
func ExtractPhone(text string) string {
	offset := 0
	for offset < len(text) {
		loc := phonePattern.FindStringIndex(text[offset:])
		if loc == nil {
			return ""
		}
		start, end := offset+loc[0], offset+loc[1]
		if start == 0 || !isWordByte(text[start-1]) || !isWordByte(text[start]) {
			return text[start:end]
		}
		offset = start + 1
	}
	return ""
}

// isWordByte 与正则 \w 一致的 ASCII 单词字符
func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// ExtractEducation 按文档顺序返回所有名称包含 university 或 college 的 ORG 实体，不去重
func ExtractEducation(doc *types.AnnotatedDocument) []string {
	universities := []string{}
	for _, ent := range doc.EntitiesByLabel(types.EntityOrg) {
		lower := strings.ToLower(ent.Text)
		if strings.Contains(lower, "university") || strings.Contains(lower, "college") {
			universities = append(universities, ent.Text)
		}
	}
	return universities
}

// SeniorLemmas 资深岗位的动词词元
var SeniorLemmas = map[string]struct{}{
	"lead":      {},
	"manage":    {},
	"direct":    {},
	"oversee":   {},
	"supervise": {},
}

// ExtractExperienceLevel 出现任一资深动词即判定为 Senior，否则为 Entry Level
func ExtractExperienceLevel(doc *types.AnnotatedDocument) types.ExperienceLevel {
	if doc == nil {
		return types.ExperienceEntryLevel
	}
	for _, tok := range doc.Tokens {
		if tok.POS != types.POSVerb {
			continue
		}
		if _, ok := SeniorLemmas[strings.ToLower(tok.Lemma)]; ok {
			return types.ExperienceSenior
		}
	}
	return types.ExperienceEntryLevel
}

// ExtractSkills 返回小写形式命中关键词集合的词元原文，保持顺序，不去重
// 只做单词元匹配，多词技能不会被识别
func ExtractSkills(doc *types.AnnotatedDocument, keywords KeywordSet) []string {
	skills := []string{}
	if doc == nil {
		return skills
	}
	for _, tok := range doc.Tokens {
		if keywords.Contains(strings.ToLower(tok.Text)) {
			skills = append(skills, tok.Text)
		}
	}
	return skills
}
