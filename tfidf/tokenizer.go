package tfidf

import (
	"strings"
	"unicode"
)

// stopwords 是英文常用停用词表，向量化时剔除。
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all am an and any are as at
		be because been before being below between both but by
		can could did do does doing down during
		each few for from further had has have having he her here hers
		him his how i if in into is it its itself just me more most my
		no nor not now of off on once only or other our ours out over own
		s same she should so some such t than that the their theirs them
		then there these they this those through to too under until up
		very was we were what when where which while who whom why will
		with you your yours`) {
		stopwords[w] = struct{}{}
	}
}

// IsStopword 判断词项是否为停用词。
func IsStopword(term string) bool {
	_, ok := stopwords[term]
	return ok
}

// Tokenize 将文本切分为词项：小写化、按字母/数字连续段切分、
// 剔除停用词与长度小于 2 的词项。
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	terms := make([]string, 0, 16)

	start := -1
	for i, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			appendTerm(&terms, lower[start:i])
			start = -1
		}
	}
	if start >= 0 {
		appendTerm(&terms, lower[start:])
	}
	return terms
}

func appendTerm(terms *[]string, term string) {
	// 单字符词项无区分度，与停用词一并剔除
	if len([]rune(term)) < 2 {
		return
	}
	if IsStopword(term) {
		return
	}
	*terms = append(*terms, term)
}
