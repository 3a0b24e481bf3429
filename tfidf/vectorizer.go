// Package tfidf 把一组文本文档变换到共享词表上的 TF-IDF 稀疏向量空间。
//
// 纯函数式变换：同一份语料与同一词表上限下结果确定；不持有跨请求状态。
// 同一个 Space 内的向量才可以互相比较（词表/维度一致）。
package tfidf

import (
	"math"
	"sort"
)

// DefaultMaxFeatures 是词表规模上限，超出时保留语料中总词频最高的词项。
const DefaultMaxFeatures = 25000

// Vectorizer 将语料构建为 TF-IDF 向量空间。
type Vectorizer struct {
	// MaxFeatures 词表上限；<=0 时使用 DefaultMaxFeatures
	MaxFeatures int
}

// Space 是一次 Fit 产出的向量空间：共享词表 + 每篇文档一个稀疏向量（保持语料顺序）。
type Space struct {
	terms   []string       // 索引 -> 词项
	index   map[string]int // 词项 -> 索引
	vectors []Vector       // 文档顺序与输入语料一致
}

// Fit 在语料上构建向量空间。
//   - TF: 文档内原始词频
//   - IDF: 平滑逆文档频率 ln((1+N)/(1+df)) + 1
//   - 每个文档向量做 L2 归一化（归一化后 cosine 即点积）
//
// 空语料返回空 Space（向量数为 0），由调用方决定如何处置。
func (vz *Vectorizer) Fit(docs []string) *Space {
	maxFeatures := vz.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	tokenized := make([][]string, len(docs))
	corpusCount := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		tokens := Tokenize(doc)
		tokenized[i] = tokens
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			corpusCount[t]++
			if !seen[t] {
				docFreq[t]++
				seen[t] = true
			}
		}
	}

	terms := selectVocabulary(corpusCount, maxFeatures)
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}

	vectors := make([]Vector, len(docs))
	for i, tokens := range tokenized {
		vec := make(Vector)
		for _, t := range tokens {
			if idx, ok := index[t]; ok {
				vec[idx] += idf[idx]
			}
		}
		vec.normalize()
		vectors[i] = vec
	}

	return &Space{terms: terms, index: index, vectors: vectors}
}

// selectVocabulary 选取最终词表：超出上限时按语料总词频降序保留，
// 词频相同按字典序，保证结果确定；最终词表按字典序编号。
func selectVocabulary(corpusCount map[string]int, maxFeatures int) []string {
	terms := make([]string, 0, len(corpusCount))
	for t := range corpusCount {
		terms = append(terms, t)
	}

	if len(terms) > maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			ci, cj := corpusCount[terms[i]], corpusCount[terms[j]]
			if ci != cj {
				return ci > cj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}

	sort.Strings(terms)
	return terms
}

// Len 返回空间内的文档数。
func (s *Space) Len() int { return len(s.vectors) }

// VocabSize 返回词表规模。
func (s *Space) VocabSize() int { return len(s.terms) }

// Vector 返回第 i 篇文档的向量；越界时返回 nil。
func (s *Space) Vector(i int) Vector {
	if i < 0 || i >= len(s.vectors) {
		return nil
	}
	return s.vectors[i]
}

// Term 返回索引对应的词项文本；越界时返回空串。
func (s *Space) Term(i int) string {
	if i < 0 || i >= len(s.terms) {
		return ""
	}
	return s.terms[i]
}

// TermIndex 返回词项的索引，不在词表中时返回 (0, false)。
func (s *Space) TermIndex(term string) (int, bool) {
	i, ok := s.index[term]
	return i, ok
}
