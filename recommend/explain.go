package recommend

import (
	"sort"
	"strings"

	"github.com/rushteam/vidrec/tfidf"
)

// maxOverlapTerms 是单条理由里最多列出的关键词数
const maxOverlapTerms = 3

// keywordOverlapReason 生成关键词重合理由：取画像与候选向量逐元素乘积中
// 权重最高的至多 3 个词项。没有任何重合词项时返回空串（调用方不追加理由）。
// 纯解释性输出，从不影响排序或分数。
func keywordOverlapReason(space *tfidf.Space, profile, candidate tfidf.Vector) string {
	overlap := tfidf.Mul(profile, candidate)
	if len(overlap) == 0 {
		return ""
	}

	type termWeight struct {
		idx    int
		weight float64
	}
	pairs := make([]termWeight, 0, len(overlap))
	for idx, w := range overlap {
		if w > 0 {
			pairs = append(pairs, termWeight{idx: idx, weight: w})
		}
	}
	if len(pairs) == 0 {
		return ""
	}

	// 权重降序，并列时按词表索引保证输出稳定
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].weight != pairs[j].weight {
			return pairs[i].weight > pairs[j].weight
		}
		return pairs[i].idx < pairs[j].idx
	})
	if len(pairs) > maxOverlapTerms {
		pairs = pairs[:maxOverlapTerms]
	}

	keywords := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if term := space.Term(p.idx); term != "" {
			keywords = append(keywords, term)
		}
	}
	if len(keywords) == 0 {
		return ""
	}
	return "Overlapping keywords: " + strings.Join(keywords, ", ")
}
