package tfidf

import "math"

// Vector 是稀疏向量：词项索引 -> 权重。
// 所有运算的开销与非零项数成正比，与词表规模无关。
type Vector map[int]float64

// NNZ 返回非零项数。
func (v Vector) NNZ() int {
	n := 0
	for _, w := range v {
		if w != 0 {
			n++
		}
	}
	return n
}

// Dot 返回两个稀疏向量的点积。
func (v Vector) Dot(other Vector) float64 {
	// 遍历较小的一侧
	a, b := v, other
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for i, w := range a {
		if ow, ok := b[i]; ok {
			dot += w * ow
		}
	}
	return dot
}

// Norm 返回向量的 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Cosine 返回两个向量的余弦相似度，任一零向量时为 0。
func Cosine(a, b Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}

// AddScaled 将 other 的 scale 倍累加到 v 上（v += scale * other）。
func (v Vector) AddScaled(other Vector, scale float64) {
	for i, w := range other {
		v[i] += scale * w
	}
}

// Scale 将向量整体缩放 1/denom；denom 为 0 时视为 1（防御除零）。
func (v Vector) Scale(denom float64) {
	if denom == 0 {
		denom = 1
	}
	for i := range v {
		v[i] /= denom
	}
}

// Mul 返回逐元素乘积（仅保留双方都非零的词项）。
func Mul(a, b Vector) Vector {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	out := make(Vector, len(small))
	for i, w := range small {
		if ow, ok := big[i]; ok && w*ow != 0 {
			out[i] = w * ow
		}
	}
	return out
}

// normalize 将向量 L2 归一化（范数为 0 时保持原样）。
func (v Vector) normalize() {
	n := v.Norm()
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}
