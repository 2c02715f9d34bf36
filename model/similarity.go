package model

import "math"

// Cosine 计算两个中心化向量的余弦相似度。
//
// 点积只在共同评分用户上累加；范数各自覆盖自己的全部评分用户（缺失项视为 0）。
// 任一向量范数为 0（零方差物品）时返回 0，而不是 NaN。
func Cosine(a, b ItemVector) float64 {
	return cosine(a, a.SquaredNorm(), b, b.SquaredNorm())
}

// cosine 使用预先计算的平方范数；sqrt(sqA*sqB) 对称且对相同向量精确为 1。
func cosine(a ItemVector, sqA float64, b ItemVector, sqB float64) float64 {
	if sqA == 0 || sqB == 0 {
		return 0
	}
	denom := math.Sqrt(sqA * sqB)
	if denom == 0 || math.IsInf(denom, 0) {
		return 0
	}
	sim := a.Dot(b) / denom
	switch {
	case math.IsNaN(sim):
		return 0
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}
