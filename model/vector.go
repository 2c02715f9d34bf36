package model

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ItemVector 是单个物品的稀疏评分向量，users 升序，values 与之一一对应。
// 均值、范数与点积都按此顺序累加，保证结果与 map 遍历顺序无关。
type ItemVector struct {
	users  []int64
	values []float64
}

// NewItemVector 从 map[userID]rating 构造向量。
func NewItemVector(ratings map[int64]float64) ItemVector {
	users := slices.Sorted(maps.Keys(ratings))
	values := make([]float64, len(users))
	for i, u := range users {
		values[i] = ratings[u]
	}
	return ItemVector{users: users, values: values}
}

// Len 返回非零项（评过该物品的用户）数量。
func (v ItemVector) Len() int { return len(v.users) }

// Get 返回用户的值。
func (v ItemVector) Get(user int64) (float64, bool) {
	i, ok := slices.BinarySearch(v.users, user)
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Mean 返回算术平均值，空向量为 0。
func (v ItemVector) Mean() float64 {
	if len(v.values) == 0 {
		return 0
	}
	return stat.Mean(v.values, nil)
}

// SquaredNorm 返回各项平方和。
func (v ItemVector) SquaredNorm() float64 {
	return floats.Dot(v.values, v.values)
}

// Dot 计算两个稀疏向量的点积，只有双方都存在的用户有贡献。
func (v ItemVector) Dot(o ItemVector) float64 {
	var (
		dot  float64
		i, j int
	)
	for i < len(v.users) && j < len(o.users) {
		switch a, b := v.users[i], o.users[j]; {
		case a < b:
			i++
		case a > b:
			j++
		default:
			dot += v.values[i] * o.values[j]
			i++
			j++
		}
	}
	return dot
}

// constant 报告所有值是否完全相等（空向量视为相等）。
func (v ItemVector) constant() bool {
	if len(v.values) == 0 {
		return true
	}
	return floats.Min(v.values) == floats.Max(v.values)
}

// CenterItem 计算物品均值，并返回减去均值后的中心化向量。
//
// 所有评分相同的物品（包括只有一个评分的物品），均值取该评分本身，中心化值精确为 0，
// 不受浮点求和误差影响，因此范数为 0，与任何物品的相似度都是 0。
func CenterItem(ratings map[int64]float64) (float64, ItemVector) {
	vec := NewItemVector(ratings)
	if vec.constant() {
		if len(vec.values) == 0 {
			return 0, vec
		}
		mean := vec.values[0]
		for i := range vec.values {
			vec.values[i] = 0
		}
		return mean, vec
	}
	mean := vec.Mean()
	floats.AddConst(-mean, vec.values)
	return mean, vec
}
