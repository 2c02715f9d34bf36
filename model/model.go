package model

import (
	"iter"
	"slices"
	"time"
)

// Neighbor 是一个正相似度邻居物品。
type Neighbor struct {
	ItemID     int64   `json:"item_id"`
	Similarity float64 `json:"similarity"`
}

// Stats 描述一个模型的规模。
type Stats struct {
	Items             int       `json:"items"`
	Pairs             int       `json:"pairs"`     // 保留下来的无序物品对数量
	Neighbors         int       `json:"neighbors"` // 邻居条目总数（= 2 * Pairs）
	ZeroVarianceItems int       `json:"zero_variance_items"`
	BuiltAt           time.Time `json:"built_at"`
}

// SimilarityModel 是训练产物：物品均值 + 每个物品的正相似度邻居表。
//
// 不变量：
//   - 每个出现在任意评分中的物品，恰有一个均值
//   - 邻居表只包含相似度 > 0 的条目，不包含物品自身
//   - sim(i, j) 与 sim(j, i) 来自同一次计算，数值完全相同
//   - 每个物品的邻居按相似度降序、物品 ID 升序排列
//
// 所有字段不导出，只能通过 Builder 构造；构造完成后只读，可并发访问。
type SimilarityModel struct {
	items     []int64       // 升序
	index     map[int64]int // itemID → 下标
	means     []float64     // 按下标
	neighbors [][]Neighbor  // 按下标，已排序
	stats     Stats
}

// Len 返回模型中的物品数量。
func (m *SimilarityModel) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// HasItem 报告物品是否出现在训练数据中。
func (m *SimilarityModel) HasItem(item int64) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[item]
	return ok
}

// Items 返回所有物品 ID（升序，副本）。
func (m *SimilarityModel) Items() []int64 {
	if m == nil {
		return nil
	}
	return slices.Clone(m.items)
}

// ItemMean 返回物品的平均评分。
func (m *SimilarityModel) ItemMean(item int64) (float64, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.index[item]
	if !ok {
		return 0, false
	}
	return m.means[i], true
}

// ItemMeans 返回完整的物品均值表（副本）。
func (m *SimilarityModel) ItemMeans() map[int64]float64 {
	if m == nil {
		return map[int64]float64{}
	}
	out := make(map[int64]float64, len(m.items))
	for i, id := range m.items {
		out[id] = m.means[i]
	}
	return out
}

// Neighbors 按相似度降序遍历物品的邻居；未知物品或无正相似邻居时为空序列。
func (m *SimilarityModel) Neighbors(item int64) iter.Seq[Neighbor] {
	row := m.row(item)
	return func(yield func(Neighbor) bool) {
		for _, nb := range row {
			if !yield(nb) {
				return
			}
		}
	}
}

// NeighborList 返回物品邻居列表的副本（已排序）。
func (m *SimilarityModel) NeighborList(item int64) []Neighbor {
	return slices.Clone(m.row(item))
}

// NeighborCount 返回物品的邻居数量。
func (m *SimilarityModel) NeighborCount(item int64) int {
	return len(m.row(item))
}

// Similarity 返回 i、j 之间保留下来的相似度；未保留（≤ 0、自身或未知物品）时返回 false。
func (m *SimilarityModel) Similarity(i, j int64) (float64, bool) {
	for _, nb := range m.row(i) {
		if nb.ItemID == j {
			return nb.Similarity, true
		}
	}
	return 0, false
}

// Stats 返回模型规模统计。
func (m *SimilarityModel) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return m.stats
}

func (m *SimilarityModel) row(item int64) []Neighbor {
	if m == nil {
		return nil
	}
	i, ok := m.index[item]
	if !ok {
		return nil
	}
	return m.neighbors[i]
}
