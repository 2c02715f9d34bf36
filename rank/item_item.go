package rank

import (
	"context"
	"slices"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/model"
	"github.com/rushteam/itemcf/pkg/logging"
	"github.com/rushteam/itemcf/pkg/metrics"
)

// Predictions 是一次打分请求的结果。
//
// 无法给出预测的目标物品（没有任何合格邻居，或模型中不存在该物品）不会出现在 Scores 中，
// 而是列在 Undefined 里；永远不会以 0 或 NaN 的形式返回。
type Predictions struct {
	// Scores 目标物品 → 预测评分
	Scores map[int64]float64 `json:"scores"`

	// Neighborhood 目标物品 → 实际参与加权的邻居数（1..K）
	Neighborhood map[int64]int `json:"neighborhood"`

	// Undefined 无法预测的目标物品（升序）
	Undefined []int64 `json:"undefined,omitempty"`

	// Skipped 用户评过、但模型中没有均值的物品（升序），中心化时被跳过
	Skipped []int64 `json:"skipped,omitempty"`
}

// Get 返回物品的预测评分。
func (p *Predictions) Get(item int64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	v, ok := p.Scores[item]
	return v, ok
}

// ItemItemScorer 基于物品相似度模型预测用户对目标物品的评分。
//
// 对每个目标物品 t：
//
//	pred(u, t) = mean(t) + Σ_j sim(t, j) * (r(u, j) - mean(j)) / Σ_j sim(t, j)
//
// 其中 j 取 t 的邻居中用户评过的、相似度最高的至多 K 个。
//
// 模型只读；每次请求都会复制用户历史后再做中心化，多个请求可并发使用同一个 Scorer。
type ItemItemScorer struct {
	Model *model.SimilarityModel

	// NeighborhoodSize 邻域大小 K，<= 0 时使用 core.Defaults.DefaultNeighborhoodSize()（20）
	NeighborhoodSize int
}

// NewItemItemScorer 创建打分器。
func NewItemItemScorer(m *model.SimilarityModel, neighborhoodSize int) *ItemItemScorer {
	return &ItemItemScorer{Model: m, NeighborhoodSize: neighborhoodSize}
}

func (s *ItemItemScorer) Name() string { return "item_item" }

func (s *ItemItemScorer) neighborhoodSize() int {
	if s.NeighborhoodSize > 0 {
		return s.NeighborhoodSize
	}
	return core.Defaults.DefaultNeighborhoodSize()
}

// Score 为 userID 预测 targets 中每个物品的评分。
// history 是调用方提供的用户历史 map[itemID]rating，本方法不会修改它。
// userID 只用于日志，任何取值（包括 0）都可以。
func (s *ItemItemScorer) Score(
	ctx context.Context,
	userID int64,
	history map[int64]float64,
	targets []int64,
) (*Predictions, error) {
	if s == nil || s.Model == nil {
		return nil, core.ErrModelNotReady
	}

	centered, skipped := s.centerHistory(history)
	k := s.neighborhoodSize()

	out := &Predictions{
		Scores:       make(map[int64]float64, len(targets)),
		Neighborhood: make(map[int64]int, len(targets)),
		Skipped:      skipped,
	}

	seen := make(map[int64]struct{}, len(targets))
	for _, t := range targets {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}

		score, used, ok := s.predict(t, centered, k)
		if !ok {
			out.Undefined = append(out.Undefined, t)
			continue
		}
		out.Scores[t] = score
		out.Neighborhood[t] = used
	}
	slices.Sort(out.Undefined)

	metrics.RecordPredictions(len(out.Scores), len(out.Undefined), len(out.Skipped))
	logging.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Int("targets", len(seen)).
		Int("defined", len(out.Scores)).
		Int("undefined", len(out.Undefined)).
		Int("skipped_ratings", len(out.Skipped)).
		Msg("item-item predictions")

	return out, nil
}

// centerHistory 复制用户历史并减去物品均值；模型中没有均值的物品被跳过。
func (s *ItemItemScorer) centerHistory(history map[int64]float64) (map[int64]float64, []int64) {
	centered := make(map[int64]float64, len(history))
	var skipped []int64
	for item, r := range history {
		mean, ok := s.Model.ItemMean(item)
		if !ok {
			skipped = append(skipped, item)
			continue
		}
		centered[item] = r - mean
	}
	slices.Sort(skipped)
	return centered, skipped
}

// predict 按相似度降序扫描 t 的邻居，找到 k 个合格邻居或扫描完即停止。
func (s *ItemItemScorer) predict(t int64, centered map[int64]float64, k int) (float64, int, bool) {
	mean, ok := s.Model.ItemMean(t)
	if !ok {
		return 0, 0, false
	}

	var num, den float64
	used := 0
	for nb := range s.Model.Neighbors(t) {
		if used >= k {
			break
		}
		if nb.ItemID == t {
			continue
		}
		r, rated := centered[nb.ItemID]
		if !rated {
			continue
		}
		num += r * nb.Similarity
		den += nb.Similarity
		used++
	}
	if used == 0 || den == 0 {
		return 0, 0, false
	}
	return mean + num/den, used, true
}
