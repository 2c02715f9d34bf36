package rank

import (
	"context"
	"sort"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pipeline"
	"github.com/rushteam/itemcf/pkg/utils"
)

// Fallback 决定无法预测的物品如何处理。
type Fallback string

const (
	// FallbackNone 丢弃无法预测的物品（默认）
	FallbackNone Fallback = "none"

	// FallbackItemMean 使用物品均值作为分数，并打上 prediction_source=item_mean
	FallbackItemMean Fallback = "item_mean"
)

// ItemItemNode 是使用 ItemItemScorer 的排序 Node。
// - 用户历史取自 rctx.Ratings
// - 写入 labels：rank_model、cf_neighbors、prediction_source
// - 更新 item.Score 为预测评分并按分数降序排序（稳定）
type ItemItemNode struct {
	Scorer   *ItemItemScorer
	Fallback Fallback
}

func (n *ItemItemNode) Name() string        { return "rank.item_item" }
func (n *ItemItemNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ItemItemNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if rctx == nil {
		return nil, core.ErrInvalidUser
	}

	preds, err := n.Scorer.Score(ctx, rctx.UserID, rctx.Ratings, core.ItemIDs(items))
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if score, ok := preds.Get(it.ID); ok {
			it.Score = score
			it.PutLabel("rank_model", utils.Label{Value: n.Scorer.Name(), Source: "rank"})
			it.PutLabel("cf_neighbors", utils.IntLabel(preds.Neighborhood[it.ID], "rank"))
			it.PutLabel("prediction_source", utils.Label{Value: "neighbors", Source: "rank"})
			out = append(out, it)
			continue
		}
		if n.Fallback != FallbackItemMean {
			continue
		}
		mean, ok := n.Scorer.Model.ItemMean(it.ID)
		if !ok {
			continue
		}
		it.Score = mean
		it.PutLabel("rank_model", utils.Label{Value: n.Scorer.Name(), Source: "rank"})
		it.PutLabel("prediction_source", utils.Label{Value: string(FallbackItemMean), Source: "rank"})
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}
