package recall

import (
	"cmp"
	"context"
	"slices"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/model"
	"github.com/rushteam/itemcf/pipeline"
	"github.com/rushteam/itemcf/pkg/utils"
)

// ItemCF 是基于物品相似度模型的召回源（i2i）。
//
// 核心思想："被同一批用户以相似方式评价的物品，相互相似"
//
// 算法流程：
//  1. 取用户评过的物品（rctx.Ratings，为空时从 Store 读取）
//  2. 合并这些物品在模型中的正相似度邻居
//  3. 去掉用户已评过的物品，候选分 = Σ 相似度
//  4. 按候选分降序（相同时物品 ID 升序）取 TopK
//
// 召回分只用于截断候选集；最终评分由 rank.ItemItemNode 预测。
type ItemCF struct {
	Model *model.SimilarityModel

	// Store 可选：rctx.Ratings 为空时从这里读取用户评分
	Store core.RatingStore

	// TopK 返回的候选数，<= 0 时使用 core.Defaults.DefaultCandidateLimit()
	TopK int
}

func (r *ItemCF) Name() string        { return "recall.item_cf" }
func (r *ItemCF) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *ItemCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ItemCF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Model == nil || rctx == nil {
		return nil, nil
	}

	// 0 表示没有用户，不从存储里读历史
	rated := rctx.Ratings
	if len(rated) == 0 && r.Store != nil && rctx.UserID != 0 {
		history, err := r.Store.GetUserRatings(ctx, rctx.UserID)
		if err != nil {
			return nil, err
		}
		rated = history
		// 后续 filter / rank 节点使用同一份历史
		rctx.Ratings = history
	}
	if len(rated) == 0 {
		return nil, nil
	}

	scores := make(map[int64]float64)
	for itemID := range rated {
		for nb := range r.Model.Neighbors(itemID) {
			if _, ok := rated[nb.ItemID]; ok {
				continue
			}
			scores[nb.ItemID] += nb.Similarity
		}
	}

	type scoredItem struct {
		itemID int64
		score  float64
	}
	scored := make([]scoredItem, 0, len(scores))
	for id, s := range scores {
		scored = append(scored, scoredItem{itemID: id, score: s})
	}
	slices.SortFunc(scored, func(a, b scoredItem) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.itemID, b.itemID)
	})

	topK := r.TopK
	if topK <= 0 {
		topK = core.Defaults.DefaultCandidateLimit()
	}
	if len(scored) > topK {
		scored = scored[:topK]
	}

	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.itemID)
		it.Score = s.score
		it.PutLabel("recall_source", utils.Label{Value: "i2i", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
