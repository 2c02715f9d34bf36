package recall

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pipeline"
	"github.com/rushteam/itemcf/pkg/utils"
)

// Hot 是热门召回源，给没有历史的用户兜底。
// - Store + Key：读取 JSON 数组（由 SaveHot 写入）
// - 否则使用内存中的 IDs
// Hot 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用
type Hot struct {
	Store core.Store
	Key   string  // 存储 key，例如 "ratings:hot"
	IDs   []int64 // fallback 内存列表
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Hot) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	ids := r.IDs
	if r.Store != nil && r.Key != "" {
		data, err := r.Store.Get(ctx, r.Key)
		switch {
		case err == nil:
			var parsed []int64
			if err := json.Unmarshal(data, &parsed); err != nil {
				return nil, err
			}
			if len(parsed) > 0 {
				ids = parsed
			}
		case !core.IsStoreNotFound(err):
			return nil, err
		}
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// PopularItems 返回评分人数最多的 n 个物品（人数相同时 ID 升序）。
func PopularItems(ctx context.Context, s core.RatingStore, n int) ([]int64, error) {
	items, err := s.GetAllItems(ctx)
	if err != nil {
		return nil, err
	}

	type itemCount struct {
		id    int64
		count int
	}
	counts := make([]itemCount, 0, len(items))
	for _, id := range items {
		ratings, err := s.GetItemRatings(ctx, id)
		if err != nil {
			return nil, err
		}
		counts = append(counts, itemCount{id: id, count: len(ratings)})
	}
	slices.SortFunc(counts, func(a, b itemCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}

	ids := make([]int64, len(counts))
	for i, c := range counts {
		ids[i] = c.id
	}
	return ids, nil
}

// SaveHot 把热门列表写入 Store，供 Hot 读取。
func SaveHot(ctx context.Context, s core.Store, key string, ids []int64) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data)
}
