package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/rushteam/itemcf/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的物品。
//
// 黑名单来源：
//   - ItemIDs：内存列表
//   - Store + Key：Store 中以 JSON 数组保存的 ID 列表，key 不存在视为空
type BlacklistFilter struct {
	ItemIDs []int64

	Store core.Store
	Key   string
}

// NewBlacklistFilter 创建一个黑名单过滤器，store 可以为 nil。
func NewBlacklistFilter(itemIDs []int64, store core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{
		ItemIDs: itemIDs,
		Store:   store,
		Key:     key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if slices.Contains(f.ItemIDs, item.ID) {
		return true, nil
	}

	if f.Store == nil || f.Key == "" {
		return false, nil
	}
	blacklist, err := f.load(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(blacklist, item.ID), nil
}

func (f *BlacklistFilter) load(ctx context.Context) ([]int64, error) {
	data, err := f.Store.Get(ctx, f.Key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("blacklist %s: %w", f.Key, err)
	}
	return ids, nil
}
