package filter

import (
	"context"

	"github.com/rushteam/itemcf/core"
)

// RatedFilter 过滤掉用户已经评过的物品（rctx.Ratings）。
type RatedFilter struct{}

func (f *RatedFilter) Name() string {
	return "filter.rated"
}

func (f *RatedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	return rctx.HasRated(item.ID), nil
}
