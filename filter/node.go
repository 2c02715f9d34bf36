package filter

import (
	"context"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pipeline"
	"github.com/rushteam/itemcf/pkg/logging"
	"github.com/rushteam/itemcf/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
// 过滤器出错时记录日志并视为保留，不中断流程。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	reasons := make(map[string]int)

	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				logging.Ctx(ctx).Warn().
					Err(err).
					Str("filter", f.Name()).
					Int64("item_id", item.ID).
					Msg("filter failed, keeping item")
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			reasons[filterReason]++
			// 记录过滤原因，供调用方在保留被过滤物品时观测
			item.PutLabel("filtered", utils.Label{Value: "true", Source: filterReason})
			continue
		}
		out = append(out, item)
	}

	if len(reasons) > 0 {
		ev := logging.Ctx(ctx).Debug().Int("kept", len(out))
		for name, cnt := range reasons {
			ev = ev.Int(name, cnt)
		}
		ev.Msg("items filtered")
	}
	return out, nil
}
