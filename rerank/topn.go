package rerank

import (
	"cmp"
	"context"
	"slices"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pipeline"
)

// TopNNode 是一个 Top-N 截断节点：按分数降序（稳定排序）后截取前 N 个物品。
// 通常在排序（Rank）节点之后使用，用于限制返回结果数量。
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.ItemCF{...},
//	        &rank.ItemItemNode{...},
//	        &rerank.TopNNode{N: 20},
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量，<= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b *core.Item) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if n.N > 0 && len(out) > n.N {
		out = out[:n.N]
	}
	return out, nil
}
