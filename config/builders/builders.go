// Package builders 把内置 Node 注册到 config 注册表，使 Pipeline 可以由 YAML 配置驱动。
//
//	builders.Register(builders.Env{Model: m, Ratings: ratings, Store: kv})
//	p, err := config.LoadPipeline("pipeline.yaml")
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/itemcf/config"
	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/filter"
	"github.com/rushteam/itemcf/model"
	"github.com/rushteam/itemcf/pipeline"
	"github.com/rushteam/itemcf/pkg/conv"
	"github.com/rushteam/itemcf/rank"
	"github.com/rushteam/itemcf/recall"
	"github.com/rushteam/itemcf/rerank"
)

// Env 是构建 Node 所需的运行时依赖。
type Env struct {
	Model *model.SimilarityModel

	// Ratings 可选：ItemCF 在 rctx.Ratings 为空时从这里读取用户历史
	Ratings core.RatingStore

	// Store 可选：Hot 列表、黑名单所在的 KV 存储
	Store core.Store

	// NeighborhoodSize / Fallback 是 rank.item_item 的默认值，Node 配置中可覆盖
	NeighborhoodSize int
	Fallback         rank.Fallback
}

// Register 注册全部内置 Node 类型。
func Register(env Env) {
	config.Register("recall.item_cf", env.BuildItemCFNode)
	config.Register("recall.hot", env.BuildHotNode)
	config.Register("recall.fanout", env.BuildFanoutNode)
	config.Register("filter", env.BuildFilterNode)
	config.Register("rank.item_item", env.BuildItemItemNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func (e Env) itemCF(cfg map[string]any) *recall.ItemCF {
	return &recall.ItemCF{
		Model: e.Model,
		Store: e.Ratings,
		TopK:  int(conv.ConfigGetInt64(cfg, "top_k", 0)),
	}
}

func (e Env) hot(cfg map[string]any) *recall.Hot {
	return &recall.Hot{
		Store: e.Store,
		Key:   conv.ConfigGet(cfg, "key", ""),
		IDs:   conv.SliceAnyToInt64(cfg["ids"]),
	}
}

// BuildItemCFNode: {top_k: 100}
func (e Env) BuildItemCFNode(cfg map[string]any) (pipeline.Node, error) {
	if e.Model == nil {
		return nil, core.ErrModelNotReady
	}
	return e.itemCF(cfg), nil
}

// BuildHotNode: {ids: [1, 2], key: "ratings:hot"}
func (e Env) BuildHotNode(cfg map[string]any) (pipeline.Node, error) {
	return e.hot(cfg), nil
}

// BuildFanoutNode: {sources: [{type: item_cf}, {type: hot, ids: [..]}], dedup, timeout_ms, max_concurrent, merge_strategy}
func (e Env) BuildFanoutNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: recall.fanout: sources not found or invalid", core.ErrConfigInvalid)
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		switch sourceType := conv.ConfigGet(sourceMap, "type", ""); sourceType {
		case "item_cf":
			if e.Model == nil {
				return nil, core.ErrModelNotReady
			}
			sources = append(sources, e.itemCF(sourceMap))
		case "hot":
			sources = append(sources, e.hot(sourceMap))
		default:
			return nil, fmt.Errorf("%w: recall.fanout: unknown source type %q", core.ErrConfigInvalid, sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MaxConcurrent: int(conv.ConfigGetInt64(cfg, "max_concurrent", 0)),
	}
	if ms := conv.ConfigGetInt64(cfg, "timeout_ms", 0); ms > 0 {
		fanout.Timeout = time.Duration(ms) * time.Millisecond
	}
	switch strategy := conv.ConfigGet(cfg, "merge_strategy", recall.MergeFirst); strategy {
	case recall.MergeFirst, recall.MergeUnion, recall.MergePriority:
		fanout.MergeStrategy = strategy
	default:
		return nil, fmt.Errorf("%w: recall.fanout: unknown merge_strategy %q", core.ErrConfigInvalid, strategy)
	}
	return fanout, nil
}

// BuildFilterNode: {filters: [{type: rated}, {type: blacklist, item_ids: [..], key}, {type: seen, key_prefix}, {type: expr, expr, invert}]}
func (e Env) BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: filter: filters not found or invalid", core.ErrConfigInvalid)
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "rated":
			filters = append(filters, &filter.RatedFilter{})
		case "blacklist":
			ids := conv.SliceAnyToInt64(filterMap["item_ids"])
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, e.Store, key))
		case "seen":
			if e.Store == nil {
				return nil, fmt.Errorf("%w: filter.seen requires a store", core.ErrConfigInvalid)
			}
			filters = append(filters, filter.NewSeenFilter(
				e.Store,
				conv.ConfigGet(filterMap, "key_prefix", ""),
				uint(conv.ConfigGetInt64(filterMap, "capacity", 0)),
				conv.ConfigGetFloat64(filterMap, "fp_rate", 0),
			))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""), conv.ConfigGet(filterMap, "invert", false))
			if err != nil {
				return nil, fmt.Errorf("%w: filter.expr: %w", core.ErrConfigInvalid, err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("%w: filter: unknown filter type %q", core.ErrConfigInvalid, filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// BuildItemItemNode: {neighborhood_size: 20, fallback: none|item_mean}
func (e Env) BuildItemItemNode(cfg map[string]any) (pipeline.Node, error) {
	if e.Model == nil {
		return nil, core.ErrModelNotReady
	}
	k := int(conv.ConfigGetInt64(cfg, "neighborhood_size", int64(e.NeighborhoodSize)))

	fallback := rank.Fallback(conv.ConfigGet(cfg, "fallback", string(e.Fallback)))
	switch fallback {
	case "":
		fallback = rank.FallbackNone
	case rank.FallbackNone, rank.FallbackItemMean:
	default:
		return nil, fmt.Errorf("%w: rank.item_item: unknown fallback %q", core.ErrConfigInvalid, fallback)
	}

	return &rank.ItemItemNode{
		Scorer:   rank.NewItemItemScorer(e.Model, k),
		Fallback: fallback,
	}, nil
}

// BuildTopNNode: {n: 10}
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}
