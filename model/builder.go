package model

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pkg/logging"
	"github.com/rushteam/itemcf/pkg/metrics"
)

// Builder 离线构建 SimilarityModel。
//
// 并发模型：
//   - 均值/中心化阶段按物品并行
//   - 相似度阶段按行并行：第 i 行只计算 j > i 的物品对，写入自己的行缓冲
//   - 所有任务结束后单线程组装对称邻居表，因此不存在共享可变状态
type Builder struct {
	// Workers 并发数，<= 0 时使用 core.Defaults.DefaultBuildWorkers()
	Workers int
}

// BuilderOption 是 Builder 的可选配置。
type BuilderOption func(*Builder)

// WithWorkers 设置并发数。
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) { b.Workers = n }
}

// NewBuilder 创建 Builder。
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFromRatings 从评分列表构建模型。
// 同一 (user, item) 出现多次时，以最后一条为准。空输入得到空模型。
func (b *Builder) BuildFromRatings(ctx context.Context, ratings []core.Rating) (*SimilarityModel, error) {
	byItem := make(map[int64]map[int64]float64)
	for _, r := range ratings {
		if !r.Valid() {
			return nil, core.WrapDomainError(core.ErrInvalidRating,
				fmt.Errorf("user %d item %d: %v", r.UserID, r.ItemID, r.Value))
		}
		users, ok := byItem[r.ItemID]
		if !ok {
			users = make(map[int64]float64)
			byItem[r.ItemID] = users
		}
		users[r.UserID] = r.Value
	}
	return b.build(ctx, byItem)
}

// BuildFromStore 按物品遍历评分存储并构建模型。
func (b *Builder) BuildFromStore(ctx context.Context, store core.RatingStore) (*SimilarityModel, error) {
	items, err := store.GetAllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items from %s: %w", store.Name(), err)
	}

	byItem := make(map[int64]map[int64]float64, len(items))
	for _, itemID := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		users, err := store.GetItemRatings(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("item %d ratings from %s: %w", itemID, store.Name(), err)
		}
		if len(users) == 0 {
			continue
		}
		for userID, v := range users {
			if !(core.Rating{UserID: userID, ItemID: itemID, Value: v}).Valid() {
				return nil, core.WrapDomainError(core.ErrInvalidRating,
					fmt.Errorf("user %d item %d: %v", userID, itemID, v))
			}
		}
		byItem[itemID] = users
	}
	return b.build(ctx, byItem)
}

// pairSim 是第 i 行上 j > i 的一个正相似度物品对。
type pairSim struct {
	j   int
	sim float64
}

func (b *Builder) build(ctx context.Context, byItem map[int64]map[int64]float64) (*SimilarityModel, error) {
	start := time.Now()
	workers := b.Workers
	if workers <= 0 {
		workers = core.Defaults.DefaultBuildWorkers()
	}

	items := make([]int64, 0, len(byItem))
	for id := range byItem {
		items = append(items, id)
	}
	slices.Sort(items)
	n := len(items)

	index := make(map[int64]int, n)
	for i, id := range items {
		index[id] = i
	}

	means := make([]float64, n)
	vectors := make([]ItemVector, n)
	sqNorms := make([]float64, n)

	// 均值 + 中心化
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			means[i], vectors[i] = CenterItem(byItem[items[i]])
			sqNorms[i] = vectors[i].SquaredNorm()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 相似度：每个无序对只计算一次
	rows := make([][]pairSim, n)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			var row []pairSim
			for j := i + 1; j < n; j++ {
				if (j-i)%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if sim := cosine(vectors[i], sqNorms[i], vectors[j], sqNorms[j]); sim > 0 {
					row = append(row, pairSim{j: j, sim: sim})
				}
			}
			rows[i] = row
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	neighbors := make([][]Neighbor, n)
	pairs := 0
	for i, row := range rows {
		for _, p := range row {
			neighbors[i] = append(neighbors[i], Neighbor{ItemID: items[p.j], Similarity: p.sim})
			neighbors[p.j] = append(neighbors[p.j], Neighbor{ItemID: items[i], Similarity: p.sim})
			pairs++
		}
	}
	for i := range neighbors {
		slices.SortFunc(neighbors[i], compareNeighbors)
	}

	zeroVariance := 0
	for _, sq := range sqNorms {
		if sq == 0 {
			zeroVariance++
		}
	}

	m := &SimilarityModel{
		items:     items,
		index:     index,
		means:     means,
		neighbors: neighbors,
		stats: Stats{
			Items:             n,
			Pairs:             pairs,
			Neighbors:         2 * pairs,
			ZeroVarianceItems: zeroVariance,
			BuiltAt:           time.Now(),
		},
	}

	elapsed := time.Since(start)
	metrics.RecordModelBuild(elapsed, n, 2*pairs, zeroVariance)
	logging.Ctx(ctx).Info().
		Int("items", n).
		Int("pairs", pairs).
		Int("zero_variance_items", zeroVariance).
		Int("workers", workers).
		Dur("elapsed", elapsed).
		Msg("similarity model built")

	return m, nil
}

// compareNeighbors: 相似度降序，相同时物品 ID 升序。
func compareNeighbors(a, b Neighbor) int {
	if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
		return c
	}
	return cmp.Compare(a.ItemID, b.ItemID)
}
