package filter

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/rushteam/itemcf/core"
)

// SeenFilter 是基于布隆过滤器的已曝光过滤器，过滤掉用户已经看过（被推荐过）的物品。
//
// 每个用户一个布隆过滤器，序列化后存放在 Store 的 {KeyPrefix}:{userID} 下。
// 存在误判：少量没看过的物品也会被过滤，但看过的物品一定会被过滤。
//
//	f := filter.NewSeenFilter(kv, "seen", 10000, 0.01)
//	_ = f.MarkSeen(ctx, userID, core.ItemIDs(items))
type SeenFilter struct {
	Store     core.Store
	KeyPrefix string

	// Capacity 预期每个用户的元素数量；FalsePositiveRate 期望误判率（例如 0.01）
	Capacity          uint
	FalsePositiveRate float64
}

// NewSeenFilter 创建已曝光过滤器，capacity / fpRate 非法时使用 10000 / 0.01。
func NewSeenFilter(s core.Store, keyPrefix string, capacity uint, fpRate float64) *SeenFilter {
	if keyPrefix == "" {
		keyPrefix = "seen"
	}
	if capacity == 0 {
		capacity = 10000
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}
	return &SeenFilter{Store: s, KeyPrefix: keyPrefix, Capacity: capacity, FalsePositiveRate: fpRate}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) key(userID int64) string {
	return f.KeyPrefix + ":" + strconv.FormatInt(userID, 10)
}

func itemKey(itemID int64) []byte {
	return strconv.AppendInt(nil, itemID, 10)
}

// load 读取用户的布隆过滤器；不存在时返回 nil。
func (f *SeenFilter) load(ctx context.Context, userID int64) (*bloom.BloomFilter, error) {
	data, err := f.Store.Get(ctx, f.key(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	bf := bloom.NewWithEstimates(f.Capacity, f.FalsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("seen %d: failed to deserialize bloom filter: %w", userID, err)
	}
	return bf, nil
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if rctx == nil || rctx.UserID == 0 {
		return false, nil
	}
	bf, err := f.load(ctx, rctx.UserID)
	if err != nil || bf == nil {
		return false, err
	}
	return bf.Test(itemKey(item.ID)), nil
}

// MarkSeen 把物品加入用户的布隆过滤器。
// 读改写不是原子的；同一用户的并发写入需要调用方串行化。
func (f *SeenFilter) MarkSeen(ctx context.Context, userID int64, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	bf, err := f.load(ctx, userID)
	if err != nil {
		return err
	}
	if bf == nil {
		bf = bloom.NewWithEstimates(f.Capacity, f.FalsePositiveRate)
	}
	for _, id := range itemIDs {
		bf.Add(itemKey(id))
	}

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("seen %d: failed to serialize bloom filter: %w", userID, err)
	}
	return f.Store.Set(ctx, f.key(userID), buf.Bytes())
}
