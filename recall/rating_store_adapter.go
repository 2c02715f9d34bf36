package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/rushteam/itemcf/core"
)

// RatingStoreAdapter 是基于 core.HashStore 的评分存储适配器，实现 core.RatingStore。
// 从 Redis / 内存等存储中读取建模与打分所需的评分数据。
type RatingStoreAdapter struct {
	store core.HashStore

	// KeyPrefix 是存储 key 的前缀
	// 用户评分：{KeyPrefix}:user:{userID}  Hash itemID → rating
	// 物品评分：{KeyPrefix}:item:{itemID}  Hash userID → rating
	// 所有用户：{KeyPrefix}:users          JSON []int64
	// 所有物品：{KeyPrefix}:items          JSON []int64
	KeyPrefix string
}

// NewRatingStoreAdapter 创建评分存储适配器，keyPrefix 为空时使用 "ratings"。
func NewRatingStoreAdapter(s core.HashStore, keyPrefix string) *RatingStoreAdapter {
	if keyPrefix == "" {
		keyPrefix = "ratings"
	}
	return &RatingStoreAdapter{store: s, KeyPrefix: keyPrefix}
}

// Name 实现 core.RatingStore 接口
func (a *RatingStoreAdapter) Name() string {
	return "rating_store_adapter:" + a.store.Name()
}

func (a *RatingStoreAdapter) userKey(userID int64) string {
	return a.KeyPrefix + ":user:" + strconv.FormatInt(userID, 10)
}

func (a *RatingStoreAdapter) itemKey(itemID int64) string {
	return a.KeyPrefix + ":item:" + strconv.FormatInt(itemID, 10)
}

func (a *RatingStoreAdapter) GetUserRatings(ctx context.Context, userID int64) (map[int64]float64, error) {
	return a.readHash(ctx, a.userKey(userID))
}

func (a *RatingStoreAdapter) GetItemRatings(ctx context.Context, itemID int64) (map[int64]float64, error) {
	return a.readHash(ctx, a.itemKey(itemID))
}

func (a *RatingStoreAdapter) GetAllUsers(ctx context.Context) ([]int64, error) {
	return a.readIDs(ctx, a.KeyPrefix+":users")
}

func (a *RatingStoreAdapter) GetAllItems(ctx context.Context) ([]int64, error) {
	return a.readIDs(ctx, a.KeyPrefix+":items")
}

func (a *RatingStoreAdapter) readHash(ctx context.Context, key string) (map[int64]float64, error) {
	raw, err := a.store.HGetAll(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return make(map[int64]float64), nil
		}
		return nil, err
	}

	out := make(map[int64]float64, len(raw))
	for field, v := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad id field %q: %w", key, field, err)
		}
		val, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad rating for %d: %w", key, id, err)
		}
		out[id] = val
	}
	return out, nil
}

func (a *RatingStoreAdapter) readIDs(ctx context.Context, key string) ([]int64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []int64{}, nil
		}
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return ids, nil
}

// AddRating 写入一条评分（同时维护用户、物品两个方向的 Hash），不更新 ID 列表。
func (a *RatingStoreAdapter) AddRating(ctx context.Context, r core.Rating) error {
	if !r.Valid() {
		return core.WrapDomainError(core.ErrInvalidRating, fmt.Errorf("user %d item %d", r.UserID, r.ItemID))
	}
	val := []byte(strconv.FormatFloat(r.Value, 'g', -1, 64))
	if err := a.store.HSet(ctx, a.userKey(r.UserID), strconv.FormatInt(r.ItemID, 10), val); err != nil {
		return err
	}
	return a.store.HSet(ctx, a.itemKey(r.ItemID), strconv.FormatInt(r.UserID, 10), val)
}

// 确保实现 core.RatingStore 接口
var _ core.RatingStore = (*RatingStoreAdapter)(nil)

// LoadRatings 把一批评分写入 Store，并合并更新用户/物品 ID 列表。
// 同一 (user, item) 出现多次时，后写入的覆盖先写入的。
func LoadRatings(ctx context.Context, adapter *RatingStoreAdapter, ratings []core.Rating) error {
	users, err := adapter.GetAllUsers(ctx)
	if err != nil {
		return err
	}
	items, err := adapter.GetAllItems(ctx)
	if err != nil {
		return err
	}

	for _, r := range ratings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := adapter.AddRating(ctx, r); err != nil {
			return err
		}
		users = append(users, r.UserID)
		items = append(items, r.ItemID)
	}

	kvs := make(map[string][]byte, 2)
	for key, ids := range map[string][]int64{
		adapter.KeyPrefix + ":users": users,
		adapter.KeyPrefix + ":items": items,
	} {
		slices.Sort(ids)
		data, err := json.Marshal(slices.Compact(ids))
		if err != nil {
			return err
		}
		kvs[key] = data
	}
	return adapter.store.BatchSet(ctx, kvs)
}
