package core

import (
	"context"
	"math"
)

// Rating 是一条显式评分观测 (user, item, value)，由外部提供，只读。
type Rating struct {
	UserID int64   `json:"user_id"`
	ItemID int64   `json:"item_id"`
	Value  float64 `json:"value"`
}

// Valid 报告评分值是否为有限实数。
func (r Rating) Valid() bool {
	return !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0)
}

// RatingStore 是评分数据的领域接口，可按用户、按物品查询。
//
// 实现：
//   - recall.RatingStoreAdapter（基于 core.HashStore，支持 Memory / Redis）
type RatingStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// GetUserRatings 获取用户的全部评分，返回 map[itemID]rating
	GetUserRatings(ctx context.Context, userID int64) (map[int64]float64, error)

	// GetItemRatings 获取物品的全部评分，返回 map[userID]rating
	GetItemRatings(ctx context.Context, itemID int64) (map[int64]float64, error)

	// GetAllUsers 获取所有用户 ID
	GetAllUsers(ctx context.Context) ([]int64, error)

	// GetAllItems 获取所有物品 ID
	GetAllItems(ctx context.Context) ([]int64, error)
}
