// Package itemcf 是基于物品的协同过滤（item-item collaborative filtering）评分预测工具包。
//
// 设计要点：
// - 离线建模：物品均值中心化 + 余弦相似度，只保留正相似度的邻居（model.Builder）
// - 在线打分：取用户评过的、相似度最高的至多 K 个邻居加权（rank.ItemItemScorer）
// - Pipeline-first: 召回、过滤、排序、截断通过 Node 串联，可由 YAML 配置驱动
package itemcf

import (
	"context"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/model"
	"github.com/rushteam/itemcf/pipeline"
	"github.com/rushteam/itemcf/rank"
)

// 轻量 facade：便于用户直接 import "itemcf" 使用核心抽象。
type (
	Pipeline         = pipeline.Pipeline
	Node             = pipeline.Node
	Kind             = pipeline.Kind
	Rating           = core.Rating
	SimilarityModel  = model.SimilarityModel
	Predictions      = rank.Predictions
	RecommendContext = core.RecommendContext
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// Build 从评分列表构建相似度模型。
func Build(ctx context.Context, ratings []Rating) (*SimilarityModel, error) {
	return model.NewBuilder().BuildFromRatings(ctx, ratings)
}

// Predict 使用默认邻域大小为 userID 预测 targets 的评分。
func Predict(
	ctx context.Context,
	m *SimilarityModel,
	userID int64,
	history map[int64]float64,
	targets []int64,
) (*Predictions, error) {
	return rank.NewItemItemScorer(m, 0).Score(ctx, userID, history, targets)
}
