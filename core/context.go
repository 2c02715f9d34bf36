package core

import "github.com/rushteam/itemcf/pkg/utils"

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID int64
	Scene  string

	// Ratings 是调用方提供的用户历史评分 map[itemID]rating。
	// 各 Node 不得修改其中的评分；打分时由 rank 自行复制后再做均值中心化。
	Ratings map[int64]float64

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数（如 CEL 表达式中引用的业务参数）
	Params map[string]any
}

// HasRated 报告用户是否评过该物品。
func (rctx *RecommendContext) HasRated(itemID int64) bool {
	if rctx == nil || rctx.Ratings == nil {
		return false
	}
	_, ok := rctx.Ratings[itemID]
	return ok
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	rctx.Labels[key] = utils.MergeLabel(rctx.Labels[key], lbl)
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
