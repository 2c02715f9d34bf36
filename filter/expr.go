package filter

import (
	"context"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式过滤物品：表达式为 true 时过滤掉。
// Invert 为 true 时反过来，只保留表达式为 true 的物品。
//
//	&ExprFilter{Expr: `label.prediction_source == "item_mean" && item.score < 3.0`}
type ExprFilter struct {
	Expr   string
	Invert bool
}

// NewExprFilter 创建表达式过滤器，并提前编译表达式。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	if _, err := dsl.Compile(expr); err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr, Invert: invert}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	ok, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	return ok != f.Invert, nil
}
