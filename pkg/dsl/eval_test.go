package dsl

import (
	"testing"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pkg/utils"
)

func TestEval_Evaluate(t *testing.T) {
	item := core.NewItem(42)
	item.Score = 3.8
	item.PutLabel("recall_source", utils.Label{Value: "i2i|hot", Source: "recall"})
	item.PutLabel("prediction_source", utils.Label{Value: "neighbors", Source: "rank"})

	rctx := &core.RecommendContext{
		UserID:  7,
		Scene:   "home",
		Ratings: map[int64]float64{42: 4, 5: 2},
		Params:  map[string]any{"min_score": 3.5},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{expr: "", want: true},
		{expr: `item.score > 3.5`, want: true},
		{expr: `item.id == 42`, want: true},
		{expr: `label.recall_source.contains("hot")`, want: true},
		{expr: `label.prediction_source == "item_mean"`, want: false},
		{expr: `"category" in label`, want: false},
		{expr: `item.id in rctx.ratings`, want: true},
		{expr: `rctx.rated_count == 2 && rctx.scene == "home"`, want: true},
		{expr: `item.score >= rctx.params.min_score`, want: true},
		{expr: `item.labels.recall_source.source == "recall"`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := NewEval(item, rctx).Evaluate(tt.expr)
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_Errors(t *testing.T) {
	item := core.NewItem(1)
	for _, expr := range []string{
		`item.score >`,         // 语法错误
		`item.score + 1.0`,     // 非布尔结果
		`label.missing == "x"`, // 不存在的 key
	} {
		if _, err := NewEval(item, nil).Evaluate(expr); err == nil {
			t.Errorf("Evaluate(%q) expected error", expr)
		}
	}
}

func TestCompile_Cached(t *testing.T) {
	a, err := Compile(`item.score > 1.0`)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Compile(`item.score > 1.0`)
	if a != b {
		t.Errorf("expected cached program")
	}
}
