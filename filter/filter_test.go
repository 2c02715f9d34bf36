package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pkg/utils"
	"github.com/rushteam/itemcf/store"
)

type failingFilter struct{}

func (failingFilter) Name() string { return "filter.failing" }
func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("boom")
}

func items(ids ...int64) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out
}

func TestFilterNode_Process(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	if err := kv.Set(ctx, "blacklist", []byte(`[5]`)); err != nil {
		t.Fatal(err)
	}

	lowMean, err := NewExprFilter(`"prediction_source" in label && label.prediction_source == "item_mean"`, false)
	if err != nil {
		t.Fatal(err)
	}

	in := items(1, 2, 3, 4, 5, 6)
	in[5].PutLabel("prediction_source", utils.Label{Value: "item_mean", Source: "rank"})
	in = append(in, nil)

	node := &FilterNode{Filters: []Filter{
		failingFilter{},
		&RatedFilter{},
		NewBlacklistFilter([]int64{3}, kv, "blacklist"),
		lowMean,
	}}
	rctx := &core.RecommendContext{UserID: 1, Ratings: map[int64]float64{1: 4}}

	out, err := node.Process(ctx, rctx, in)
	if err != nil {
		t.Fatal(err)
	}
	got := core.ItemIDs(out)
	want := []int64{2, 4}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("kept = %v, want %v", got, want)
	}
}

func TestBlacklistFilter_MissingKey(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	f := NewBlacklistFilter(nil, kv, "nope")
	drop, err := f.ShouldFilter(context.Background(), nil, core.NewItem(1))
	if err != nil || drop {
		t.Errorf("ShouldFilter = %v, %v; want false, nil", drop, err)
	}
}

func TestExprFilter_Invert(t *testing.T) {
	f, err := NewExprFilter(`item.score >= 3.0`, true)
	if err != nil {
		t.Fatal(err)
	}
	low := core.NewItem(1)
	low.Score = 2
	high := core.NewItem(2)
	high.Score = 4

	if drop, _ := f.ShouldFilter(context.Background(), nil, low); !drop {
		t.Errorf("low score should be dropped")
	}
	if drop, _ := f.ShouldFilter(context.Background(), nil, high); drop {
		t.Errorf("high score should be kept")
	}

	if _, err := NewExprFilter(`item.score >`, false); err == nil {
		t.Errorf("expected compile error")
	}
}

func TestSeenFilter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()

	f := NewSeenFilter(kv, "", 0, 0)
	rctx := &core.RecommendContext{UserID: 3}

	// 没有布隆过滤器时全部保留
	if drop, err := f.ShouldFilter(ctx, rctx, core.NewItem(10)); err != nil || drop {
		t.Fatalf("ShouldFilter before MarkSeen = %v, %v", drop, err)
	}

	if err := f.MarkSeen(ctx, 3, []int64{10, 11}); err != nil {
		t.Fatal(err)
	}
	if err := f.MarkSeen(ctx, 3, []int64{12}); err != nil {
		t.Fatal(err)
	}

	for _, id := range []int64{10, 11, 12} {
		if drop, err := f.ShouldFilter(ctx, rctx, core.NewItem(id)); err != nil || !drop {
			t.Errorf("item %d should be filtered: %v, %v", id, drop, err)
		}
	}

	// 其他用户不受影响
	other := &core.RecommendContext{UserID: 4}
	if drop, _ := f.ShouldFilter(ctx, other, core.NewItem(10)); drop {
		t.Errorf("user 4 has not seen item 10")
	}
}
