package builders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/itemcf/config"
	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/filter"
	"github.com/rushteam/itemcf/model"
	"github.com/rushteam/itemcf/rank"
	"github.com/rushteam/itemcf/store"
)

const pipelineYAML = `
pipeline:
  name: itemcf
  nodes:
    - type: recall.fanout
      config:
        dedup: true
        timeout_ms: 500
        merge_strategy: first
        sources:
          - type: item_cf
            top_k: 50
          - type: hot
            ids: [3, 2, 1, 4]
    - type: filter
      config:
        filters:
          - type: rated
          - type: blacklist
            item_ids: [4]
          - type: seen
            key_prefix: seen
    - type: rank.item_item
      config:
        fallback: item_mean
    - type: rerank.topn
      config:
        n: 5
`

func testModel(t *testing.T) *model.SimilarityModel {
	t.Helper()
	m, err := model.NewBuilder().BuildFromRatings(context.Background(), []core.Rating{
		{UserID: 1, ItemID: 1, Value: 5},
		{UserID: 1, ItemID: 2, Value: 3},
		{UserID: 2, ItemID: 1, Value: 4},
		{UserID: 2, ItemID: 2, Value: 2},
		{UserID: 3, ItemID: 3, Value: 4},
		{UserID: 4, ItemID: 3, Value: 1},
		{UserID: 4, ItemID: 4, Value: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPipelineFromYAML(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	Register(Env{Model: testModel(t), Store: kv, NeighborhoodSize: 20, Fallback: rank.FallbackNone})

	// 用户 9 之前被推荐过物品 1（已评过，本来就会被过滤），不影响 2、3
	if err := filter.NewSeenFilter(kv, "seen", 0, 0).MarkSeen(context.Background(), 9, []int64{1}); err != nil {
		t.Fatal(err)
	}

	p, err := config.LoadPipeline(writePipeline(t, pipelineYAML))
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}

	rctx := &core.RecommendContext{UserID: 9, Ratings: map[int64]float64{1: 5}}
	out, err := p.Run(context.Background(), rctx, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 物品 2：邻居预测 2.5 + 0.5 = 3.0；物品 3：无合格邻居，回退到均值 2.5
	want := []struct {
		id     int64
		score  float64
		source string
	}{
		{id: 2, score: 3.0, source: "neighbors"},
		{id: 3, score: 2.5, source: "item_mean"},
	}
	if len(out) != len(want) {
		t.Fatalf("out = %v, want ids 2, 3", core.ItemIDs(out))
	}
	for i, w := range want {
		it := out[i]
		if it.ID != w.id || it.Score != w.score {
			t.Errorf("out[%d] = {%d %v}, want {%d %v}", i, it.ID, it.Score, w.id, w.score)
		}
		if lbl, _ := it.GetLabel("prediction_source"); lbl.Value != w.source {
			t.Errorf("out[%d] prediction_source = %q, want %q", i, lbl.Value, w.source)
		}
	}
}

func TestPipelineConfigErrors(t *testing.T) {
	Register(Env{Model: testModel(t)})

	tests := []struct {
		name string
		yaml string
		is   error
	}{
		{
			name: "unknown node type",
			yaml: "pipeline:\n  nodes:\n    - type: rank.lr\n",
			is:   core.ErrUnknownNodeType,
		},
		{
			name: "bad fallback",
			yaml: "pipeline:\n  nodes:\n    - type: rank.item_item\n      config: {fallback: zero}\n",
			is:   core.ErrConfigInvalid,
		},
		{
			name: "bad expression",
			yaml: "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - {type: expr, expr: \"item.score >\"}\n",
			is:   core.ErrConfigInvalid,
		},
		{
			name: "seen without store",
			yaml: "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - {type: seen}\n",
			is:   core.ErrConfigInvalid,
		},
		{
			name: "bad merge strategy",
			yaml: "pipeline:\n  nodes:\n    - type: recall.fanout\n      config: {merge_strategy: best, sources: []}\n",
			is:   core.ErrConfigInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadPipeline(writePipeline(t, tt.yaml))
			if !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestBuildersRequireModel(t *testing.T) {
	env := Env{}
	if _, err := env.BuildItemItemNode(nil); !errors.Is(err, core.ErrModelNotReady) {
		t.Errorf("rank.item_item err = %v", err)
	}
	if _, err := env.BuildItemCFNode(nil); !errors.Is(err, core.ErrModelNotReady) {
		t.Errorf("recall.item_cf err = %v", err)
	}
}

func TestSupportedTypes(t *testing.T) {
	Register(Env{})
	got := config.SupportedTypes()
	for _, want := range []string{"filter", "rank.item_item", "recall.fanout", "recall.hot", "recall.item_cf", "rerank.topn"} {
		found := false
		for _, typ := range got {
			if typ == want {
				found = true
			}
		}
		if !found {
			t.Errorf("%s not registered (got %v)", want, got)
		}
	}
}
