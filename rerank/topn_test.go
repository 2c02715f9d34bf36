package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/itemcf/core"
)

func scored(pairs ...float64) []*core.Item {
	var out []*core.Item
	for i := 0; i+1 < len(pairs); i += 2 {
		it := core.NewItem(int64(pairs[i]))
		it.Score = pairs[i+1]
		out = append(out, it)
	}
	return out
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name string
		n    int
		in   []*core.Item
		want []int64
	}{
		{name: "truncate", n: 2, in: scored(1, 3.0, 2, 4.5, 3, 1.0), want: []int64{2, 1}},
		{name: "stable on ties", n: 3, in: scored(9, 2.0, 4, 2.0, 7, 2.0, 1, 1.0), want: []int64{9, 4, 7}},
		{name: "no limit", n: 0, in: scored(1, 1.0, 2, 2.0), want: []int64{2, 1}},
		{name: "n larger than input", n: 10, in: scored(1, 1.0), want: []int64{1}},
		{name: "skip nil", n: 5, in: append(scored(1, 1.0), nil), want: []int64{1}},
		{name: "empty", n: 5, in: nil, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), nil, tt.in)
			if err != nil {
				t.Fatal(err)
			}
			got := core.ItemIDs(out)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
