package model

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rushteam/itemcf/core"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) <= eps }

func build(t *testing.T, ratings []core.Rating, opts ...BuilderOption) *SimilarityModel {
	t.Helper()
	m, err := NewBuilder(opts...).BuildFromRatings(context.Background(), ratings)
	if err != nil {
		t.Fatalf("BuildFromRatings: %v", err)
	}
	return m
}

// 两个用户、两个物品，完全相关。
func TestBuild_PerfectlyCorrelatedPair(t *testing.T) {
	m := build(t, []core.Rating{
		{UserID: 1, ItemID: 'A', Value: 5},
		{UserID: 1, ItemID: 'B', Value: 3},
		{UserID: 2, ItemID: 'A', Value: 4},
		{UserID: 2, ItemID: 'B', Value: 2},
	})

	if mean, ok := m.ItemMean('A'); !ok || !approx(mean, 4.5) {
		t.Errorf("mean(A) = %v, %v; want 4.5", mean, ok)
	}
	if mean, ok := m.ItemMean('B'); !ok || !approx(mean, 2.5) {
		t.Errorf("mean(B) = %v, %v; want 2.5", mean, ok)
	}

	ab, ok := m.Similarity('A', 'B')
	if !ok || !approx(ab, 1.0) {
		t.Errorf("sim(A,B) = %v, %v; want 1.0", ab, ok)
	}
	ba, _ := m.Similarity('B', 'A')
	if ab != ba {
		t.Errorf("sim(A,B)=%v != sim(B,A)=%v", ab, ba)
	}
}

func TestCenterItem(t *testing.T) {
	tests := []struct {
		name     string
		ratings  map[int64]float64
		wantMean float64
		want     map[int64]float64
	}{
		{
			name:     "two raters",
			ratings:  map[int64]float64{1: 5, 2: 4},
			wantMean: 4.5,
			want:     map[int64]float64{1: 0.5, 2: -0.5},
		},
		{
			name:     "single rating centers to zero",
			ratings:  map[int64]float64{7: 3.5},
			wantMean: 3.5,
			want:     map[int64]float64{7: 0},
		},
		{
			name:     "identical decimals center to exact zero",
			ratings:  map[int64]float64{1: 0.1, 2: 0.1, 3: 0.1},
			wantMean: 0.1,
			want:     map[int64]float64{1: 0, 2: 0, 3: 0},
		},
		{
			name:     "three raters",
			ratings:  map[int64]float64{1: 1, 2: 2, 3: 6},
			wantMean: 3,
			want:     map[int64]float64{1: -2, 2: -1, 3: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, vec := CenterItem(tt.ratings)
			if !approx(mean, tt.wantMean) {
				t.Errorf("mean = %v, want %v", mean, tt.wantMean)
			}
			if vec.Len() != len(tt.want) {
				t.Fatalf("len = %d, want %d", vec.Len(), len(tt.want))
			}
			for u, w := range tt.want {
				got, ok := vec.Get(u)
				if !ok || got != tt.ratings[u]-mean || !approx(got, w) {
					t.Errorf("centered[%d] = %v, %v; want %v", u, got, ok, w)
				}
			}
		})
	}
}

func TestCosine_ZeroVariance(t *testing.T) {
	_, flat := CenterItem(map[int64]float64{1: 4, 2: 4, 3: 4})
	_, other := CenterItem(map[int64]float64{1: 5, 2: 1, 3: 3})

	if got := Cosine(flat, other); got != 0 {
		t.Errorf("Cosine(flat, other) = %v, want 0", got)
	}
	if got := Cosine(other, flat); got != 0 {
		t.Errorf("Cosine(other, flat) = %v, want 0", got)
	}
	if got := Cosine(flat, flat); got != 0 {
		t.Errorf("Cosine(flat, flat) = %v, want 0", got)
	}
}

func TestCosine_ImplicitZerosCountInNorms(t *testing.T) {
	// a 有三个评分用户，b 只和 a 共享用户 1、2。
	a := NewItemVector(map[int64]float64{1: 1, 2: 1, 3: 1})
	b := NewItemVector(map[int64]float64{1: 1, 2: 1})

	want := 2 / (math.Sqrt(3) * math.Sqrt(2))
	if got := Cosine(a, b); !approx(got, want) {
		t.Errorf("Cosine = %v, want %v", got, want)
	}
}

func TestBuild_ZeroVarianceItemHasNoNeighbors(t *testing.T) {
	m := build(t, []core.Rating{
		{UserID: 1, ItemID: 10, Value: 3},
		{UserID: 2, ItemID: 10, Value: 3},
		{UserID: 3, ItemID: 10, Value: 3},
		{UserID: 1, ItemID: 20, Value: 5},
		{UserID: 2, ItemID: 20, Value: 1},
		{UserID: 3, ItemID: 20, Value: 4},
	})

	if n := m.NeighborCount(10); n != 0 {
		t.Errorf("zero variance item has %d neighbors", n)
	}
	if _, ok := m.Similarity(20, 10); ok {
		t.Errorf("expected no similarity entry against zero variance item")
	}
	if got := m.Stats().ZeroVarianceItems; got != 1 {
		t.Errorf("ZeroVarianceItems = %d, want 1", got)
	}
}

// 0.1 无法精确表示，逐项求和得到的均值会偏离 0.1，中心化值不再是 0。
func TestBuild_DecimalZeroVarianceItem(t *testing.T) {
	m := build(t, []core.Rating{
		{UserID: 1, ItemID: 10, Value: 0.1},
		{UserID: 2, ItemID: 10, Value: 0.1},
		{UserID: 3, ItemID: 10, Value: 0.1},
		{UserID: 1, ItemID: 20, Value: 1},
		{UserID: 2, ItemID: 20, Value: 2},
		{UserID: 4, ItemID: 20, Value: 5},
	})

	if mean, _ := m.ItemMean(10); mean != 0.1 {
		t.Errorf("mean(10) = %.20f, want 0.1", mean)
	}
	if _, ok := m.Similarity(10, 20); ok {
		t.Errorf("sim(10,20) present, want no entry")
	}
	if _, ok := m.Similarity(20, 10); ok {
		t.Errorf("sim(20,10) present, want no entry")
	}
	if n := m.NeighborCount(20); n != 0 {
		t.Errorf("item 20 has %d neighbors, want 0", n)
	}
	if got := m.Stats(); got.Pairs != 0 || got.ZeroVarianceItems != 1 {
		t.Errorf("stats = %+v, want Pairs=0 ZeroVarianceItems=1", got)
	}
}

func TestBuild_NegativeSimilarityDiscarded(t *testing.T) {
	m := build(t, []core.Rating{
		{UserID: 1, ItemID: 1, Value: 5},
		{UserID: 2, ItemID: 1, Value: 1},
		{UserID: 1, ItemID: 2, Value: 1},
		{UserID: 2, ItemID: 2, Value: 5},
	})
	if _, ok := m.Similarity(1, 2); ok {
		t.Errorf("negatively correlated pair must be discarded")
	}
	if m.Stats().Pairs != 0 {
		t.Errorf("Pairs = %d, want 0", m.Stats().Pairs)
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	m := build(t, nil)
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
	if _, ok := m.ItemMean(1); ok {
		t.Errorf("empty model must not have means")
	}
	if len(m.ItemMeans()) != 0 {
		t.Errorf("ItemMeans not empty")
	}
}

func TestBuild_DuplicateObservationLastWins(t *testing.T) {
	m := build(t, []core.Rating{
		{UserID: 1, ItemID: 1, Value: 1},
		{UserID: 1, ItemID: 1, Value: 5},
		{UserID: 2, ItemID: 1, Value: 3},
	})
	if mean, _ := m.ItemMean(1); !approx(mean, 4) {
		t.Errorf("mean = %v, want 4", mean)
	}
}

func TestBuild_InvalidRating(t *testing.T) {
	_, err := NewBuilder().BuildFromRatings(context.Background(), []core.Rating{
		{UserID: 1, ItemID: 1, Value: math.NaN()},
	})
	if !errors.Is(err, core.ErrInvalidRating) {
		t.Fatalf("err = %v, want ErrInvalidRating", err)
	}
	if !core.IsInvalidInput(err) {
		t.Errorf("IsInvalidInput(%v) = false", err)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder().BuildFromRatings(ctx, randomCorpus(1, 20, 10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func randomCorpus(seed int64, users, items int) []core.Rating {
	rng := rand.New(rand.NewSource(seed))
	var out []core.Rating
	for u := 1; u <= users; u++ {
		for i := 1; i <= items; i++ {
			if rng.Float64() < 0.4 {
				out = append(out, core.Rating{
					UserID: int64(u),
					ItemID: int64(i),
					Value:  float64(rng.Intn(9)+1) / 2,
				})
			}
		}
	}
	return out
}

func TestBuild_Invariants(t *testing.T) {
	ratings := randomCorpus(42, 60, 40)
	m := build(t, ratings, WithWorkers(4))

	// 均值正确
	sums := map[int64]float64{}
	counts := map[int64]int{}
	for _, r := range ratings {
		sums[r.ItemID] += r.Value
		counts[r.ItemID]++
	}
	if m.Len() != len(counts) {
		t.Fatalf("Len = %d, want %d", m.Len(), len(counts))
	}
	for item, sum := range sums {
		mean, ok := m.ItemMean(item)
		if !ok || !approx(mean, sum/float64(counts[item])) {
			t.Errorf("mean(%d) = %v, want %v", item, mean, sum/float64(counts[item]))
		}
	}

	entries := 0
	for _, i := range m.Items() {
		prev := math.Inf(1)
		for nb := range m.Neighbors(i) {
			entries++
			if nb.ItemID == i {
				t.Errorf("item %d is its own neighbor", i)
			}
			if nb.Similarity <= 0 {
				t.Errorf("neighbors[%d][%d] = %v <= 0", i, nb.ItemID, nb.Similarity)
			}
			if nb.Similarity > prev {
				t.Errorf("neighbors of %d not sorted descending", i)
			}
			prev = nb.Similarity
			back, ok := m.Similarity(nb.ItemID, i)
			if !ok || back != nb.Similarity {
				t.Errorf("sim(%d,%d)=%v but sim(%d,%d)=%v,%v", i, nb.ItemID, nb.Similarity, nb.ItemID, i, back, ok)
			}
		}
	}
	if entries != m.Stats().Neighbors || entries != 2*m.Stats().Pairs {
		t.Errorf("entries = %d, stats = %+v", entries, m.Stats())
	}
}

func TestBuild_Deterministic(t *testing.T) {
	ratings := randomCorpus(7, 50, 30)
	m1 := build(t, ratings, WithWorkers(1))
	m2 := build(t, ratings, WithWorkers(8))

	// 打乱输入顺序（无重复观测时结果不变）
	shuffled := append([]core.Rating(nil), ratings...)
	rand.New(rand.NewSource(99)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	m3 := build(t, shuffled, WithWorkers(3))

	for _, other := range []*SimilarityModel{m2, m3} {
		if other.Stats().Pairs != m1.Stats().Pairs {
			t.Fatalf("pairs differ: %d vs %d", other.Stats().Pairs, m1.Stats().Pairs)
		}
		for _, item := range m1.Items() {
			a, b := m1.NeighborList(item), other.NeighborList(item)
			if len(a) != len(b) {
				t.Fatalf("item %d: %d vs %d neighbors", item, len(a), len(b))
			}
			for k := range a {
				if a[k] != b[k] {
					t.Errorf("item %d neighbor %d: %+v vs %+v", item, k, a[k], b[k])
				}
			}
			ma, _ := m1.ItemMean(item)
			mb, _ := other.ItemMean(item)
			if ma != mb {
				t.Errorf("item %d mean %v vs %v", item, ma, mb)
			}
		}
	}
}

func TestNeighborList_IsCopy(t *testing.T) {
	m := build(t, []core.Rating{
		{UserID: 1, ItemID: 1, Value: 5},
		{UserID: 2, ItemID: 1, Value: 1},
		{UserID: 1, ItemID: 2, Value: 4},
		{UserID: 2, ItemID: 2, Value: 2},
	})
	list := m.NeighborList(1)
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	list[0].Similarity = -1
	if sim, _ := m.Similarity(1, 2); sim <= 0 {
		t.Errorf("model mutated through NeighborList copy")
	}
}

func TestNilModel(t *testing.T) {
	var m *SimilarityModel
	if m.Len() != 0 || m.HasItem(1) || m.NeighborCount(1) != 0 {
		t.Errorf("nil model should be empty")
	}
	for range m.Neighbors(1) {
		t.Errorf("nil model yielded a neighbor")
	}
}
