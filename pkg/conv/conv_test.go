package conv

import "testing"

func TestToInt64(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOk bool
	}{
		{in: 3, want: 3, wantOk: true},
		{in: int64(7), want: 7, wantOk: true},
		{in: 4.0, want: 4, wantOk: true},
		{in: 4.5, wantOk: false},
		{in: "12", want: 12, wantOk: true},
		{in: "x", wantOk: false},
		{in: nil, wantOk: false},
	}
	for _, tt := range tests {
		got, ok := ToInt64(tt.in)
		if ok != tt.wantOk || (ok && got != tt.want) {
			t.Errorf("ToInt64(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestSliceAnyToInt64(t *testing.T) {
	got := SliceAnyToInt64([]any{1, 2.0, "3", "bad", 4.5})
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	if SliceAnyToInt64("nope") != nil {
		t.Errorf("non-slice should give nil")
	}
}

func TestConfigGet(t *testing.T) {
	cfg := map[string]any{"name": "x", "n": 5, "f": 2, "dedup": false}

	if got := ConfigGet(cfg, "name", ""); got != "x" {
		t.Errorf("name = %q", got)
	}
	if got := ConfigGet(cfg, "dedup", true); got {
		t.Errorf("dedup = %v", got)
	}
	if got := ConfigGet(cfg, "n", "default"); got != "default" {
		t.Errorf("type mismatch should fall back, got %q", got)
	}
	if got := ConfigGetInt64(cfg, "n", 0); got != 5 {
		t.Errorf("n = %d", got)
	}
	if got := ConfigGetFloat64(cfg, "f", 0); got != 2 {
		t.Errorf("f = %v", got)
	}
	if got := ConfigGetInt64(nil, "n", 9); got != 9 {
		t.Errorf("nil map = %d", got)
	}
}
