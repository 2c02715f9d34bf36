package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/rushteam/itemcf/core"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []core.Rating
	}{
		{
			name:  "movielens with header",
			input: "userId,movieId,rating,timestamp\n1,31,2.5,1260759144\n1,1029,3.0,1260759179\n",
			want: []core.Rating{
				{UserID: 1, ItemID: 31, Value: 2.5},
				{UserID: 1, ItemID: 1029, Value: 3},
			},
		},
		{
			name:  "no header no timestamp",
			input: "7, 3, 4\n\n8,3,1.5\n",
			want: []core.Rating{
				{UserID: 7, ItemID: 3, Value: 4},
				{UserID: 8, ItemID: 3, Value: 1.5},
			},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadCSV: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("row %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "too few fields", input: "1,2\n"},
		{name: "bad item", input: "1,x,3\n"},
		{name: "bad rating", input: "1,2,high\n"},
		{name: "bad user after first line", input: "1,2,3\nu,2,3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input)); err == nil {
				t.Errorf("expected error")
			}
		})
	}

	_, err := ReadCSV(strings.NewReader("1,2,NaN\n"))
	if !errors.Is(err, core.ErrInvalidRating) {
		t.Errorf("NaN rating err = %v, want ErrInvalidRating", err)
	}
}
