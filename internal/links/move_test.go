package links

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"git.home.luguber.info/inful/linkbio/internal/store"
)

func TestMove(t *testing.T) {
	list := []store.Link{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	tests := []struct {
		name     string
		from, to int
		want     []store.ReorderItem
	}{
		{"down", 0, 2, []store.ReorderItem{{ID: "b", Order: 0}, {ID: "c", Order: 1}, {ID: "a", Order: 2}, {ID: "d", Order: 3}}},
		{"up", 3, 1, []store.ReorderItem{{ID: "a", Order: 0}, {ID: "d", Order: 1}, {ID: "b", Order: 2}, {ID: "c", Order: 3}}},
		{"same", 1, 1, []store.ReorderItem{{ID: "a", Order: 0}, {ID: "b", Order: 1}, {ID: "c", Order: 2}, {ID: "d", Order: 3}}},
		{"clamped", 0, 99, []store.ReorderItem{{ID: "b", Order: 0}, {ID: "c", Order: 1}, {ID: "d", Order: 2}, {ID: "a", Order: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Move(list, tt.from, tt.to)); diff != "" {
				t.Errorf("Move(%d, %d) mismatch (-want +got):\n%s", tt.from, tt.to, diff)
			}
		})
	}

	if got := Move(nil, 0, 1); got != nil {
		t.Errorf("Move(nil) = %v, want nil", got)
	}
	// The input slice is left untouched.
	if list[0].ID != "a" || list[3].ID != "d" {
		t.Errorf("input mutated: %v", list)
	}
}
