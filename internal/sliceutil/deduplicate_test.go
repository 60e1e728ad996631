package sliceutil

import (
	"slices"
	"strings"
	"testing"
)

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		key  func(string) string
		want []string
	}{
		{"empty", nil, strings.ToLower, nil},
		{"single", []string{"Art"}, strings.ToLower, []string{"Art"}},
		{"exact duplicates", []string{"Art", "History", "Art"}, strings.ToLower, []string{"Art", "History"}},
		{"keeps first spelling", []string{"Math", "Science", "math", "MATH"}, strings.ToLower, []string{"Math", "Science"}},
		{"case sensitive key", []string{"Math", "math"}, func(s string) string { return s }, []string{"Math", "math"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Deduplicate(tt.in, tt.key); !slices.Equal(got, tt.want) {
				t.Errorf("Deduplicate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeduplicateStructKey(t *testing.T) {
	t.Parallel()

	type course struct {
		ID    string
		Title string
	}
	in := []course{
		{ID: "ROB101", Title: "Robotics"},
		{ID: "ART200", Title: "Painting"},
		{ID: "ROB101", Title: "Robotics II"},
	}

	got := Deduplicate(in, func(c course) string { return c.ID })
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Title != "Robotics" {
		t.Errorf("got[0].Title = %q, want first occurrence", got[0].Title)
	}
}
