package rag

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitter_ShortTextIsOneChunk(t *testing.T) {
	t.Parallel()
	s := NewSplitter(500, 100)

	got := s.Split("Title: Robotics\nDescription: Build robots.")
	if len(got) != 1 {
		t.Fatalf("Split() returned %d chunks, want 1", len(got))
	}
	if got[0] != "Title: Robotics\nDescription: Build robots." {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestSplitter_Empty(t *testing.T) {
	t.Parallel()
	s := NewSplitter(500, 100)

	for _, text := range []string{"", "   ", "\n\n"} {
		if got := s.Split(text); len(got) != 0 {
			t.Errorf("Split(%q) = %q, want no chunks", text, got)
		}
	}
}

func TestSplitter_RespectsSizeAndOverlap(t *testing.T) {
	t.Parallel()
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	text := strings.Join(words, " ")

	s := NewSplitter(50, 10)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk %d has %d runes, want <= 50", i, n)
		}
	}

	// The last word of each chunk is repeated at the start of the next.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		last := prev[len(prev)-1]
		if !strings.HasPrefix(chunks[i], last) {
			t.Errorf("chunk %d = %q, want prefix %q", i, chunks[i], last)
		}
	}

	// Every word survives.
	joined := strings.Join(chunks, " ")
	for _, w := range words {
		if !strings.Contains(joined, w) {
			t.Errorf("word %q lost during splitting", w)
		}
	}
}

func TestSplitter_PrefersParagraphs(t *testing.T) {
	t.Parallel()
	para1 := strings.Repeat("a", 30)
	para2 := strings.Repeat("b", 30)

	s := NewSplitter(40, 0)
	got := s.Split(para1 + "\n\n" + para2)
	if len(got) != 2 || got[0] != para1 || got[1] != para2 {
		t.Errorf("Split() = %q, want the two paragraphs", got)
	}
}

func TestSplitter_HardSplitsLongWords(t *testing.T) {
	t.Parallel()
	s := NewSplitter(10, 0)

	got := s.Split(strings.Repeat("x", 25))
	if len(got) != 3 {
		t.Fatalf("Split() returned %d chunks, want 3: %q", len(got), got)
	}
	for _, c := range got {
		if utf8.RuneCountInString(c) > 10 {
			t.Errorf("chunk %q exceeds size", c)
		}
	}
}

func TestNewSplitter_Defaults(t *testing.T) {
	t.Parallel()
	s := NewSplitter(0, -1)
	if s.ChunkSize != 500 || s.Overlap != 0 {
		t.Errorf("NewSplitter(0, -1) = {%d, %d}, want {500, 0}", s.ChunkSize, s.Overlap)
	}
	s = NewSplitter(100, 100)
	if s.Overlap != 0 {
		t.Errorf("overlap >= size should reset to 0, got %d", s.Overlap)
	}
}
