package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmptyText(t *testing.T) {
	if got := NewSplitter(10, 2).Split("   \n "); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	got := NewSplitter(100, 10).Split("  Patience is beautiful.  ")
	if len(got) != 1 || got[0] != "Patience is beautiful." {
		t.Fatalf("unexpected chunks: %#v", got)
	}
}

func TestSplitRespectsSizeAndWordBoundaries(t *testing.T) {
	text := strings.Repeat("steadfast ", 40)
	chunks := NewSplitter(50, 10).Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 50 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
		for _, word := range strings.Fields(chunk) {
			if word != "steadfast" {
				t.Fatalf("chunk %d cut a word: %q", i, word)
			}
		}
	}
}

func TestSplitOverlapsConsecutiveChunks(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	chunks := NewSplitter(20, 8).Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %#v", chunks)
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		if !strings.Contains(chunks[i], prev[len(prev)-1]) {
			t.Fatalf("chunk %d does not overlap previous: %q vs %q", i, chunks[i-1], chunks[i])
		}
	}
}

func TestSplitHardCutsTextWithoutSpaces(t *testing.T) {
	chunks := NewSplitter(10, 0).Split(strings.Repeat("x", 25))
	if len(chunks) != 3 || chunks[2] != "xxxxx" {
		t.Fatalf("unexpected chunks: %#v", chunks)
	}
}

func TestNewSplitterNormalizesSettings(t *testing.T) {
	s := NewSplitter(0, -3)
	if s.ChunkSize != defaultChunkSize || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap 25, got %d", s.Overlap)
	}
}
