package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// words generates n distinct space-separated words ("w0 w1 ... wN-1").
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

// TestSplit_ExactWindows verifies the window math for a document that is an
// exact multiple of the stride: 1000 words with size 500 / overlap 50 gives
// windows starting at words 0, 450 and 900.
func TestSplit_ExactWindows(t *testing.T) {
	c, err := NewChunker(500, 50)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	chunks := c.Split(words(1000))

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}

	// First chunk covers words 0..499
	if !strings.HasPrefix(chunks[0], "w0 ") {
		t.Errorf("Chunk 0 should start at word 0, got %q", chunks[0][:20])
	}
	if !strings.HasSuffix(chunks[0], " w499") {
		t.Errorf("Chunk 0 should end at word 499")
	}

	// Second chunk starts at word 450 (stride = 500 - 50)
	if !strings.HasPrefix(chunks[1], "w450 ") {
		t.Errorf("Chunk 1 should start at word 450, got %q", chunks[1][:20])
	}

	// Third chunk is the tail from word 900
	if !strings.HasPrefix(chunks[2], "w900 ") {
		t.Errorf("Chunk 2 should start at word 900, got %q", chunks[2][:20])
	}
	if !strings.HasSuffix(chunks[2], " w999") {
		t.Errorf("Chunk 2 should end at word 999")
	}
}

// TestSplit_ShortTail verifies that a document shorter than two full windows
// still produces an overlapping tail chunk: 900 words gives 2 chunks, the
// second starting at word 450.
func TestSplit_ShortTail(t *testing.T) {
	c, err := NewChunker(500, 50)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	chunks := c.Split(words(900))

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[1], "w450 ") {
		t.Errorf("Chunk 1 should start at word 450, got %q", chunks[1][:20])
	}
	if !strings.HasSuffix(chunks[1], " w899") {
		t.Errorf("Chunk 1 should end at word 899")
	}
}

// TestSplit_SingleChunk verifies that text at or below the window size is
// returned as a single chunk.
func TestSplit_SingleChunk(t *testing.T) {
	c, err := NewChunker(500, 50)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	input := words(500)
	chunks := c.Split(input)

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != input {
		t.Error("Single chunk should contain the full input")
	}
}

// TestSplit_EmptyInput verifies empty and whitespace-only input yield no chunks.
func TestSplit_EmptyInput(t *testing.T) {
	c, err := NewChunker(500, 50)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if chunks := c.Split(input); chunks != nil {
			t.Errorf("Input %q: expected nil, got %d chunks", input, len(chunks))
		}
	}
}

// TestSplit_WhitespaceNormalization verifies that runs of whitespace collapse
// to single spaces in the output.
func TestSplit_WhitespaceNormalization(t *testing.T) {
	c, err := NewChunker(10, 2)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	chunks := c.Split("alpha\t\tbeta\n\ngamma   delta")

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "alpha beta gamma delta" {
		t.Errorf("Expected normalized whitespace, got %q", chunks[0])
	}
}

// TestSplit_Overlap verifies that the last overlap words of one chunk are the
// first overlap words of the next, and that concatenating chunks with the
// overlaps removed reconstructs the input.
func TestSplit_Overlap(t *testing.T) {
	c, err := NewChunker(20, 5)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	input := words(47)
	chunks := c.Split(input)

	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	// Each chunk's window starts stride words after the previous one, so its
	// leading words repeat the previous chunk's tail.
	stride := c.ChunkSize() - c.Overlap()
	for i, chunk := range chunks {
		w := strings.Fields(chunk)
		expectedFirst := fmt.Sprintf("w%d", i*stride)
		if w[0] != expectedFirst {
			t.Errorf("Chunk %d: expected first word %q, got %q", i, expectedFirst, w[0])
		}
	}

	// Reconstruct by dropping each chunk's leading overlap
	var rebuilt []string
	for i, chunk := range chunks {
		w := strings.Fields(chunk)
		if i > 0 {
			w = w[min(c.Overlap(), len(w)):]
		}
		rebuilt = append(rebuilt, w...)
	}
	if got := strings.Join(rebuilt, " "); got != input {
		t.Errorf("Reconstruction mismatch:\nexpected %q\ngot      %q", input, got)
	}
}

// TestSplit_Deterministic verifies identical input produces identical chunks.
func TestSplit_Deterministic(t *testing.T) {
	c, err := NewChunker(50, 10)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	input := words(333)
	first := c.Split(input)
	second := c.Split(input)

	if len(first) != len(second) {
		t.Fatalf("Chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Chunk %d differs between runs", i)
		}
	}
}

// TestNewChunker_Defaults verifies zero values select the defaults.
func TestNewChunker_Defaults(t *testing.T) {
	c, err := NewChunker(0, 0)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}
	if c.ChunkSize() != DefaultChunkSize {
		t.Errorf("Expected chunk size %d, got %d", DefaultChunkSize, c.ChunkSize())
	}
	// Explicit zero overlap is a valid choice, not a default request
	if c.Overlap() != 0 {
		t.Errorf("Expected overlap 0, got %d", c.Overlap())
	}
}

// TestNewChunker_InvalidOverlap verifies an overlap >= chunk size is rejected
// before any chunking happens.
func TestNewChunker_InvalidOverlap(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{
		{100, 100},
		{100, 150},
		{1, 1},
	} {
		c, err := NewChunker(tc.size, tc.overlap)
		if err == nil {
			t.Errorf("NewChunker(%d, %d): expected error, got nil", tc.size, tc.overlap)
			continue
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("NewChunker(%d, %d): expected ErrInvalidConfig, got %v", tc.size, tc.overlap, err)
		}
		if c != nil {
			t.Errorf("NewChunker(%d, %d): expected nil chunker on error", tc.size, tc.overlap)
		}
	}
}
