// Package chunker splits extracted document text into overlapping
// word-count-bounded segments for embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultChunkSize is the window width in words.
	DefaultChunkSize = 500

	// DefaultOverlap is how many words consecutive chunks share, so that
	// sentences straddling a boundary stay retrievable.
	DefaultOverlap = 50
)

// ErrInvalidConfig reports a chunk size / overlap combination that cannot
// produce a terminating window sequence.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Chunker produces overlapping word-window chunks from plain text.
// It is deterministic and performs no I/O.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given window size and overlap, both
// in words. Zero or negative values select the defaults. The overlap must be
// smaller than the chunk size or the window stride would not advance.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, overlap, chunkSize)
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Split breaks text into chunks of at most chunkSize words, sliding the
// window forward by chunkSize-overlap words each step. Chunks are trimmed
// and empty chunks are dropped. Empty input yields no chunks.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	stride := c.chunkSize - c.overlap
	var chunks []string

	for i := 0; i < len(words); i += stride {
		end := min(i+c.chunkSize, len(words))
		chunk := strings.TrimSpace(strings.Join(words[i:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// ChunkSize returns the configured window width in words.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }
