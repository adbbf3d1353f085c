// Package rag builds retrieval-augmented context for answer generation:
// embed the question, find the user's most similar chunks, and format them
// into a bounded context block. Retrieval is an enhancement - every failure
// here degrades to an empty context rather than breaking the chat flow.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/storage"
)

const (
	// DefaultMaxChunks is how many chunks a context block holds.
	DefaultMaxChunks = 3

	// DefaultSimilarityThreshold is the minimum cosine similarity for a
	// chunk to qualify as relevant.
	DefaultSimilarityThreshold = 0.7
)

const (
	contextPreamble  = "Based on the following relevant documents from your knowledge base:"
	contextPostamble = "Please use this information to provide a comprehensive and accurate answer. " +
		"If the documents don't contain relevant information for the question, please indicate " +
		"that and provide your general knowledge response."
)

// Embedder turns query text into a unit-normalized vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error)
}

// Searcher finds a user's chunks most similar to a query vector.
type Searcher interface {
	SimilaritySearch(ctx context.Context, queryVector []float32, queryText, userID string, threshold float32, limit int) ([]*storage.ScoredChunk, error)
}

// ContextBuilder is the retrieval orchestrator.
type ContextBuilder struct {
	embedder  Embedder
	searcher  Searcher
	threshold float32
	logger    *slog.Logger
}

// NewContextBuilder creates a retrieval orchestrator. A non-positive
// threshold selects DefaultSimilarityThreshold; a nil logger selects
// slog.Default().
func NewContextBuilder(embedder Embedder, searcher Searcher, threshold float32, logger *slog.Logger) *ContextBuilder {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextBuilder{
		embedder:  embedder,
		searcher:  searcher,
		threshold: threshold,
		logger:    logger,
	}
}

// GetContext returns a formatted context block of up to maxChunks chunks
// relevant to query, scoped to userID. An empty string means "no relevant
// context found" - never an error. Embedding and search failures are logged
// and swallowed so the caller can answer without retrieval.
func (b *ContextBuilder) GetContext(ctx context.Context, query, userID string, maxChunks int) string {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}

	vectors, err := b.embedder.Embed(ctx, []string{query}, embedding.TaskQuery)
	if err != nil {
		b.logger.Warn("query embedding failed, answering without context", "error", err)
		return ""
	}

	results, err := b.searcher.SimilaritySearch(ctx, vectors[0], query, userID, b.threshold, maxChunks)
	if err != nil {
		b.logger.Warn("similarity search failed, answering without context", "error", err)
		return ""
	}

	if len(results) == 0 {
		return ""
	}

	b.logger.Debug("retrieved context chunks", "user", userID, "chunks", len(results))
	return formatContext(results)
}

// formatContext labels each chunk with its rank and source filename, joins
// the blocks in ranked order, and wraps them in the instructional preamble
// and postamble for the language model.
func formatContext(results []*storage.ScoredChunk) string {
	blocks := make([]string, len(results))
	for i, result := range results {
		filename := result.Filename
		if filename == "" {
			filename = "Unknown Document"
		}
		blocks[i] = fmt.Sprintf("[Document %d: %s]\n%s", i+1, filename, result.Content)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s",
		contextPreamble, strings.Join(blocks, "\n\n"), contextPostamble)
}
