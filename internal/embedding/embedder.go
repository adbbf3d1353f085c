package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/openai/openai-go"
)

const (
	// EmbeddingModel is the OpenAI model used for generating embeddings.
	EmbeddingModel = "text-embedding-3-small"

	// EmbeddingDimension is the vector dimension requested from the
	// provider. This matches storage.VectorDimension (768).
	EmbeddingDimension = 768

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute
	// rate limits. OpenAI supports up to 2048 texts per batch.
	DefaultBatchSize = 500
)

// TaskType hints the provider at how the embedding will be used. The OpenAI
// embeddings API does not distinguish intents, so the hint stops at the call
// site here, but callers must still pass the right one: documents embed with
// TaskDocument, queries with TaskQuery.
type TaskType string

const (
	TaskDocument TaskType = "retrieval_document"
	TaskQuery    TaskType = "question_answering"
)

var (
	// ErrCountMismatch reports a provider response whose vector count does
	// not match the number of input texts.
	ErrCountMismatch = errors.New("embedding count mismatch")

	// ErrZeroVector reports a degenerate all-zero embedding that cannot be
	// normalized.
	ErrZeroVector = errors.New("embedding has zero norm")
)

// Embedder generates unit-normalized embeddings using OpenAI's
// text-embedding-3-small model. Requests are batched for efficiency. No
// retry is performed here; callers decide whether a failure is retried or
// rolled back.
type Embedder struct {
	client    *Client
	batchSize int
}

// NewEmbedder creates a new Embedder with the given client and optional
// batch size. If batchSize is 0, DefaultBatchSize (500) is used.
func NewEmbedder(client *Client, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    client,
		batchSize: batchSize,
	}
}

// Embed generates embeddings for the given texts, one vector per text in
// input order. Every returned vector is L2-normalized so cosine similarity
// reduces to a dot product.
func (e *Embedder) Embed(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	var allEmbeddings [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		embeddings, err := e.embedBatch(ctx, batch, task)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

// embedBatch generates embeddings for a single batch.
// The task hint is accepted for provider parity but text-embedding-3-small
// uses the same representation for storage and query intents.
func (e *Embedder) embedBatch(ctx context.Context, texts []string, _ TaskType) ([][]float32, error) {
	resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:      EmbeddingModel,
		Dimensions: openai.Int(EmbeddingDimension),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: requested %d, got %d",
			ErrCountMismatch, len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vector := toFloat32(data.Embedding)
		if err := normalize(vector); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		embeddings[i] = vector
	}
	return embeddings, nil
}

// normalize scales v to unit Euclidean length in place.
// Returns ErrZeroVector for an all-zero input.
func normalize(v []float32) error {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return ErrZeroVector
	}

	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return nil
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
