package storage

import "time"

// Document represents an uploaded document stored in Qdrant.
// Document points have no embedding vector - they exist for metadata and
// full-content retrieval. Chunks carry the vectors.
type Document struct {
	ID        string // UUID
	UserID    string // Owner identity, scopes every read and delete
	Filename  string // Original upload filename
	Content   string // Extracted plain text
	FileSize  int64  // Size of the raw upload in bytes
	MimeType  string // Declared media type of the upload
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk represents an overlapping slice of a document's text with its
// embedding vector. Chunks are the unit of similarity search.
type Chunk struct {
	ID         string    // UUID
	DocumentID string    // Links to owning Document.ID
	UserID     string    // Same as owning document (for scoped filtering)
	ChunkIndex int       // Position in document (0, 1, 2...)
	Content    string    // Chunk text content
	Filename   string    // Owning document's filename (for result labeling)
	Embedding  []float32 // 768-dim unit-normalized vector
}

// ScoredChunk pairs a chunk with its similarity score from vector search.
// Substring-fallback results carry a zero score.
type ScoredChunk struct {
	*Chunk
	Score float64
}

// CollectionName is the single Qdrant collection for all documents.
const CollectionName = "documents"

// VectorDimension is the embedding size requested from the provider.
const VectorDimension = 768
