// Package ingest implements the document upload pipeline: extract text,
// persist the document, chunk, embed, and store the chunks. If anything
// fails after the document row is written, the row is deleted again so no
// document without chunks stays visible.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bull/docchat/internal/chunker"
	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/extract"
	"github.com/bull/docchat/internal/storage"
)

var (
	// ErrEmptyDocument reports an upload whose extracted text is empty or
	// whitespace-only.
	ErrEmptyDocument = errors.New("no text content extracted")

	// ErrNoChunks reports extracted text the chunker produced nothing from.
	ErrNoChunks = errors.New("no chunks produced from document content")
)

// Upload carries one uploaded file through the pipeline.
type Upload struct {
	Filename string
	Content  []byte // Raw file bytes as received
	MimeType string // Declared media type
	UserID   string // Owner identity
}

// Embedder generates unit-normalized vectors for document chunks.
type Embedder interface {
	Embed(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error)
}

// Store persists documents and chunks and supports the compensating delete.
type Store interface {
	InsertDocument(ctx context.Context, doc *storage.Document) error
	InsertChunks(ctx context.Context, chunks []*storage.Chunk) (int, error)
	DeleteDocument(ctx context.Context, id, userID string) error
}

// Pipeline orchestrates document ingestion from raw bytes to stored chunks.
type Pipeline struct {
	chunker  *chunker.Chunker
	embedder Embedder
	store    Store
	logger   *slog.Logger
}

// NewPipeline creates an ingestion pipeline with the given components.
func NewPipeline(c *chunker.Chunker, embedder Embedder, store Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunker:  c,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// UploadDocument runs the full ingestion pipeline for one upload and
// returns the persisted document metadata.
//
// Steps before the document row exists fail cleanly with nothing persisted.
// Once the row is written, any failure (no chunks, embedding error, count
// mismatch, insert failure) triggers a best-effort delete of the row before
// the original error is returned.
func (p *Pipeline) UploadDocument(ctx context.Context, up Upload) (*storage.Document, error) {
	text, err := extract.Text(up.Content, up.MimeType)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	p.logger.Debug("extracted text", "filename", up.Filename, "bytes", len(up.Content), "chars", len(text))

	now := time.Now().UTC()
	doc := &storage.Document{
		ID:        uuid.New().String(),
		UserID:    up.UserID,
		Filename:  up.Filename,
		Content:   text,
		FileSize:  int64(len(up.Content)),
		MimeType:  up.MimeType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.store.InsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	if err := p.embedAndStoreChunks(ctx, doc, text); err != nil {
		p.rollback(ctx, doc, err)
		return nil, err
	}

	p.logger.Info("document ingested", "id", doc.ID, "filename", doc.Filename, "user", doc.UserID)
	return doc, nil
}

// embedAndStoreChunks chunks the extracted text, embeds every chunk in one
// batched call, and inserts the chunk rows.
func (p *Pipeline) embedAndStoreChunks(ctx context.Context, doc *storage.Document, text string) error {
	texts := p.chunker.Split(text)
	if len(texts) == 0 {
		return ErrNoChunks
	}
	p.logger.Debug("chunked document", "id", doc.ID, "chunks", len(texts))

	vectors, err := p.embedder.Embed(ctx, texts, embedding.TaskDocument)
	if err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: %d chunks, %d vectors",
			embedding.ErrCountMismatch, len(texts), len(vectors))
	}

	chunks := make([]*storage.Chunk, len(texts))
	for i, content := range texts {
		chunks[i] = &storage.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			UserID:     doc.UserID,
			ChunkIndex: i,
			Content:    content,
			Filename:   doc.Filename,
			Embedding:  vectors[i],
		}
	}

	inserted, err := p.store.InsertChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	if inserted != len(chunks) {
		return fmt.Errorf("store chunks: inserted %d of %d", inserted, len(chunks))
	}

	return nil
}

// rollback deletes the document row written before the failure. The delete
// is best-effort: a failed delete is logged and the original error still
// surfaces to the caller.
func (p *Pipeline) rollback(ctx context.Context, doc *storage.Document, cause error) {
	p.logger.Warn("ingestion failed after document persisted, rolling back",
		"id", doc.ID, "error", cause)

	if err := p.store.DeleteDocument(ctx, doc.ID, doc.UserID); err != nil {
		p.logger.Error("compensating delete failed, document may be orphaned",
			"id", doc.ID, "error", err)
	}
}
