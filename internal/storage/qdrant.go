package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStorage wraps the Qdrant client with connection management and
// user-scoped document/chunk operations.
type QdrantStorage struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs a health check with retry on startup and fails fast if Qdrant
// is unreachable.
func NewQdrantStorage(host string, port int) (*QdrantStorage, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client: client,
		host:   host,
		port:   port,
	}

	ctx := context.Background()
	if err := storage.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return storage, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection ensures the documents collection exists with proper
// configuration: 768-dimension cosine vectors under the named vector
// "content" plus payload indexes for scoped filtering.
// Idempotent - safe to call multiple times.
func (s *QdrantStorage) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	// Named vectors allow document points (no vector) and chunk points
	// (with "content" vector) to live in the same collection.
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			"content": {
				Size:     VectorDimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.createPayloadIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create payload indexes: %w", err)
	}

	return nil
}

// createPayloadIndexes creates indexes for all filterable fields.
// Without these, user-scoped filtering degrades badly at scale.
func (s *QdrantStorage) createPayloadIndexes(ctx context.Context) error {
	fields := []string{
		"type",        // Distinguish "document" vs "chunk"
		"user_id",     // Scope every query to an owner
		"document_id", // Lookup chunks by owning document
		"filename",    // Filter documents by name
	}

	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs upsert operation with exponential backoff retry.
func (s *QdrantStorage) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// InsertDocument stores a document point in Qdrant.
// Document points have no embedding vector.
func (s *QdrantStorage) InsertDocument(ctx context.Context, doc *Document) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{}),
		Payload: qdrant.NewValueMap(map[string]any{
			"type":       "document",
			"user_id":    doc.UserID,
			"filename":   doc.Filename,
			"content":    doc.Content,
			"file_size":  doc.FileSize,
			"mime_type":  doc.MimeType,
			"created_at": doc.CreatedAt.Format(time.RFC3339),
			"updated_at": doc.UpdatedAt.Format(time.RFC3339),
		}),
	}

	return s.upsertWithRetry(ctx, []*qdrant.PointStruct{point})
}

// InsertChunks stores chunks with embeddings, batched in groups of 100.
// Either every chunk is accepted or an error is returned so the caller can
// roll back the owning document; no partial success is reported.
func (s *QdrantStorage) InsertChunks(ctx context.Context, chunks []*Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != VectorDimension {
			return 0, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), VectorDimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))

		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, chunk := range batch {
			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					"content": qdrant.NewVector(chunk.Embedding...),
				}),
				Payload: qdrant.NewValueMap(map[string]any{
					"type":        "chunk",
					"document_id": chunk.DocumentID,
					"user_id":     chunk.UserID,
					"chunk_index": chunk.ChunkIndex,
					"content":     chunk.Content,
					"filename":    chunk.Filename,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return 0, fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return len(chunks), nil
}

// GetDocument retrieves a document by ID, scoped to its owner.
// Returns ErrDocumentNotFound if the document doesn't exist or belongs to a
// different user.
func (s *QdrantStorage) GetDocument(ctx context.Context, id, userID string) (*Document, error) {
	result, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: CollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrDocumentNotFound
	}

	point := result[0]
	payload := point.Payload

	typeVal, ok := payload["type"]
	if !ok || typeVal.GetStringValue() != "document" {
		return nil, ErrDocumentNotFound
	}

	// Ownership check: a foreign document is indistinguishable from a
	// missing one to the caller.
	if payload["user_id"].GetStringValue() != userID {
		return nil, ErrDocumentNotFound
	}

	return documentFromPayload(id, payload), nil
}

// GetDocumentContent returns the extracted text of an owned document.
func (s *QdrantStorage) GetDocumentContent(ctx context.Context, id, userID string) (string, error) {
	doc, err := s.GetDocument(ctx, id, userID)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// ListDocuments returns metadata for all of a user's documents, newest
// first. Content is not populated. Uses the Scroll API to page through all
// document points.
func (s *QdrantStorage) ListDocuments(ctx context.Context, userID string) ([]*Document, error) {
	var docs []*Document
	var offset *qdrant.PointId

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", "document"),
			qdrant.NewMatch("user_id", userID),
		},
	}

	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload: qdrant.NewWithPayloadInclude(
				"user_id", "filename", "file_size", "mime_type", "created_at", "updated_at",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll documents: %w", err)
		}

		for _, result := range results {
			docs = append(docs, documentFromPayload(result.Id.GetUuid(), result.Payload))
		}

		if uint32(len(results)) < batchSize {
			break
		}

		offset = results[len(results)-1].Id
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// DeleteDocument removes a document and all of its chunks, scoped to the
// owner. Deleting chunks first keeps readers from ever seeing chunks whose
// document is gone without its chunk set.
func (s *QdrantStorage) DeleteDocument(ctx context.Context, id, userID string) error {
	// Ownership check before any destructive operation.
	if _, err := s.GetDocument(ctx, id, userID); err != nil {
		return err
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("type", "chunk"),
				qdrant.NewMatch("document_id", id),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete chunks for document %s: %w", id, err)
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	return nil
}

// SimilaritySearch finds the user's chunks most similar to the query vector.
// Primary path: native cosine search, capped at limit, filtered by the
// similarity threshold, ranked descending. If the vector search fails, a
// case-insensitive substring match of queryText against chunk content is
// used instead; fallback results carry no score and ignore the threshold.
func (s *QdrantStorage) SimilaritySearch(ctx context.Context, queryVector []float32, queryText, userID string, threshold float32, limit int) ([]*ScoredChunk, error) {
	results, err := s.searchByVector(ctx, queryVector, userID, threshold, limit)
	if err == nil {
		return results, nil
	}

	return s.searchByText(ctx, queryText, userID, limit)
}

// searchByVector performs vector similarity search on the user's chunks.
func (s *QdrantStorage) searchByVector(ctx context.Context, queryVector []float32, userID string, threshold float32, limit int) ([]*ScoredChunk, error) {
	if len(queryVector) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(queryVector), VectorDimension)
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", "chunk"),
			qdrant.NewMatch("user_id", userID),
		},
	}

	vectorName := "content"
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Using:          &vectorName,
		Filter:         filter,
		ScoreThreshold: qdrant.PtrOf(threshold),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	scored := make([]*ScoredChunk, 0, len(results))
	for _, result := range results {
		scored = append(scored, &ScoredChunk{
			Chunk: chunkFromPayload(result.Id.GetUuid(), result.Payload),
			Score: float64(result.Score),
		})
	}

	return scored, nil
}

// searchByText is the degraded fallback: scroll the user's chunks and keep
// those containing the query as a case-insensitive substring, up to limit.
// No similarity score is attached.
func (s *QdrantStorage) searchByText(ctx context.Context, queryText, userID string, limit int) ([]*ScoredChunk, error) {
	needle := strings.ToLower(queryText)

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", "chunk"),
			qdrant.NewMatch("user_id", userID),
		},
	}

	var matches []*ScoredChunk
	var offset *qdrant.PointId
	batchSize := uint32(256)

	for len(matches) < limit {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("fallback text search failed: %w", err)
		}

		for _, result := range results {
			content := result.Payload["content"].GetStringValue()
			if strings.Contains(strings.ToLower(content), needle) {
				matches = append(matches, &ScoredChunk{
					Chunk: chunkFromPayload(result.Id.GetUuid(), result.Payload),
				})
				if len(matches) == limit {
					break
				}
			}
		}

		if uint32(len(results)) < batchSize {
			break
		}

		offset = results[len(results)-1].Id
	}

	return matches, nil
}

// CollectionInfo contains collection statistics.
type CollectionInfo struct {
	PointsCount uint64
}

// GetCollectionInfo retrieves collection statistics including total points
// count (documents plus chunks).
func (s *QdrantStorage) GetCollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	collection, err := s.client.GetCollectionInfo(ctx, CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	return &CollectionInfo{
		PointsCount: collection.GetPointsCount(),
	}, nil
}

func documentFromPayload(id string, payload map[string]*qdrant.Value) *Document {
	createdAt, err := time.Parse(time.RFC3339, payload["created_at"].GetStringValue())
	if err != nil {
		createdAt = time.Time{}
	}
	updatedAt, err := time.Parse(time.RFC3339, payload["updated_at"].GetStringValue())
	if err != nil {
		updatedAt = time.Time{}
	}

	return &Document{
		ID:        id,
		UserID:    payload["user_id"].GetStringValue(),
		Filename:  payload["filename"].GetStringValue(),
		Content:   payload["content"].GetStringValue(),
		FileSize:  payload["file_size"].GetIntegerValue(),
		MimeType:  payload["mime_type"].GetStringValue(),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

func chunkFromPayload(id string, payload map[string]*qdrant.Value) *Chunk {
	return &Chunk{
		ID:         id,
		DocumentID: payload["document_id"].GetStringValue(),
		UserID:     payload["user_id"].GetStringValue(),
		ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
		Content:    payload["content"].GetStringValue(),
		Filename:   payload["filename"].GetStringValue(),
		// Embedding not returned in search results (not needed)
	}
}
