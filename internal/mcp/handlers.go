package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docchat/internal/chat"
	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/rag"
	"github.com/bull/docchat/internal/storage"
)

// makeSearchHandler creates the search_documents tool handler.
// Search flow:
// 1. Generate a query-task embedding for the query text
// 2. Similarity-search the user's chunks with threshold and limit
// 3. Return ranked chunk matches (fallback matches carry a zero score)
func makeSearchHandler(store *storage.QdrantStorage, embedder *embedding.Embedder) func(
	context.Context, *mcp.CallToolRequest, SearchDocumentsInput,
) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentsInput) (
		*mcp.CallToolResult, SearchDocumentsOutput, error,
	) {
		userID := input.UserID
		if userID == "" {
			userID = defaultUserID
		}
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}
		minScore := input.MinScore
		if minScore <= 0 {
			minScore = rag.DefaultSimilarityThreshold
		}

		vectors, err := embedder.Embed(ctx, []string{input.Query}, embedding.TaskQuery)
		if err != nil {
			return nil, SearchDocumentsOutput{}, fmt.Errorf("failed to embed query: %w", err)
		}

		chunks, err := store.SimilaritySearch(ctx, vectors[0], input.Query, userID, float32(minScore), maxResults)
		if err != nil {
			return nil, SearchDocumentsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		if len(chunks) == 0 {
			return nil, SearchDocumentsOutput{
				Results: []ChunkMatch{},
				Message: "No matching documents found. Try broader search terms.",
			}, nil
		}

		results := make([]ChunkMatch, 0, len(chunks))
		for _, chunk := range chunks {
			results = append(results, ChunkMatch{
				DocumentID: chunk.DocumentID,
				Filename:   chunk.Filename,
				ChunkIndex: chunk.ChunkIndex,
				Content:    chunk.Content,
				Score:      chunk.Score,
			})
		}

		return nil, SearchDocumentsOutput{Results: results}, nil
	}
}

// makeAskHandler creates the ask tool handler.
// Retrieval failures inside GetContext degrade to an empty context, so the
// question is always answered; only answer generation itself can fail.
func makeAskHandler(builder *rag.ContextBuilder, answerer *chat.Answerer) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		userID := input.UserID
		if userID == "" {
			userID = defaultUserID
		}

		ragContext := builder.GetContext(ctx, input.Question, userID, input.MaxChunks)

		answer, err := answerer.Answer(ctx, input.Question, ragContext)
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("failed to generate answer: %w", err)
		}

		return nil, AskOutput{
			Answer:      answer,
			ContextUsed: ragContext != "",
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(store *storage.QdrantStorage) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		userID := input.UserID
		if userID == "" {
			userID = defaultUserID
		}

		docs, err := store.ListDocuments(ctx, userID)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		infos := make([]DocumentInfo, 0, len(docs))
		for _, doc := range docs {
			infos = append(infos, DocumentInfo{
				ID:        doc.ID,
				Filename:  doc.Filename,
				FileSize:  doc.FileSize,
				MimeType:  doc.MimeType,
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
			})
		}

		return nil, ListDocumentsOutput{
			Documents: infos,
			Count:     len(infos),
		}, nil
	}
}

// makeDeleteHandler creates the delete_document tool handler.
// A missing (or foreign) document is reported in the output rather than as
// a tool error.
func makeDeleteHandler(store *storage.QdrantStorage) func(
	context.Context, *mcp.CallToolRequest, DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteDocumentInput) (
		*mcp.CallToolResult, DeleteDocumentOutput, error,
	) {
		userID := input.UserID
		if userID == "" {
			userID = defaultUserID
		}

		err := store.DeleteDocument(ctx, input.DocumentID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrDocumentNotFound) {
				return nil, DeleteDocumentOutput{
					Deleted:    false,
					DocumentID: input.DocumentID,
					Message:    "Document not found.",
				}, nil
			}
			return nil, DeleteDocumentOutput{}, fmt.Errorf("failed to delete document: %w", err)
		}

		return nil, DeleteDocumentOutput{
			Deleted:    true,
			DocumentID: input.DocumentID,
		}, nil
	}
}
