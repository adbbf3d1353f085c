// Package mcp exposes the document chat backend as MCP tools.
package mcp

import "time"

// SearchDocumentsInput defines the input parameters for the search_documents tool.
type SearchDocumentsInput struct {
	// Query is the free-text search query.
	Query string `json:"query" jsonschema:"required,description=The search query matched against the user's uploaded documents"`
	// UserID scopes the search to one owner's documents.
	UserID string `json:"user_id,omitempty" jsonschema:"description=Owner identity whose documents are searched (defaults to anonymous)"`
	// MaxResults is the maximum number of chunks to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of matching chunks to return"`
	// MinScore is the minimum similarity threshold (0-1).
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum=0,maximum=1,default=0.7,description=Minimum cosine similarity for a chunk to qualify"`
}

// SearchDocumentsOutput contains the search results.
type SearchDocumentsOutput struct {
	// Results is the list of matching chunks, ranked by similarity.
	Results []ChunkMatch `json:"results"`
	// Message provides informational context (e.g., "No matching documents found").
	Message string `json:"message,omitempty"`
}

// ChunkMatch represents a single chunk match from similarity search.
type ChunkMatch struct {
	// DocumentID identifies the owning document.
	DocumentID string `json:"document_id"`
	// Filename is the owning document's filename.
	Filename string `json:"filename"`
	// ChunkIndex is the chunk's position within the document.
	ChunkIndex int `json:"chunk_index"`
	// Content is the chunk text.
	Content string `json:"content"`
	// Score is the similarity score (0-1). Zero for substring-fallback matches.
	Score float64 `json:"score"`
}

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Question is the user's question.
	Question string `json:"question" jsonschema:"required,description=The question to answer"`
	// UserID scopes retrieval to one owner's documents.
	UserID string `json:"user_id,omitempty" jsonschema:"description=Owner identity whose documents provide context (defaults to anonymous)"`
	// MaxChunks caps how many chunks feed the answer.
	MaxChunks int `json:"max_chunks,omitempty" jsonschema:"minimum=1,maximum=10,default=3,description=Maximum number of document chunks used as context"`
}

// AskOutput contains the generated answer.
type AskOutput struct {
	// Answer is the generated response.
	Answer string `json:"answer"`
	// ContextUsed reports whether document context was retrieved for the answer.
	ContextUsed bool `json:"context_used"`
}

// ListDocumentsInput defines the input parameters for the list_documents tool.
type ListDocumentsInput struct {
	// UserID selects whose documents to list.
	UserID string `json:"user_id,omitempty" jsonschema:"description=Owner identity whose documents are listed (defaults to anonymous)"`
}

// ListDocumentsOutput contains the user's document metadata.
type ListDocumentsOutput struct {
	// Documents is the metadata list, newest first.
	Documents []DocumentInfo `json:"documents"`
	// Count is the total number of documents.
	Count int `json:"count"`
}

// DocumentInfo is document metadata without content.
type DocumentInfo struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	FileSize  int64     `json:"file_size"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeleteDocumentInput defines the input parameters for the delete_document tool.
type DeleteDocumentInput struct {
	// DocumentID identifies the document to delete.
	DocumentID string `json:"document_id" jsonschema:"required,description=ID of the document to delete"`
	// UserID must match the document's owner.
	UserID string `json:"user_id,omitempty" jsonschema:"description=Owner identity (defaults to anonymous); only the owner can delete"`
}

// DeleteDocumentOutput reports the deletion result.
type DeleteDocumentOutput struct {
	// Deleted is true when the document and its chunks were removed.
	Deleted bool `json:"deleted"`
	// DocumentID echoes the requested document.
	DocumentID string `json:"document_id"`
	// Message explains a false Deleted (e.g. document not found).
	Message string `json:"message,omitempty"`
}
