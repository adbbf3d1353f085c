package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docchat/internal/chat"
	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/rag"
	"github.com/bull/docchat/internal/storage"
)

// defaultUserID scopes requests that carry no explicit owner identity.
const defaultUserID = "anonymous"

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Storage  *storage.QdrantStorage
	Embedder *embedding.Embedder
	Context  *rag.ContextBuilder
	Answerer *chat.Answerer
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "docchat-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search the user's uploaded documents by similarity. Returns matching text chunks with scores, ranked by relevance.",
	}, makeSearchHandler(cfg.Storage, cfg.Embedder))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question, grounded in the user's uploaded documents when relevant context exists.",
	}, makeAskHandler(cfg.Context, cfg.Answerer))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the user's uploaded documents with metadata, newest first.",
	}, makeListHandler(cfg.Storage))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete one of the user's documents and all of its indexed chunks.",
	}, makeDeleteHandler(cfg.Storage))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
