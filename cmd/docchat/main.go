// Package main provides the docchat CLI for managing and querying a user's
// document knowledge base.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docchat/internal/chat"
	"github.com/bull/docchat/internal/chunker"
	"github.com/bull/docchat/internal/embedding"
	ghclient "github.com/bull/docchat/internal/github"
	"github.com/bull/docchat/internal/ingest"
	"github.com/bull/docchat/internal/rag"
	"github.com/bull/docchat/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Document-grounded chat backend CLI",
	Long: `CLI for the docchat backend: upload documents, search them, and ask
questions answered with retrieval-augmented context.

Environment variables:
  QDRANT_HOST              Qdrant hostname (default: localhost)
  QDRANT_PORT              Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY           OpenAI API key for embeddings and answers (required)
  DOCCHAT_USER             Owner identity for all operations (default: anonymous)
  CHUNK_SIZE               Chunk window in words (default: 500)
  CHUNK_OVERLAP            Overlap between chunks in words (default: 50)
  SIMILARITY_THRESHOLD     Minimum cosine similarity (default: 0.7)
  MAX_CONTEXT_CHUNKS       Chunks per answer context (default: 3)
  DOCCHAT_REQUEST_TIMEOUT  Per-command timeout in seconds (default: 60)
  GITHUB_TOKEN             GitHub token for imports (optional)`,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var importCmd = &cobra.Command{
	Use:   "import <owner> <repo> [path]",
	Short: "Import all text files from a GitHub repository directory",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runImport,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question answered with document context when available",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search uploaded documents by similarity",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(uploadCmd, importCmd, askCmd, searchCmd, listCmd, deleteCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the constructed service objects shared by all commands.
type app struct {
	store    *storage.QdrantStorage
	embedder *embedding.Embedder
	pipeline *ingest.Pipeline
	builder  *rag.ContextBuilder
	answerer *chat.Answerer
	userID   string
}

func newApp() (*app, error) {
	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)

	store, err := storage.NewQdrantStorage(qdrantHost, qdrantPort)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	if err := store.EnsureCollection(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	client, err := embedding.NewClient()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, 0) // Use default batch size

	c, err := chunker.NewChunker(
		getEnvInt("CHUNK_SIZE", chunker.DefaultChunkSize),
		getEnvInt("CHUNK_OVERLAP", chunker.DefaultOverlap),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid chunking configuration: %w", err)
	}

	threshold := float32(getEnvFloat("SIMILARITY_THRESHOLD", rag.DefaultSimilarityThreshold))

	return &app{
		store:    store,
		embedder: embedder,
		pipeline: ingest.NewPipeline(c, embedder, store, slog.Default()),
		builder:  rag.NewContextBuilder(embedder, store, threshold, slog.Default()),
		answerer: chat.NewAnswerer(client.Client()),
		userID:   getEnv("DOCCHAT_USER", "anonymous"),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// requestContext applies the configured per-command deadline to every
// external call chain.
func requestContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(getEnvInt("DOCCHAT_REQUEST_TIMEOUT", 60)) * time.Second
	return context.WithTimeout(context.Background(), timeout)
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "text/plain"
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := requestContext()
	defer cancel()

	doc, err := a.pipeline.UploadDocument(ctx, ingest.Upload{
		Filename: filepath.Base(path),
		Content:  content,
		MimeType: mimeType,
		UserID:   a.userID,
	})
	if err != nil {
		return fmt.Errorf("could not process this file: %w", err)
	}

	fmt.Printf("Uploaded %s\n", doc.Filename)
	fmt.Printf("  ID:   %s\n", doc.ID)
	fmt.Printf("  Size: %d bytes\n", doc.FileSize)
	fmt.Printf("  Type: %s\n", doc.MimeType)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	owner, repo := args[0], args[1]
	basePath := ""
	if len(args) == 3 {
		basePath = args[2]
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := requestContext()
	defer cancel()

	gh, err := ghclient.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	fetcher := ghclient.NewFetcher(gh, owner, repo, basePath)

	fmt.Printf("Listing text files in %s/%s/%s...\n", owner, repo, basePath)
	paths, err := fetcher.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	fmt.Printf("Found %d files\n\n", len(paths))

	start := time.Now()
	imported := 0
	var failed []string

	for _, p := range paths {
		file, err := fetcher.FetchFile(ctx, p)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", p, err))
			continue
		}

		doc, err := a.pipeline.UploadDocument(ctx, ingest.Upload{
			Filename: file.Path,
			Content:  file.Content,
			MimeType: file.MimeType,
			UserID:   a.userID,
		})
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", p, err))
			continue
		}
		imported++
		fmt.Printf("  imported %s (%s)\n", doc.Filename, doc.ID)
	}

	fmt.Println()
	fmt.Println("Import complete!")
	fmt.Printf("  Imported: %d/%d\n", imported, len(paths))
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))

	if len(failed) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for _, f := range failed {
			fmt.Printf("  - %s\n", f)
		}
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := requestContext()
	defer cancel()

	ragContext := a.builder.GetContext(ctx, question, a.userID, getEnvInt("MAX_CONTEXT_CHUNKS", rag.DefaultMaxChunks))

	answer, err := a.answerer.Answer(ctx, question, ragContext)
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	fmt.Println(answer)
	if ragContext == "" {
		fmt.Println()
		fmt.Println("(no relevant documents found, answered from general knowledge)")
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := requestContext()
	defer cancel()

	vectors, err := a.embedder.Embed(ctx, []string{query}, embedding.TaskQuery)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	threshold := float32(getEnvFloat("SIMILARITY_THRESHOLD", rag.DefaultSimilarityThreshold))
	results, err := a.store.SimilaritySearch(ctx, vectors[0], query, a.userID, threshold, 10)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No relevant documents found.")
		return nil
	}

	for i, result := range results {
		if result.Score > 0 {
			fmt.Printf("%d. %s (chunk %d, score %.3f)\n", i+1, result.Filename, result.ChunkIndex, result.Score)
		} else {
			fmt.Printf("%d. %s (chunk %d, text match)\n", i+1, result.Filename, result.ChunkIndex)
		}
		fmt.Printf("   %s\n\n", snippet(result.Content, 200))
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := requestContext()
	defer cancel()

	docs, err := a.store.ListDocuments(ctx, a.userID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents uploaded yet.")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s  %s  %d bytes  %s\n",
			doc.ID, doc.CreatedAt.Format("2006-01-02 15:04"), doc.FileSize, doc.Filename)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := requestContext()
	defer cancel()

	if err := a.store.DeleteDocument(ctx, args[0], a.userID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

// snippet trims s to at most n bytes on a word boundary for display.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndex(s[:n], " ")
	if cut <= 0 {
		cut = n
	}
	return s[:cut] + "..."
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}
