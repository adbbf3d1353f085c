// Package chat generates answers to user questions, grounding them in
// retrieved document context when any is available.
package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/openai/openai-go"
)

// DefaultMaxTokens is the maximum context length before truncation (in tokens).
const DefaultMaxTokens = 16000

const systemPrompt = "You are a helpful assistant answering questions for a single user. " +
	"When the question is accompanied by excerpts from the user's uploaded documents, " +
	"ground your answer in those excerpts and cite the document names. When no excerpts " +
	"are provided, answer from general knowledge."

// Answerer produces answers using GPT-4o.
type Answerer struct {
	client    *openai.Client
	maxTokens int
}

// NewAnswerer creates an answerer with the given OpenAI client.
// Optional maxTokens parameter sets the context truncation limit (defaults
// to DefaultMaxTokens).
func NewAnswerer(client *openai.Client, maxTokens ...int) *Answerer {
	max := DefaultMaxTokens
	if len(maxTokens) > 0 && maxTokens[0] > 0 {
		max = maxTokens[0]
	}
	return &Answerer{
		client:    client,
		maxTokens: max,
	}
}

// Answer responds to question. ragContext is the formatted context block
// from retrieval; pass "" when no relevant documents were found and the
// model answers from general knowledge.
func (a *Answerer) Answer(ctx context.Context, question, ragContext string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(a.buildPrompt(question, ragContext)),
		},
		Model: openai.ChatModelGPT4o,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// buildPrompt combines the retrieval context block and the question into a
// single user message. The context is truncated to fit the token budget;
// the question never is.
func (a *Answerer) buildPrompt(question, ragContext string) string {
	if ragContext == "" {
		return question
	}
	return fmt.Sprintf("%s\n\nQuestion: %s", a.truncateContext(ragContext), question)
}

// truncateContext truncates the context block to fit within token limits.
// Uses rough estimate of 4 characters per token.
func (a *Answerer) truncateContext(ragContext string) string {
	maxChars := a.maxTokens * 4

	if len(ragContext) <= maxChars {
		return ragContext
	}

	log.Printf("Warning: Truncating context from %d to %d characters (estimated %d tokens)",
		len(ragContext), maxChars, a.maxTokens)

	return ragContext[:maxChars]
}
