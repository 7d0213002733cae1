package domain

import "context"

// EmbeddingResult is a provider embedding plus token accounting.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text into a fixed-dimension embedding.
type Embedder interface {
	EmbedText(ctx context.Context, text string) (EmbeddingResult, error)
}

// Summarizer produces a bounded-length abstractive summary of text.
// Output must be deterministic for identical input (temperature 0).
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Extractor identifies named entities in free text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Entity, error)
}
