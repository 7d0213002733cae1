package query

import (
	"context"

	"github.com/kailas-cloud/imagedex/internal/domain"
	domquery "github.com/kailas-cloud/imagedex/internal/domain/query"
)

// Repository defines the search contract for the query pipeline.
type Repository interface {
	KNN(ctx context.Context, name string, vector []float32, k int) ([]domquery.Record, error)
	Hybrid(ctx context.Context, name, entityText string, vector []float32, k int) ([]domquery.Record, error)
}

// Extractor finds named entities in query text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]domain.Entity, error)
}

// Summarizer condenses query text into a short sentence.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	EmbedText(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
