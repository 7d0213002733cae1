// Package query runs the search pipeline: extract people, summarize,
// embed, then search with an entity gate when people were mentioned.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	domquery "github.com/kailas-cloud/imagedex/internal/domain/query"
	"github.com/kailas-cloud/imagedex/internal/logger"
)

// Service handles free-form search queries against the image index.
type Service struct {
	repo      Repository
	extract   Extractor
	summarize Summarizer
	embed     Embedder
	indexName string
	topK      int
}

// New creates a query service.
func New(
	repo Repository,
	extract Extractor,
	summarize Summarizer,
	embed Embedder,
	indexName string,
	topK int,
) *Service {
	return &Service{
		repo:      repo,
		extract:   extract,
		summarize: summarize,
		embed:     embed,
		indexName: indexName,
		topK:      topK,
	}
}

// Answer runs the full query pipeline and returns ranked records.
//
// When the text mentions people by name, results are gated to documents
// whose entities match those names, ranked by vector similarity. A gate
// that matches nothing falls back to pure KNN: semantically close
// results beat an empty page. An empty result set is a valid answer.
func (s *Service) Answer(ctx context.Context, text string) ([]domquery.Record, error) {
	if err := domquery.ValidateText(text); err != nil {
		return nil, err
	}

	personText, err := s.extractPeople(ctx, text)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize.Summarize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("summarize query: %w", err)
	}

	embResult, err := s.embed.EmbedText(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	if personText != "" {
		records, err := s.repo.Hybrid(ctx, s.indexName, personText, embResult.Embedding, s.topK)
		if err == nil {
			return records, nil
		}
		if !errors.Is(err, domain.ErrNoLexicalMatches) {
			return nil, fmt.Errorf("hybrid search: %w", err)
		}
		logger.FromContext(ctx).Debug("No lexical matches, falling back to KNN",
			zap.String("entities", personText))
	}

	records, err := s.repo.KNN(ctx, s.indexName, embResult.Embedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	return records, nil
}

// extractPeople returns the PERSON entity names from text, space-joined
// in extraction order. Empty when nobody is mentioned by name.
func (s *Service) extractPeople(ctx context.Context, text string) (string, error) {
	entities, err := s.extract.Extract(ctx, text)
	if err != nil {
		return "", fmt.Errorf("extract entities: %w", err)
	}

	var names []string
	for _, e := range entities {
		if e.IsPerson() {
			names = append(names, e.Name)
		}
	}
	return strings.Join(names, " "), nil
}
