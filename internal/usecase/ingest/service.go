// Package ingest turns detection signal bundles into indexed documents.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/imagedex/internal/domain/document"
	"github.com/kailas-cloud/imagedex/internal/domain/signal"
	"github.com/kailas-cloud/imagedex/internal/logger"
)

// Service handles signal bundle ingestion.
type Service struct {
	repo      Repository
	indexName string
}

// New creates an ingestion service.
func New(repo Repository, indexName string) *Service {
	return &Service{repo: repo, indexName: indexName}
}

// Ingest validates a signal bundle, distills its detections into label
// and entity sentences, and indexes the resulting document. Returns the
// generated document id.
//
// Low-confidence detections and short generic labels are dropped by the
// sentence builders; a bundle whose detections are all filtered out
// still indexes, searchable by vector alone.
func (s *Service) Ingest(ctx context.Context, bundle *signal.Bundle) (string, error) {
	if err := bundle.Validate(); err != nil {
		return "", fmt.Errorf("validate bundle: %w", err)
	}

	doc, err := domdoc.New(
		bundle.SourceLocator,
		bundle.LabelSentence(),
		bundle.EntitySentence(),
		bundle.Embedding,
	)
	if err != nil {
		return "", fmt.Errorf("build document: %w", err)
	}

	if err := s.repo.EnsureIndex(ctx, s.indexName, doc.Dim()); err != nil {
		return "", fmt.Errorf("ensure index: %w", err)
	}

	id, err := s.repo.Index(ctx, s.indexName, &doc)
	if err != nil {
		return "", fmt.Errorf("index document: %w", err)
	}

	logger.FromContext(ctx).Debug("Indexed signal bundle",
		zap.String("id", id),
		zap.String("source", bundle.SourceLocator),
		zap.Int("dim", doc.Dim()))

	return id, nil
}
