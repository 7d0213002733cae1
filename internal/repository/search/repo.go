// Package search reads the image index: pure KNN and entity-gated
// hybrid queries. The store's per-field wire shape is transposed into
// per-document records here, at the adapter boundary, so pipeline code
// never sees parallel field mappings.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/imagedex/internal/db"
	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/domain/query"
)

// returnFields excludes the stored vector from every result payload.
var returnFields = []string{"source", "labels", "entities"}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchHybrid(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error)
}

// Repo implements usecase/query.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// KNN returns up to k documents by descending cosine similarity to vector.
func (r *Repo) KNN(ctx context.Context, name string, vector []float32, k int) ([]query.Record, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(name),
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, mapStoreErr("knn search", name, err)
	}
	return parseRecords(sr), nil
}

// Hybrid returns up to k documents whose entities field lexically
// matches entityText, ranked by cosine similarity to vector. A zero-hit
// lexical gate yields domain.ErrNoLexicalMatches so callers can fall
// back to pure KNN instead of receiving unrelated results.
func (r *Repo) Hybrid(
	ctx context.Context, name, entityText string, vector []float32, k int,
) ([]query.Record, error) {
	sr, err := r.store.SearchHybrid(ctx, &db.HybridQuery{
		IndexName:    indexName(name),
		EntityText:   entityText,
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, mapStoreErr("hybrid search", name, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, domain.ErrNoLexicalMatches
	}
	return parseRecords(sr), nil
}

// parseRecords transposes store entries into one record per document,
// preserving the store's descending-score order.
func parseRecords(sr *db.SearchResult) []query.Record {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	records := make([]query.Record, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		records = append(records, query.Record{
			SourceLocator: entry.Fields["source"],
			Labels:        entry.Fields["labels"],
			Entities:      entry.Fields["entities"],
			Score:         entry.Score,
		})
	}
	return records
}

// mapStoreErr translates store sentinels into their domain
// counterparts so the transport's error table can match them.
func mapStoreErr(op, name string, err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		err = domain.ErrIndexNotFound
	}
	return fmt.Errorf("%s %s: %w", op, name, err)
}

func indexName(name string) string { return domain.KeyPrefix + name + ":idx" }
