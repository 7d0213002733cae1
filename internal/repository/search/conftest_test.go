package search

import (
	"context"

	"github.com/kailas-cloud/imagedex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	knnFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	hybridFn func(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.knnFn != nil {
		return m.knnFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchHybrid(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error) {
	if m.hybridFn != nil {
		return m.hybridFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}
