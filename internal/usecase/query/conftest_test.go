package query

import (
	"context"

	"github.com/kailas-cloud/imagedex/internal/domain"
	domquery "github.com/kailas-cloud/imagedex/internal/domain/query"
)

type mockRepo struct {
	knnFn       func(ctx context.Context, name string, vector []float32, k int) ([]domquery.Record, error)
	hybridFn    func(ctx context.Context, name, entityText string, vector []float32, k int) ([]domquery.Record, error)
	knnCalls    int
	hybridCalls int
}

func (m *mockRepo) KNN(ctx context.Context, name string, vector []float32, k int) ([]domquery.Record, error) {
	m.knnCalls++
	if m.knnFn != nil {
		return m.knnFn(ctx, name, vector, k)
	}
	return nil, nil
}

func (m *mockRepo) Hybrid(
	ctx context.Context, name, entityText string, vector []float32, k int,
) ([]domquery.Record, error) {
	m.hybridCalls++
	if m.hybridFn != nil {
		return m.hybridFn(ctx, name, entityText, vector, k)
	}
	return nil, nil
}

type mockExtractor struct {
	entities []domain.Entity
	err      error
	calls    int
}

func (m *mockExtractor) Extract(_ context.Context, _ string) ([]domain.Entity, error) {
	m.calls++
	return m.entities, m.err
}

type mockSummarizer struct {
	summary string
	err     error
	calls   int
}

func (m *mockSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.summary, m.err
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) EmbedText(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

type fixture struct {
	repo      *mockRepo
	extract   *mockExtractor
	summarize *mockSummarizer
	embed     *mockEmbedder
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:      &mockRepo{},
		extract:   &mockExtractor{},
		summarize: &mockSummarizer{summary: "a short summary"},
		embed:     &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}},
	}
	f.svc = New(f.repo, f.extract, f.summarize, f.embed, "images", 10)
	return f
}
