package langchain

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

// fakeModel implements llms.Model returning canned responses.
type fakeModel struct {
	responses []string
	noChoices bool
	err       error
	calls     int
}

func (f *fakeModel) GenerateContent(
	_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoices {
		f.calls++
		return &llms.ContentResponse{}, nil
	}
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.responses[i]}},
	}, nil
}

func (f *fakeModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func newTestExtractor(m llms.Model) *Extractor {
	return NewExtractorWithClient(m, &Config{
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestExtract_ParsesEntities(t *testing.T) {
	m := &fakeModel{responses: []string{
		`{"entities": [{"name": "Jane Doe", "type": "person", "confidence": 98},
		               {"name": "Paris", "type": "LOCATION", "confidence": 90}]}`,
	}}

	entities, err := newTestExtractor(m).Extract(context.Background(), "Jane Doe in Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	if entities[0].Name != "Jane Doe" || entities[0].Type != "PERSON" {
		t.Errorf("unexpected entity: %+v", entities[0])
	}
	if !entities[0].IsPerson() {
		t.Error("expected first entity to be a person")
	}
	if entities[1].IsPerson() {
		t.Error("location must not be a person")
	}
}

func TestExtract_StripsCodeFences(t *testing.T) {
	m := &fakeModel{responses: []string{
		"```json\n{\"entities\": [{\"name\": \"Jane Doe\", \"type\": \"PERSON\", \"confidence\": 95}]}\n```",
	}}

	entities, err := newTestExtractor(m).Extract(context.Background(), "Jane Doe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 || entities[0].Name != "Jane Doe" {
		t.Fatalf("unexpected entities: %+v", entities)
	}
}

func TestExtract_RetriesMalformedJSON(t *testing.T) {
	m := &fakeModel{responses: []string{
		`not json at all`,
		`{"entities": [{"name": "Jane Doe", "type": "PERSON", "confidence": 95}]}`,
	}}

	entities, err := newTestExtractor(m).Extract(context.Background(), "Jane Doe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity after retry, got %d", len(entities))
	}
	if m.calls != 2 {
		t.Errorf("expected 2 model calls, got %d", m.calls)
	}
}

func TestExtract_GivesUpAfterRetries(t *testing.T) {
	m := &fakeModel{responses: []string{`still not json`}}

	_, err := newTestExtractor(m).Extract(context.Background(), "Jane Doe")
	if !errors.Is(err, domain.ErrExtractorError) {
		t.Fatalf("expected ErrExtractorError, got %v", err)
	}
	if m.calls != maxParseAttempts {
		t.Errorf("expected %d attempts, got %d", maxParseAttempts, m.calls)
	}
}

func TestExtract_NoChoicesIsProviderError(t *testing.T) {
	m := &fakeModel{noChoices: true}

	_, err := newTestExtractor(m).Extract(context.Background(), "Jane Doe")
	if !errors.Is(err, domain.ErrExtractorError) {
		t.Fatalf("expected ErrExtractorError, got %v", err)
	}
}

// A truncated first reply decodes entities before the syntax error
// hits; a later valid reply without the key must not inherit them.
func TestExtract_FailedAttemptLeavesNoResidue(t *testing.T) {
	m := &fakeModel{responses: []string{
		`{"entities": [{"name": "Jane Doe", "type": "PERSON", "confidence": 95}],`,
		`{}`,
	}}

	entities, err := newTestExtractor(m).Extract(context.Background(), "a sunset over mountains")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 0 {
		t.Fatalf("expected no entities, got %+v", entities)
	}
	if m.calls != 2 {
		t.Errorf("expected 2 model calls, got %d", m.calls)
	}
}

func TestExtract_ProviderError(t *testing.T) {
	m := &fakeModel{err: errors.New("connection refused")}

	_, err := newTestExtractor(m).Extract(context.Background(), "Jane Doe")
	if !errors.Is(err, domain.ErrExtractorError) {
		t.Fatalf("expected ErrExtractorError, got %v", err)
	}
}

func TestExtract_EmptyEntities(t *testing.T) {
	m := &fakeModel{responses: []string{`{"entities": []}`}}

	entities, err := newTestExtractor(m).Extract(context.Background(), "a sunset over mountains")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 0 {
		t.Fatalf("expected no entities, got %+v", entities)
	}
}

func TestExtract_SkipsNamelessEntities(t *testing.T) {
	m := &fakeModel{responses: []string{
		`{"entities": [{"name": "", "type": "PERSON", "confidence": 50},
		               {"name": "Jane Doe", "type": "PERSON", "confidence": 95}]}`,
	}}

	entities, err := newTestExtractor(m).Extract(context.Background(), "Jane Doe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
}
