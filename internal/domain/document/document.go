package document

import (
	"fmt"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// Document is the unit of indexing (immutable value object).
// Labels and entities are free text; the vector dimension is fixed per index.
type Document struct {
	sourceLocator string
	labels        string
	entities      string
	vector        []float32
}

// New validates and creates a Document.
// SourceLocator: non-empty (storage URI of the original asset).
// Vector: non-empty; a document without an embedding is meaningless.
func New(sourceLocator, labels, entities string, vector []float32) (Document, error) {
	if sourceLocator == "" {
		return Document{}, fmt.Errorf("source locator is required: %w", domain.ErrInvalidSignal)
	}
	if len(vector) == 0 {
		return Document{}, fmt.Errorf("document %q: %w", sourceLocator, domain.ErrMissingVector)
	}

	v := make([]float32, len(vector))
	copy(v, vector)

	return Document{
		sourceLocator: sourceLocator,
		labels:        labels,
		entities:      entities,
		vector:        v,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(sourceLocator, labels, entities string, vector []float32) Document {
	return Document{sourceLocator: sourceLocator, labels: labels, entities: entities, vector: vector}
}

// SourceLocator returns the storage URI of the original asset.
func (d *Document) SourceLocator() string { return d.sourceLocator }

// Labels returns the detected visual concept text (may be empty).
func (d *Document) Labels() string { return d.labels }

// Entities returns the space-joined recognized entity names (may be empty).
func (d *Document) Entities() string { return d.entities }

// Vector returns the embedding vector.
func (d *Document) Vector() []float32 { return d.vector }

// Dim returns the vector dimension.
func (d *Document) Dim() int { return len(d.vector) }
