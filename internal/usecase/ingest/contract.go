package ingest

import (
	"context"

	domdoc "github.com/kailas-cloud/imagedex/internal/domain/document"
)

// Repository defines the storage contract for signal ingestion.
type Repository interface {
	EnsureIndex(ctx context.Context, name string, dim int) error
	Index(ctx context.Context, name string, doc *domdoc.Document) (string, error)
}
