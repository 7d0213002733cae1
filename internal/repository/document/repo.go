// Package document persists image documents: lazy idempotent index
// provisioning plus single-document writes guarded by the dimension
// invariant.
package document

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/db"
	"github.com/kailas-cloud/imagedex/internal/domain"
	domdoc "github.com/kailas-cloud/imagedex/internal/domain/document"
	"github.com/kailas-cloud/imagedex/internal/logger"
)

// store is the consumer interface for document writes (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements usecase/ingest.Repository.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the FT index for the named image collection if it
// does not exist yet. Safe to call before every write: "already exists"
// is absorbed (logged at debug) after verifying the recorded dimension.
func (r *Repo) EnsureIndex(ctx context.Context, name string, dim int) error {
	def := indexDefinition(name, dim)

	err := r.store.CreateIndex(ctx, def)
	switch {
	case err == nil:
		meta := map[string]string{"vector_dim": strconv.Itoa(dim)}
		if err := r.store.HSet(ctx, metaKey(name), meta); err != nil {
			return fmt.Errorf("record index meta %s: %w", name, err)
		}
		return nil
	case errors.Is(err, db.ErrIndexExists):
		logger.FromContext(ctx).Debug("index already exists",
			zap.String("index", name), zap.Int("dim", dim))
		return r.verifyDim(ctx, name, dim)
	default:
		return fmt.Errorf("create index %s: %w", name, err)
	}
}

// Index writes one document under a fresh opaque id and returns the id.
// The vector length is checked against the index's recorded dimension;
// a mismatch is fatal and nothing is stored.
func (r *Repo) Index(ctx context.Context, name string, doc *domdoc.Document) (string, error) {
	if err := r.verifyDim(ctx, name, doc.Dim()); err != nil {
		return "", err
	}

	id := uuid.NewString()
	key := docPrefix(name) + id
	if err := r.store.HSet(ctx, key, buildHashFields(doc)); err != nil {
		return "", fmt.Errorf("index document %s: %w", key, err)
	}
	return id, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context, name string) (int, error) {
	count, err := r.store.SearchCount(ctx, indexName(name), "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			err = domain.ErrIndexNotFound
		}
		return 0, fmt.Errorf("count documents %s: %w", name, err)
	}
	return count, nil
}

// verifyDim compares dim against the dimension recorded at index
// creation. An empty meta hash (pre-provisioned index, first write not
// yet through EnsureIndex) passes.
func (r *Repo) verifyDim(ctx context.Context, name string, dim int) error {
	meta, err := r.store.HGetAll(ctx, metaKey(name))
	if err != nil {
		return fmt.Errorf("read index meta %s: %w", name, err)
	}
	stored := meta["vector_dim"]
	if stored == "" {
		return nil
	}
	want, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("corrupt index meta %s: vector_dim=%q: %w", name, stored, err)
	}
	if want != dim {
		return fmt.Errorf("index %s expects dim %d, got %d: %w",
			name, want, dim, domain.ErrVectorDimMismatch)
	}
	return nil
}

func indexDefinition(name string, dim int) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        indexName(name),
		StorageType: db.StorageHash,
		Prefixes:    []string{docPrefix(name)},
		Fields: []db.IndexField{
			{Name: "source", Type: db.IndexFieldText},
			{Name: "labels", Type: db.IndexFieldText},
			{Name: "entities", Type: db.IndexFieldText},
			{
				Name:           "vector",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorFlat,
				VectorDim:      dim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
}

func indexName(name string) string { return domain.KeyPrefix + name + ":idx" }

// docPrefix keeps documents apart from the meta hash so the FT index
// never picks up the meta key.
func docPrefix(name string) string { return domain.KeyPrefix + name + ":doc:" }

func metaKey(name string) string { return domain.KeyPrefix + name + ":meta" }
