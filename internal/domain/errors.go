package domain

import "errors"

var (
	// ErrQueryTooLarge signals query text over the accepted length cap.
	ErrQueryTooLarge = errors.New("query text too large")
	// ErrInvalidSignal signals a malformed ingestion signal bundle.
	ErrInvalidSignal = errors.New("invalid signal bundle")
	// ErrMissingVector signals a signal bundle without an embedding vector.
	ErrMissingVector = errors.New("signal bundle has no embedding vector")
	// ErrVectorDimMismatch signals a vector dimension mismatch against the index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrIndexNotFound signals a missing search index.
	ErrIndexNotFound = errors.New("index not found")

	// ErrNoLexicalMatches signals that the entity gate of a hybrid search
	// matched zero documents. Recoverable: callers fall back to pure KNN.
	ErrNoLexicalMatches = errors.New("no lexical matches")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrSummaryProviderError signals a summarization provider failure.
	ErrSummaryProviderError = errors.New("summarization provider error")
	// ErrExtractorError signals an entity extractor failure.
	ErrExtractorError = errors.New("entity extractor error")
)
